// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/graphupdater/internal/errors"
	"github.com/kraklabs/graphupdater/internal/output"
	"github.com/kraklabs/graphupdater/internal/ui"
	"github.com/kraklabs/graphupdater/pkg/discovery"
	"github.com/kraklabs/graphupdater/pkg/ingest"
)

// runIngest executes the 'ingest' command: discovery through graph
// write, for the source configured by --path/--git-url or, absent
// either, the current directory.
func runIngest(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	path := fs.String("path", "", "Local path to ingest (default: current directory)")
	gitURL := fs.String("git-url", "", "Git URL to shallow-clone and ingest")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: graphupdater ingest [options]

Discovers source files, parses and resolves them, and writes the
resulting graph to the backend configured in .graphupdater/project.yaml.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigurationError(
			"cannot load configuration", err.Error(), "run 'graphupdater init' first", err,
		), globals.JSON)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	source := discovery.Source{Type: discovery.SourceLocalPath, Value: *path}
	switch {
	case *gitURL != "":
		source = discovery.Source{Type: discovery.SourceGitURL, Value: *gitURL}
	case *path == "":
		cwd, err := os.Getwd()
		if err != nil {
			errors.FatalError(errors.NewInternalError(
				"cannot determine current directory", err.Error(), "retry from a valid directory", err,
			), globals.JSON)
		}
		source.Value = cwd
	}

	ingestCfg := cfg.toIngestConfig(ingest.Config{Source: source})
	ingestCfg.Quiet = globals.Quiet
	ingestCfg.JSONOutput = globals.JSON
	ingestCfg.NoColor = globals.NoColor

	pipeline, err := ingest.New(ctx, ingestCfg, logger)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer func() { _ = pipeline.Close(ctx) }()

	if !globals.Quiet && !globals.JSON {
		ui.Info("Ensuring graph indexes and constraints...")
	}
	if err := pipeline.EnsureIndexes(ctx); err != nil {
		errors.FatalError(errors.NewWriterError(
			"failed to ensure graph indexes", err.Error(), "check the graph backend's availability", err,
		), globals.JSON)
	}

	if !globals.Quiet && !globals.JSON {
		ui.Info(fmt.Sprintf("Ingesting project '%s'...", cfg.ProjectID))
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(result)
		return
	}
	printIngestResult(result)
}

// printIngestResult prints a human-readable ingest summary.
func printIngestResult(result *ingest.Result) {
	fmt.Println()
	ui.Header("Ingest Complete")
	fmt.Printf("Project:          %s\n", result.Project)
	fmt.Printf("Run ID:           %s\n", result.RunID)
	fmt.Printf("Files Discovered: %s\n", ui.CountText(result.FilesDiscovered))
	fmt.Printf("Files Parsed:     %s\n", ui.CountText(result.FilesParsed))
	fmt.Printf("Files Skipped:    %s\n", ui.CountText(result.FilesSkipped))

	if len(result.NodesByLabel) > 0 {
		fmt.Println("\nNodes written:")
		for label, n := range result.NodesByLabel {
			fmt.Printf("  %-20s %d\n", label, n)
		}
	}
	if len(result.EdgesByType) > 0 {
		fmt.Println("\nEdges written:")
		for edgeType, n := range result.EdgesByType {
			fmt.Printf("  %-20s %d\n", edgeType, n)
		}
	}

	if result.Errors != nil && result.Errors.Total() > 0 {
		fmt.Println()
		ui.Warningf("%d non-fatal errors recorded", result.Errors.Total())
		for _, line := range result.Errors.Lines() {
			fmt.Printf("  %s\n", line)
		}
	}

	fmt.Printf("\nDuration: %s\n", result.Duration)
}
