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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/graphupdater/internal/errors"
	"github.com/kraklabs/graphupdater/internal/ui"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force          bool
	nonInteractive bool
	projectID      string
	graphURI       string
	graphUser      string
	graphPassword  string
}

// runInit executes the 'init' command, writing
// .graphupdater/project.yaml for the current repository.
func runInit(args []string, configPath string, globals GlobalFlags) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"cannot determine current directory", err.Error(), "retry from a valid directory", err,
		), globals.JSON)
	}

	resolvedPath := configPath
	if resolvedPath == "" {
		resolvedPath = ConfigPath(cwd)
	}

	if _, err := os.Stat(resolvedPath); err == nil && !flags.force {
		errors.FatalError(errors.NewConfigurationError(
			fmt.Sprintf("configuration already exists at %s", resolvedPath),
			"init does not overwrite an existing project.yaml by default",
			"pass --force to overwrite", nil,
		), globals.JSON)
	}

	cfg := createInitConfig(cwd, flags)

	if !flags.nonInteractive {
		reader := bufio.NewReader(os.Stdin)
		runInteractiveConfig(reader, cfg)
	}

	saveInitConfig(cwd, resolvedPath, cfg)
	printNextSteps()
}

// parseInitFlags parses the init subcommand's flags.
func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite an existing configuration")
	fs.BoolVarP(&f.nonInteractive, "yes", "y", false, "Non-interactive mode, use all defaults")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier (default: directory name)")
	fs.StringVar(&f.graphURI, "graph-uri", "", "Bolt URI of the graph backend (e.g. bolt://localhost:7687)")
	fs.StringVar(&f.graphUser, "graph-user", "", "Graph backend username")
	fs.StringVar(&f.graphPassword, "graph-password", "", "Graph backend password")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: graphupdater init [options]

Creates .graphupdater/project.yaml for the current repository.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

// createInitConfig builds the initial Config from flag overrides,
// falling back to DefaultConfig for anything left unset.
func createInitConfig(cwd string, f initFlags) *Config {
	pid := f.projectID
	if pid == "" {
		pid = filepath.Base(cwd)
	}
	cfg := DefaultConfig(pid)
	if f.graphURI != "" {
		cfg.Graph.URI = f.graphURI
	}
	if f.graphUser != "" {
		cfg.Graph.Username = f.graphUser
	}
	if f.graphPassword != "" {
		cfg.Graph.Password = f.graphPassword
	}
	return cfg
}

// runInteractiveConfig prompts for the settings worth confirming by
// hand: project ID and graph connection details.
func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	ui.Header("Graph Updater Project Configuration")
	fmt.Println()

	cfg.ProjectID = prompt(reader, "Project ID", cfg.ProjectID)

	fmt.Println()
	fmt.Println("Graph backend (Bolt protocol, e.g. Neo4j):")
	cfg.Graph.URI = prompt(reader, "Graph URI", cfg.Graph.URI)
	cfg.Graph.Username = prompt(reader, "Graph username", cfg.Graph.Username)
	cfg.Graph.Password = prompt(reader, "Graph password", cfg.Graph.Password)
	cfg.Graph.Database = prompt(reader, "Graph database", cfg.Graph.Database)
	fmt.Println()
}

// saveInitConfig writes cfg to path and registers .graphupdater/ with
// the repository's .gitignore.
func saveInitConfig(cwd, path string, cfg *Config) {
	if err := os.MkdirAll(ConfigDir(cwd), 0o750); err != nil {
		errors.FatalError(errors.NewInternalError(
			"cannot create .graphupdater directory", err.Error(), "check write permissions on the repository root", err,
		), false)
	}
	if err := SaveConfig(cfg, path); err != nil {
		errors.FatalError(errors.NewInternalError(
			"cannot save configuration", err.Error(), "check write permissions", err,
		), false)
	}
	ui.Successf("Created %s", path)
	addToGitignore(cwd)
}

// printNextSteps prints the commands a user would run right after init.
func printNextSteps() {
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review .graphupdater/project.yaml if needed")
	fmt.Println("  2. Run 'graphupdater ingest' to build the graph")
	fmt.Println("  3. Run 'graphupdater status' to verify it")
}

// prompt displays label with defaultValue shown in brackets and
// returns the line the user types, or defaultValue on empty input.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore adds .graphupdater/ to the repository's .gitignore
// if a .gitignore exists and doesn't already list it.
func addToGitignore(dir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == ".graphupdater/" || line == ".graphupdater" || line == "/.graphupdater/" || line == "/.graphupdater" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString("\n# graphupdater configuration\n.graphupdater/\n")
	ui.Info("Added .graphupdater/ to .gitignore")
}
