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
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/graphupdater/internal/errors"
	"github.com/kraklabs/graphupdater/internal/output"
	"github.com/kraklabs/graphupdater/internal/ui"
	"github.com/kraklabs/graphupdater/pkg/graph"
)

// resetQuery deletes the project's root node and every descendant
// whose qualified name is rooted under it. Project nodes are keyed by
// the bare project name; folder, file, module and definition nodes
// have qualified names built as project + "." + ..., so a STARTS WITH
// prefix match captures them in one statement. ExternalPackage nodes
// ("ext:" + root) carry no project prefix and are not deleted.
const resetQuery = `
MATCH (n)
WHERE n.qualified_name = $project OR n.qualified_name STARTS WITH $prefix
DETACH DELETE n
`

// runReset executes the 'reset' command: a destructive deletion of
// one project's subgraph, gated on --yes.
func runReset(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")
	timeout := fs.Duration("timeout", 60*time.Second, "Delete timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: graphupdater reset [options]

Deletes every node belonging to the configured project from the graph.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		fmt.Fprintln(os.Stderr, "Error: you must pass --yes to confirm the reset")
		fmt.Fprintln(os.Stderr, "This will permanently delete the project's graph data.")
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigurationError(
			"cannot load configuration", err.Error(), "run 'graphupdater init' first", err,
		), globals.JSON)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := graph.Connect(ctx, graph.Config{
		URI: cfg.Graph.URI, Username: cfg.Graph.Username, Password: cfg.Graph.Password, Database: cfg.Graph.Database,
	})
	if err != nil {
		errors.FatalError(errors.NewConfigurationError(
			"cannot connect to graph backend", err.Error(), "check graph.uri/username/password in project.yaml", err,
		), globals.JSON)
	}
	defer func() { _ = client.Close(ctx) }()

	if !globals.Quiet && !globals.JSON {
		ui.Warningf("Deleting all graph data for project %q...", cfg.ProjectID)
	}

	params := map[string]any{
		"project": cfg.ProjectID,
		"prefix":  cfg.ProjectID + ".",
	}
	if err := client.Execute(ctx, resetQuery, params); err != nil {
		errors.FatalError(errors.NewWriterError(
			"reset failed", err.Error(), "check the graph backend's availability", err,
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(map[string]any{"project_id": cfg.ProjectID, "reset": true})
		return
	}

	ui.Success(fmt.Sprintf("Reset complete. All graph data for project %q has been deleted.", cfg.ProjectID))
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  graphupdater ingest    Reindex the project")
}
