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
	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

// StatusResult is the project status, in both human and JSON form.
type StatusResult struct {
	ProjectID    string         `json:"project_id"`
	Connected    bool           `json:"connected"`
	NodesByLabel map[string]int `json:"nodes_by_label,omitempty"`
	TotalNodes   int            `json:"total_nodes"`
	TotalEdges   int            `json:"total_edges"`
	Error        string         `json:"error,omitempty"`
}

// runStatus executes the 'status' command, reporting node counts per
// label and the relationship total directly from the graph backend.
// The counts cover the whole graph; they are not filtered by project.
func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: graphupdater status [options]

Shows node and relationship counts for the whole graph.

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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := graph.Connect(ctx, graph.Config{
		URI: cfg.Graph.URI, Username: cfg.Graph.Username, Password: cfg.Graph.Password, Database: cfg.Graph.Database,
	})
	if err != nil {
		result := &StatusResult{ProjectID: cfg.ProjectID, Connected: false, Error: err.Error()}
		if globals.JSON {
			_ = output.JSON(result)
		} else {
			ui.Error(fmt.Sprintf("cannot connect to graph backend: %v", err))
		}
		os.Exit(1)
	}
	defer func() { _ = client.Close(ctx) }()

	result := &StatusResult{ProjectID: cfg.ProjectID, Connected: true, NodesByLabel: make(map[string]int)}
	for _, label := range graphmodel.AllLabels {
		n, err := countLabel(ctx, client, string(label))
		if err != nil {
			continue
		}
		if n > 0 {
			result.NodesByLabel[string(label)] = n
		}
		result.TotalNodes += n
	}
	result.TotalEdges, _ = countRelationships(ctx, client)

	if globals.JSON {
		_ = output.JSON(result)
		return
	}
	printStatus(result)
}

// countLabel runs a Cypher count over every node carrying label.
func countLabel(ctx context.Context, client *graph.Client, label string) (int, error) {
	rows, err := client.Query(ctx, fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS c", label), nil)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return toInt(rows[0]["c"]), nil
}

// countRelationships runs a Cypher count over every relationship in
// the graph, regardless of type.
func countRelationships(ctx context.Context, client *graph.Client) (int, error) {
	rows, err := client.Query(ctx, "MATCH ()-[r]->() RETURN count(r) AS c", nil)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return toInt(rows[0]["c"]), nil
}

// toInt converts a driver-returned count value (typically int64) to int.
func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

// printStatus prints a human-readable status summary.
func printStatus(result *StatusResult) {
	ui.Header("Graph Updater Project Status")
	fmt.Printf("Project ID:   %s\n", result.ProjectID)
	fmt.Printf("Total Nodes:  %s\n", ui.CountText(result.TotalNodes))
	fmt.Printf("Total Edges:  %s\n", ui.CountText(result.TotalEdges))

	if len(result.NodesByLabel) > 0 {
		fmt.Println("\nNodes by label:")
		for _, label := range graphmodel.AllLabels {
			if n, ok := result.NodesByLabel[string(label)]; ok {
				fmt.Printf("  %-20s %d\n", label, n)
			}
		}
	}
}
