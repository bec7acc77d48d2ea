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
	"sort"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/graphupdater/internal/errors"
	"github.com/kraklabs/graphupdater/internal/output"
	"github.com/kraklabs/graphupdater/pkg/graph"
)

// runQuery executes the 'query' command: one read-only Cypher
// statement against the configured graph backend.
func runQuery(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: graphupdater query [options] <cypher>

Executes a read-only Cypher query against the project's graph.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  graphupdater query "MATCH (f:Function) RETURN f.qualified_name LIMIT 10"
  graphupdater query "MATCH (a:Function)-[:CALLS]->(b:Function) RETURN a.qualified_name, b.qualified_name LIMIT 10"
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a Cypher query argument is required")
		fs.Usage()
		os.Exit(1)
	}
	cypher := fs.Arg(0)

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

	rows, err := client.Query(ctx, cypher, nil)
	if err != nil {
		errors.FatalError(errors.NewWriterError(
			"query failed", err.Error(), "check the Cypher syntax and label/property names", err,
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(rows)
		return
	}
	printQueryRows(rows)
}

// printQueryRows prints rows as a tab-aligned table, column order
// sorted for determinism across runs (Neo4j record key order is not
// guaranteed stable).
func printQueryRows(rows []graph.Row) {
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return
	}

	var keys []string
	for k := range rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	for i, k := range keys {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, k)
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprintf(w, "%v", row[k])
		}
		fmt.Fprintln(w)
	}
}
