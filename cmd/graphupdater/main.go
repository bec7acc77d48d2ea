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

// Package main implements the graphupdater CLI: ingest a repository into
// a code knowledge graph, inspect its status, and issue read-only Cypher
// queries against it.
//
// Usage:
//
//	graphupdater init                       Create .graphupdater/project.yaml
//	graphupdater ingest                      Ingest the current repository
//	graphupdater status [--json]             Show graph entity counts
//	graphupdater query <cypher> [--json]     Execute a read-only Cypher query
//	graphupdater reset --yes                 Delete this project's graph data
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags carries the flags every subcommand shares.
type GlobalFlags struct {
	JSON    bool
	Quiet   bool
	NoColor bool
}

func main() {
	var (
		showVersion = flag.BoolP("version", "v", false, "Show version and exit")
		jsonOutput  = flag.Bool("json", false, "Output machine-readable JSON")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress progress output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
		configPath  = flag.String("config", "", "Path to .graphupdater/project.yaml (default: ./.graphupdater/project.yaml)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `graphupdater - Code Knowledge Graph Updater

Usage:
  graphupdater <command> [options]

Commands:
  init      Create .graphupdater/project.yaml configuration
  ingest    Discover, parse, resolve, and write the project graph
  status    Show node and relationship counts for the whole graph
  query     Execute a read-only Cypher query
  reset     Delete this project's graph data (destructive!)

Global Options:
  --config       Path to .graphupdater/project.yaml
  --json         Output machine-readable JSON
  -q, --quiet    Suppress progress output
  --no-color     Disable colored output
  -v, --version  Show version and exit

Examples:
  graphupdater init
  graphupdater ingest
  graphupdater ingest --path ./src
  graphupdater status --json
  graphupdater query "MATCH (f:Function) RETURN f.qualified_name LIMIT 10"
  graphupdater reset --yes

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("graphupdater version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	globals := GlobalFlags{JSON: *jsonOutput, Quiet: *quiet, NoColor: *noColor}
	command, cmdArgs := args[0], args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, *configPath, globals)
	case "ingest":
		runIngest(cmdArgs, *configPath, globals)
	case "status":
		runStatus(cmdArgs, *configPath, globals)
	case "query":
		runQuery(cmdArgs, *configPath, globals)
	case "reset":
		runReset(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
