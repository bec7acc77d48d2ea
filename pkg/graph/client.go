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

// Package graph is the Graph Writer & Index Manager: it speaks the
// Bolt wire protocol over a Cypher-dialect backend, batches node/edge
// emission by (label, edge-type), and retries transient transport
// failures with jittered exponential backoff before giving up. The
// Backend interface is a small Query/Execute/Close surface, and Client
// implements it over neo4j-go-driver/v5.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config configures the Bolt connection.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Backend is the minimal surface Writer needs from a graph store:
// run a parameterized Cypher statement and release resources on Close.
// Client is the production implementation over neo4j-go-driver/v5;
// tests substitute an in-memory fake.
type Backend interface {
	Query(ctx context.Context, cypher string, params map[string]any) ([]Row, error)
	Execute(ctx context.Context, cypher string, params map[string]any) error
	Close(ctx context.Context) error
}

// Client wraps a neo4j driver/session pair behind the Backend surface.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

// Connect opens a driver against cfg.URI and verifies connectivity.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("graph: open driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph: verify connectivity: %w", err)
	}
	return &Client{driver: driver, database: cfg.Database}, nil
}

// Row is one record from a Cypher query, keyed by return alias.
type Row map[string]any

// Query runs a read-only Cypher statement and returns its rows.
func (c *Client) Query(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: c.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var rows []Row
		for res.Next(ctx) {
			rec := res.Record()
			row := make(Row, len(rec.Keys))
			for _, k := range rec.Keys {
				v, _ := rec.Get(k)
				row[k] = v
			}
			rows = append(rows, row)
		}
		return rows, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("graph: query: %w", err)
	}
	rows, _ := result.([]Row)
	return rows, nil
}

// Execute runs a write Cypher statement with no result rows expected.
func (c *Client) Execute(ctx context.Context, cypher string, params map[string]any) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: c.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, cypher, params)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("graph: execute: %w", err)
	}
	return nil
}

// Close releases the driver's connection pool.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}
