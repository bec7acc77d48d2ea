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

package graphmodel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/minio/highwayhash"
)

// QN builds a dotted qualified name rooted at a project, skipping empty
// segments. It is the single place QNs are assembled so every package
// constructs them identically.
func QN(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out == "" {
			out = p
			continue
		}
		out += "." + p
	}
	return out
}

// NodeID derives a stable registry key from a (label, QN) pair. Short QNs
// are used directly; long ones are hashed to keep keys bounded.
func NodeID(label Label, qn string) string {
	normalized := normalizePath(qn)
	if len(normalized) <= 256 {
		return fmt.Sprintf("%s:%s", label, normalized)
	}
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%s:%s", label, hex.EncodeToString(hash[:16]))
}

// EdgeID derives a stable key for an (src, type, dst) edge, hashing the
// full triple since edge keys have no natural length bound.
func EdgeID(e Edge) string {
	idStr := fmt.Sprintf("%s|%s|%s", e.SourceQN, e.Type, e.TargetQN)
	hash := sha256.Sum256([]byte(idStr))
	return fmt.Sprintf("edge:%s", hex.EncodeToString(hash[:16]))
}

// normalizePath normalizes a path/QN for consistent ID generation: strip
// leading "./", clean, forward slashes, strip leading "/".
func normalizePath(path string) string {
	if len(path) >= 2 && path[0:2] == "./" {
		path = path[2:]
	}
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return path
}

// contentHashKey is a fixed 32-byte HighwayHash key. The value doesn't need
// to be secret — content hashing here is not for authentication — it
// only needs to be stable across runs.
var contentHashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// ContentHash computes a fast, stable HighwayHash digest of a file's
// bytes. The ingest pipeline does not call it: every run parses every
// discovered file, unchanged or not.
func ContentHash(data []byte) (uint64, error) {
	h, err := highwayhash.New64(contentHashKey)
	if err != nil {
		return 0, err
	}
	if _, err := h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
