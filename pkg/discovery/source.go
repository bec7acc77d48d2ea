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

// Package discovery walks a repository root and yields language-tagged
// file candidates in deterministic order: local-path loading, glob
// exclusion, and walk-with-skip-reasons, tagged against the full
// langregistry-driven language set rather than a fixed handful of
// extensions.
package discovery

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var (
	validGitURLPattern   = regexp.MustCompile(`^(https?://|git@|ssh://|file://)[\w.\-@:/%]+$`)
	dangerousCharsPattern = regexp.MustCompile(`[;&|$` + "`" + `\n\r\\]`)
)

// SourceType identifies how a repository is located.
type SourceType string

const (
	SourceGitURL    SourceType = "git_url"
	SourceLocalPath SourceType = "local_path"
)

// Source is a repository reference, either a local filesystem path or a
// remote git URL to shallow-clone.
type Source struct {
	Type  SourceType
	Value string
}

// Loader resolves a Source to a local root path, cleaning up any
// temporary clone directories on Close.
type Loader struct {
	logger     *slog.Logger
	tempDirs   []string
	tempDirsMu sync.Mutex
}

// NewLoader builds a Loader; a nil logger falls back to slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Close removes every temporary directory created by a git clone.
func (l *Loader) Close() error {
	l.tempDirsMu.Lock()
	defer l.tempDirsMu.Unlock()
	var lastErr error
	for _, dir := range l.tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			l.logger.Warn("discovery.cleanup.error", "dir", dir, "err", err)
			lastErr = err
		}
	}
	l.tempDirs = nil
	return lastErr
}

// Resolve returns the absolute local root path for source, cloning it
// first if it is a git URL.
func (l *Loader) Resolve(source Source) (string, error) {
	switch source.Type {
	case SourceGitURL:
		return l.cloneGitRepo(source.Value)
	case SourceLocalPath:
		root, err := filepath.Abs(source.Value)
		if err != nil {
			return "", fmt.Errorf("resolve local path: %w", err)
		}
		if err := validateLocalPath(root); err != nil {
			return "", fmt.Errorf("invalid local path: %w", err)
		}
		info, err := os.Stat(root)
		if err != nil {
			return "", fmt.Errorf("stat local path: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("local path is not a directory: %s", root)
		}
		return root, nil
	default:
		return "", fmt.Errorf("unsupported repo source type: %s", source.Type)
	}
}

func validateGitURL(gitURL string) error {
	if gitURL == "" {
		return fmt.Errorf("git URL is empty")
	}
	if dangerousCharsPattern.MatchString(gitURL) {
		return fmt.Errorf("git URL contains dangerous characters")
	}
	if strings.HasPrefix(gitURL, "http://") || strings.HasPrefix(gitURL, "https://") {
		parsed, err := url.Parse(gitURL)
		if err != nil {
			return fmt.Errorf("invalid URL format: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("git URL missing host")
		}
		if parsed.User != nil {
			if _, hasPassword := parsed.User.Password(); hasPassword {
				return fmt.Errorf("git URL should not contain embedded password")
			}
		}
		return nil
	}
	if strings.HasPrefix(gitURL, "git@") || strings.HasPrefix(gitURL, "ssh://") {
		if !validGitURLPattern.MatchString(gitURL) {
			return fmt.Errorf("invalid SSH git URL format")
		}
		return nil
	}
	if strings.HasPrefix(gitURL, "file://") {
		return nil
	}
	return fmt.Errorf("unsupported git URL protocol: must be https://, git@, ssh://, or file://")
}

func (l *Loader) cloneGitRepo(gitURL string) (string, error) {
	if err := validateGitURL(gitURL); err != nil {
		return "", fmt.Errorf("invalid git URL: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "graphupdater-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	// #nosec G204 - gitURL is validated above to prevent command injection
	cmd := exec.Command("git", "clone", "--depth", "1", "--quiet", gitURL, tmpDir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logURL := gitURL
	if parsed, err := url.Parse(gitURL); err == nil {
		parsed.RawQuery = ""
		if parsed.User != nil {
			parsed.User = url.User("***")
		}
		logURL = parsed.String()
	}

	l.logger.Info("discovery.clone.start", "url", logURL, "temp_dir", tmpDir)
	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("git clone failed: %w", err)
	}
	l.logger.Info("discovery.clone.success", "url", logURL, "temp_dir", tmpDir)

	l.tempDirsMu.Lock()
	l.tempDirs = append(l.tempDirs, tmpDir)
	l.tempDirsMu.Unlock()

	return tmpDir, nil
}

func validateLocalPath(path string) error {
	cleaned := filepath.Clean(path)
	if cleaned != path {
		return fmt.Errorf("path contains traversal attempts: %s", path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path: %w", err)
	}
	if strings.Contains(absPath, "..") {
		return fmt.Errorf("path contains suspicious patterns after resolution: %s", absPath)
	}
	if absPath == "" || absPath == "/" {
		return fmt.Errorf("path is empty or root directory, which is not allowed")
	}
	return nil
}
