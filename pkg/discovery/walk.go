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

package discovery

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// hiddenDirs are skipped unconditionally regardless of filter options.
var hiddenDirs = map[string]bool{
	".git": true, ".venv": true, "node_modules": true, "target": true,
	"dist": true, "build": true, "__pycache__": true,
}

// specialBasenames maps a closed set of recognized filenames (no
// extension, or an extension langregistry doesn't index) to a language
// tag.
var specialBasenames = map[string]string{
	"Makefile":        "make",
	"Dockerfile":      "dockerfile",
	"package.json":    "json",
	"Kconfig":         "kconfig",
	"go.mod":          "go-mod",
	"Cargo.toml":      "toml",
	"pom.xml":         "xml",
	"build.sbt":       "scala-build",
	"CMakeLists.txt":  "cmake",
}

// File is a discovered candidate, tagged with its detected language (or
// "" if unrecognized — the file is still yielded, Pass-1 simply skips
// entries it has no driver for).
type File struct {
	AbsPath string
	RelPath string
	Language string
	Size     int64
}

// Options configures a Walk.
type Options struct {
	// FolderFilter restricts results to paths under one of these
	// relative prefixes. Empty means no restriction.
	FolderFilter []string
	// FilePatterns is an additional glob allow-list. Empty means no
	// restriction.
	FilePatterns []string
	SkipTests    bool
	MaxFileSize  int64 // 0 means no limit
}

// Languager reports a language tag for a file extension; pkg/langregistry
// satisfies this without discovery needing to import tree-sitter types.
type Languager interface {
	ByExtensionName(ext string) (string, bool)
}

// Result is the full output of a Walk.
type Result struct {
	RootPath    string
	Files       []File
	SkipReasons map[string]int
}

// Walk walks root honoring Options and returns files in lexicographic
// order by relative path, so two runs over identical input produce an
// identical file order.
func Walk(root string, opts Options, langs Languager, isTestFile func(relPath, language string) bool, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	visitedInodes := make(map[uint64]bool)
	skipReasons := make(map[string]int)
	var files []File

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("discovery.walk.error", "path", path, "err", err)
			skipReasons["permission_denied"]++
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			base := d.Name()
			if relPath != "." && hiddenDirs[base] {
				skipReasons["hidden_dir"]++
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks are followed at most once per physical inode.
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, evalErr := filepath.EvalSymlinks(path)
			if evalErr != nil {
				skipReasons["broken_symlink"]++
				return nil
			}
			targetInfo, statErr := os.Stat(target)
			if statErr != nil {
				return nil
			}
			if ino, ok := inodeOf(targetInfo); ok {
				if visitedInodes[ino] {
					skipReasons["symlink_cycle"]++
					return nil
				}
				visitedInodes[ino] = true
			}
			info = targetInfo
		}

		if !matchesFolderFilter(relPath, opts.FolderFilter) {
			skipReasons["folder_filter"]++
			return nil
		}
		if len(opts.FilePatterns) > 0 && !matchesAnyGlob(relPath, opts.FilePatterns) {
			skipReasons["file_pattern"]++
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			skipReasons["too_large"]++
			return nil
		}

		language := detectLanguage(relPath, langs)
		if opts.SkipTests && isTestFile != nil && isTestFile(relPath, language) {
			skipReasons["skip_tests"]++
			return nil
		}

		files = append(files, File{
			AbsPath: path, RelPath: relPath, Language: language, Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })

	return &Result{RootPath: root, Files: files, SkipReasons: skipReasons}, nil
}

func detectLanguage(relPath string, langs Languager) string {
	base := filepath.Base(relPath)
	if lang, ok := specialBasenames[base]; ok {
		return lang
	}
	ext := strings.ToLower(filepath.Ext(relPath))
	if ext == ".feature" {
		return "gherkin"
	}
	if ext == "" || langs == nil {
		return ""
	}
	if lang, ok := langs.ByExtensionName(ext); ok {
		return lang
	}
	return ""
}

func matchesFolderFilter(relPath string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		p = strings.TrimSuffix(filepath.ToSlash(p), "/")
		if relPath == p || strings.HasPrefix(relPath, p+"/") {
			return true
		}
	}
	return false
}

func matchesAnyGlob(relPath string, patterns []string) bool {
	base := filepath.Base(relPath)
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, relPath); ok {
			return true
		}
	}
	return false
}
