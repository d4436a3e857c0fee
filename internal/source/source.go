// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package source resolves the netlist files an ingest invocation will read:
// local paths and directories, a "gs://" remote bucket prefix, or a
// continuously watched local directory.
//
// Thread Safety: All exported functions are safe for concurrent use; they
// hold no shared state beyond what a caller passes in explicitly.
package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// netlistExtensions are the file suffixes treated as SPICE netlists when
// walking a directory. Matching is case-insensitive.
var netlistExtensions = map[string]bool{
	".sp":   true,
	".cir":  true,
	".net":  true,
	".spi":  true,
	".spice": true,
}

// Resolve expands paths (files, directories, or "gs://" prefixes) into a
// sorted, deduplicated list of local netlist file paths. Directories are
// walked recursively; "gs://" entries are downloaded to localCacheDir via
// FetchRemote and the resulting local paths are returned in their place.
func Resolve(ctx context.Context, paths []string, localCacheDir string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if strings.HasPrefix(p, "gs://") {
			local, err := FetchRemote(ctx, p, localCacheDir)
			if err != nil {
				return nil, fmt.Errorf("fetching remote source %s: %w", p, err)
			}
			for _, f := range local {
				if !seen[f] {
					seen[f] = true
					out = append(out, f)
				}
			}
			continue
		}

		files, err := expandLocal(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		for _, f := range files {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

// expandLocal resolves a single local path: a netlist file is returned
// as-is, a directory is walked for every recognized netlist extension.
func expandLocal(p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{p}, nil
	}

	var files []string
	err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if IsNetlistFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// IsNetlistFile reports whether path's extension is a recognized netlist
// suffix, matched case-insensitively.
func IsNetlistFile(path string) bool {
	return netlistExtensions[strings.ToLower(filepath.Ext(path))]
}
