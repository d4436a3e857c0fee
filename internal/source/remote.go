// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// FetchRemote downloads every object under a "gs://bucket/prefix" URI into
// localCacheDir, preserving the object's base name, and returns the
// resulting local paths filtered to recognized netlist files. Objects are
// downloaded unconditionally; callers that want to avoid re-downloading
// unchanged objects should compare against cache.CorpusHash-style
// bookkeeping themselves (see internal/cache).
func FetchRemote(ctx context.Context, gsURI string, localCacheDir string) ([]string, error) {
	bucket, prefix, err := parseGSURI(gsURI)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	defer client.Close()

	if err := os.MkdirAll(localCacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating local cache dir %s: %w", localCacheDir, err)
	}

	var localPaths []string
	it := client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing gs://%s/%s: %w", bucket, prefix, err)
		}

		if !IsNetlistFile(attrs.Name) {
			continue
		}

		localPath := filepath.Join(localCacheDir, filepath.Base(attrs.Name))
		if err := downloadObject(ctx, client, bucket, attrs.Name, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}

func downloadObject(ctx context.Context, client *storage.Client, bucket, object, localPath string) error {
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("opening gs://%s/%s: %w", bucket, object, err)
	}
	defer r.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("creating local file %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("downloading gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

func parseGSURI(uri string) (bucket, prefix string, err error) {
	rest := strings.TrimPrefix(uri, "gs://")
	if rest == uri {
		return "", "", fmt.Errorf("not a gs:// uri: %s", uri)
	}
	parts := strings.SplitN(rest, "/", 2)
	bucket = parts[0]
	if bucket == "" {
		return "", "", fmt.Errorf("gs:// uri missing bucket name: %s", uri)
	}
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return bucket, prefix, nil
}
