// Package store persists graphs as JSON documents on the local filesystem.
package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gyaneshwarpardhi/moviegraph/internal/graph"
)

// Save writes g to path. The document is written to a temporary file in the
// same directory and renamed into place, so readers never see a partial file.
func Save(path string, g *graph.Graph) error {
	data, err := g.Serialize()
	if err != nil {
		return fmt.Errorf("store: serialize: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("store: chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("store: rename to %s: %w", path, err)
	}
	slog.Info("graph saved", "path", path, "nodes", g.NodeCount(), "edges", g.EdgeCount(), "bytes", len(data))
	return nil
}

// Load reads the document at path into a new graph. A document that does not
// describe a valid graph yields an error wrapping graph.ErrMalformedGraph.
func Load(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	g, err := graph.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", path, err)
	}
	slog.Info("graph loaded", "path", path, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, nil
}
