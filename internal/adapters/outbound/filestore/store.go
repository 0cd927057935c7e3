// Package filestore persists deployments and the transaction journal as JSON
// files under a data directory, one subdirectory per network. It is the
// default backend when no database is configured, so deployments and history
// survive between commands.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	deploymentsFile  = "deployments.json"
	transactionsFile = "transactions.json"
)

// networkPath returns dir/network/name. network becomes a path element, so
// anything that could escape dir is rejected.
func networkPath(dir, network, name string) (string, error) {
	if network == "" || network == "." || network == ".." || network != filepath.Base(network) {
		return "", fmt.Errorf("invalid network name %q", network)
	}
	return filepath.Join(dir, network, name), nil
}

// readRows decodes the JSON array at path. A missing file is an empty array.
func readRows[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return rows, nil
}

// writeRows replaces the file at path through a rename so readers never see
// a partial write.
func writeRows[T any](path string, rows []T) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
