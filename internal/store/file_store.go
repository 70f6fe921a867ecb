package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileBlobStore keeps one file per key under basePath. Keys are hex encoded
// into file names, so any key is safe to use.
type FileBlobStore struct {
	basePath string
}

func NewFileBlobStore(basePath string) (*FileBlobStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &FileBlobStore{basePath: basePath}, nil
}

func (s *FileBlobStore) Get(ctx context.Context, key string) (string, bool, error) {
	filePath, err := s.pathFor(key)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read blob file: %w", err)
	}
	return string(data), true, nil
}

// Put writes to a temp file and renames it over the target so a crash never
// leaves a half-written blob.
func (s *FileBlobStore) Put(ctx context.Context, key, value string) error {
	filePath, err := s.pathFor(key)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(s.basePath, ".blob-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.WriteString(value); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(tmp); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return fmt.Errorf("failed to write blob file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(tmp); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return fmt.Errorf("failed to close blob file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace blob file: %w", err)
	}
	return nil
}

// pathFor maps key to a file under basePath and rejects anything that escapes it.
func (s *FileBlobStore) pathFor(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty blob key")
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, hex.EncodeToString([]byte(key))+".json"))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}
