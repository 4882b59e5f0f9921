package object_store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/turbot/basic-cleaning/config"
)

func init() {
	// register store
	Factory.RegisterStores(NewFileSystemStore)
}

const FileSystemStoreIdentifier = "file_system"

// FileSystemStoreConfig is the configuration for a [FileSystemStore]
type FileSystemStoreConfig struct {
	Root string `hcl:"root"`
}

// FileSystemStore is a [Store] implementation that keeps objects in a local directory
type FileSystemStore struct {
	Config FileSystemStoreConfig
	root   string
}

func NewFileSystemStore() Store {
	return &FileSystemStore{}
}

func (s *FileSystemStore) Init(_ context.Context, configData *config.Data) error {
	c, err := config.ParseConfig[FileSystemStoreConfig](configData)
	if err != nil {
		return err
	}
	s.Config = c

	if s.Config.Root == "" {
		return errors.New("root is required")
	}
	root, err := homedir.Expand(s.Config.Root)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create store root, %w", err)
	}
	s.root = root

	slog.Info("Initialized FileSystemStore", "root", s.root)
	return nil
}

func (s *FileSystemStore) Identifier() string {
	return FileSystemStoreIdentifier
}

func (s *FileSystemStore) Close() error {
	return nil
}

func (s *FileSystemStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.localPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return f, err
}

func (s *FileSystemStore) Put(_ context.Context, key string, r io.Reader, _ int64) (err error) {
	path, err := s.localPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for file, %w", err)
	}

	// write to a temp file and rename, so a partially written object is never visible
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return fmt.Errorf("failed to create file, %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data to file, %w", err)
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileSystemStore) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.localPath(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *FileSystemStore) List(_ context.Context, prefix string) ([]string, error) {
	// walk from the deepest directory contained in the prefix
	dir := s.root
	if idx := strings.LastIndex(prefix, "/"); idx != -1 {
		dir = filepath.Join(s.root, filepath.FromSlash(prefix[:idx]))
	}

	var keys []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		// skip directories and in-progress writes
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileSystemStore) localPath(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid key '%s'", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." || part == "" {
			return "", fmt.Errorf("invalid key '%s'", key)
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}
