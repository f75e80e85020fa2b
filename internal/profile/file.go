package profile

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
)

var _ Store = &FileStore{}

// FileStore keeps the profile at <dir>/companyData.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the file holding the profile.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, Key+".json")
}

func (s *FileStore) Get(_ context.Context) (*CompanyData, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, pkgerrors.Wrapf(err, "read %s", s.Path())
	}
	return decode(data, s.Path()), nil
}

func (s *FileStore) Save(_ context.Context, d *CompanyData) error {
	data, err := encode(d)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return pkgerrors.Wrapf(err, "create %s", s.dir)
	}

	// Written to a temp file and renamed into place.
	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return pkgerrors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return pkgerrors.Wrapf(err, "rename %s", tmp)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return pkgerrors.Wrapf(err, "remove %s", s.Path())
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
