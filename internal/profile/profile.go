// Package profile persists the company profile form as a single JSON blob
// under a fixed key.
package profile

import (
	"context"
	"encoding/json"
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Key is the fixed key the profile is stored under.
const Key = "companyData"

// CompanyData is the company profile form.
type CompanyData struct {
	CompanyName   string   `json:"companyName"`
	Industry      string   `json:"industry,omitempty"`
	Website       string   `json:"website,omitempty"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Location      string   `json:"location,omitempty"`
	Description   string   `json:"description,omitempty"`
	EmployeeCount int      `json:"employeeCount,omitempty"`
	FoundedYear   int      `json:"foundedYear,omitempty"`
	HiringRoles   []string `json:"hiringRoles,omitempty"`
}

// Store reads and writes the profile.
type Store interface {
	// Get returns the stored profile, or nil if none is stored or the stored
	// content cannot be parsed.
	Get(ctx context.Context) (*CompanyData, error)

	// Save serializes d and overwrites any stored profile.
	Save(ctx context.Context, d *CompanyData) error

	// Clear removes the stored profile. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	Close() error
}

// Backends accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns a store for the given backend. For the file backend path is a
// directory; for sqlite it is the database file.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown profile backend %q", backend)
	}
}

// decode parses a stored blob. Malformed content is treated as absent, and a
// stored JSON null decodes to nil.
func decode(data []byte, source string) *CompanyData {
	var d *CompanyData
	if err := json.Unmarshal(data, &d); err != nil {
		logrus.WithError(err).WithField("source", source).Warn("discarding malformed profile")
		return nil
	}
	return d
}

func encode(d *CompanyData) ([]byte, error) {
	if d == nil {
		return nil, pkgerrors.New("profile is nil")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "marshal profile")
	}
	return data, nil
}
