// Package store implements the file-backed record store. The backing JSON
// file is read and parsed on every call, so edits to the file show up without
// a restart.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	e "github.com/gartstein/directory/internal/directory/errors"
	"github.com/gartstein/directory/internal/directory/models"
	"go.uber.org/zap"
)

// FileStore serves companies from a JSON file shaped {"companies": [...]}.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore returns a store over the file at path. The file does not
// need to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, logger: zap.NewNop()}
}

// WithLogger sets the logger that reports skipped records.
func (s *FileStore) WithLogger(logger *zap.Logger) *FileStore {
	s.logger = logger.Named("file_store")
	return s
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// ListCompanies returns every record in file order. When the file is missing,
// unreadable or malformed it returns an empty, non-nil slice together with an
// error wrapping ErrStoreUnavailable. A single record that cannot be decoded
// is skipped and logged; the rest are still served.
func (s *FileStore) ListCompanies(ctx context.Context) ([]models.Company, error) {
	if err := ctx.Err(); err != nil {
		return []models.Company{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return []models.Company{}, fmt.Errorf("%w: read %s: %v", e.ErrStoreUnavailable, s.path, err)
	}

	var collection struct {
		Companies []json.RawMessage `json:"companies"`
	}
	if err := json.Unmarshal(data, &collection); err != nil {
		return []models.Company{}, fmt.Errorf("%w: parse %s: %v", e.ErrStoreUnavailable, s.path, err)
	}

	companies := make([]models.Company, 0, len(collection.Companies))
	for i, raw := range collection.Companies {
		var c models.Company
		if err := json.Unmarshal(raw, &c); err != nil {
			s.logger.Warn("skipping unreadable record",
				zap.String("path", s.path),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		companies = append(companies, c)
	}
	return companies, nil
}

// GetCompany returns the first record whose ID matches. An unavailable store
// is reported as ErrNotFound joined with the underlying ErrStoreUnavailable.
func (s *FileStore) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	companies, err := s.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", e.ErrNotFound, err)
	}
	if c := FindByID(companies, id); c != nil {
		return c, nil
	}
	return nil, e.ErrNotFound
}

// FindByID scans companies for the first record with the given ID.
func FindByID(companies []models.Company, id int64) *models.Company {
	for i := range companies {
		if companies[i].ID == id {
			c := companies[i]
			return &c
		}
	}
	return nil
}

// Close is a no-op; the file is opened per call.
func (s *FileStore) Close() error {
	return nil
}
