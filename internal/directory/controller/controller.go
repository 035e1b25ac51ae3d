// Package controller implements the directory service layer, reading records
// through a repository, running the browse pipeline for server-side views and
// publishing lookup events.
package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gartstein/directory/internal/directory/browse"
	e "github.com/gartstein/directory/internal/directory/errors"
	"github.com/gartstein/directory/internal/directory/events"
	"github.com/gartstein/directory/internal/directory/models"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(event events.Event)
}

// Repository defines the read-only storage interface for companies. Both the
// file store and the SQL repository satisfy it.
type Repository interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	GetCompany(ctx context.Context, id int64) (*models.Company, error)
	Close() error
}

// DirectoryService serves company records. Store failures degrade to empty
// results and are logged; they never fail a request.
type DirectoryService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
}

// NewDirectoryService constructs a DirectoryService. A nil producer disables
// lookup events.
func NewDirectoryService(repo Repository, producer EventProducer, logger *zap.Logger) *DirectoryService {
	if producer == nil {
		producer = events.NopProducer{}
	}
	return &DirectoryService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("directory_service"),
	}
}

// ListCompanies returns the whole collection in store order. An unavailable
// store yields an empty collection.
func (s *DirectoryService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	companies, err := s.repo.ListCompanies(ctx)
	if err != nil {
		if errors.Is(err, e.ErrStoreUnavailable) {
			s.logger.Error("store unavailable, serving empty collection", zap.Error(err))
			return []models.Company{}, nil
		}
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// GetCompany returns the first company with id, or ErrNotFound.
func (s *DirectoryService) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrStoreUnavailable) {
			s.logger.Error("store unavailable during lookup",
				zap.Error(err),
				zap.Int64("company_id", id),
			)
		}
		if errors.Is(err, e.ErrNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	s.producer.Produce(events.NewCompanyViewed(company))
	return company, nil
}

// Browse runs the filter and pagination pipeline over the current collection.
func (s *DirectoryService) Browse(ctx context.Context, state browse.FilterState) (browse.View, error) {
	companies, err := s.ListCompanies(ctx)
	if err != nil {
		return browse.View{}, err
	}
	return browse.Derive(companies, state), nil
}
