package controller

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gartstein/directory/internal/directory/browse"
	e "github.com/gartstein/directory/internal/directory/errors"
	"github.com/gartstein/directory/internal/directory/events"
	"github.com/gartstein/directory/internal/directory/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// MockRepository implements the Repository interface for testing
type MockRepository struct {
	listCompanies func(context.Context) ([]models.Company, error)
	getCompany    func(context.Context, int64) (*models.Company, error)
}

func (m *MockRepository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return m.listCompanies(ctx)
}

func (m *MockRepository) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	return m.getCompany(ctx, id)
}

func (m *MockRepository) Close() error {
	return nil
}

// MockProducer is a test double for the Kafka producer.
type MockProducer struct {
	producedEvents []events.Event
}

func (m *MockProducer) Produce(event events.Event) {
	m.producedEvents = append(m.producedEvents, event)
}

func sample() []models.Company {
	return []models.Company{
		{ID: 1, Name: "Northwind Analytics", Industry: "Technology", Location: "Bengaluru"},
		{ID: 2, Name: "Bluepeak Capital", Industry: "Finance", Location: "Mumbai"},
		{ID: 6, Name: "Quanta Softworks", Industry: "Technology", Location: "Pune"},
	}
}

func TestDirectoryService_ListCompanies(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(*MockRepository)
		expectError bool
		expectLen   int
		expectLog   string
	}{
		{
			name: "returns collection",
			mockSetup: func(mr *MockRepository) {
				mr.listCompanies = func(context.Context) ([]models.Company, error) { return sample(), nil }
			},
			expectLen: 3,
		},
		{
			name: "store unavailable degrades to empty",
			mockSetup: func(mr *MockRepository) {
				mr.listCompanies = func(context.Context) ([]models.Company, error) {
					return []models.Company{}, fmt.Errorf("%w: read db.json: no such file", e.ErrStoreUnavailable)
				}
			},
			expectLen: 0,
			expectLog: "store unavailable, serving empty collection",
		},
		{
			name: "other errors propagate",
			mockSetup: func(mr *MockRepository) {
				mr.listCompanies = func(context.Context) ([]models.Company, error) { return nil, context.Canceled }
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zap.ErrorLevel)
			mockRepo := &MockRepository{}
			tt.mockSetup(mockRepo)
			service := NewDirectoryService(mockRepo, &MockProducer{}, zap.New(core))

			result, err := service.ListCompanies(context.Background())

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result == nil {
				t.Fatal("expected non-nil collection")
			}
			if len(result) != tt.expectLen {
				t.Errorf("expected %d companies, got %d", tt.expectLen, len(result))
			}
			if tt.expectLog != "" && recorded.FilterMessage(tt.expectLog).Len() != 1 {
				t.Errorf("expected log %q", tt.expectLog)
			}
		})
	}
}

func TestDirectoryService_GetCompany(t *testing.T) {
	tests := []struct {
		name          string
		input         int64
		mockSetup     func(*MockRepository)
		expectError   bool
		expectedError error
		expectEvents  int
	}{
		{
			name:  "found",
			input: 2,
			mockSetup: func(mr *MockRepository) {
				mr.getCompany = func(_ context.Context, id int64) (*models.Company, error) {
					return &models.Company{ID: id, Name: "Bluepeak Capital"}, nil
				}
			},
			expectEvents: 1,
		},
		{
			name:  "not found",
			input: 999,
			mockSetup: func(mr *MockRepository) {
				mr.getCompany = func(context.Context, int64) (*models.Company, error) { return nil, e.ErrNotFound }
			},
			expectError:   true,
			expectedError: e.ErrNotFound,
		},
		{
			name:  "store unavailable is not found",
			input: 1,
			mockSetup: func(mr *MockRepository) {
				mr.getCompany = func(context.Context, int64) (*models.Company, error) {
					return nil, fmt.Errorf("%w: %w", e.ErrNotFound, e.ErrStoreUnavailable)
				}
			},
			expectError:   true,
			expectedError: e.ErrNotFound,
		},
		{
			name:  "repository error",
			input: 1,
			mockSetup: func(mr *MockRepository) {
				mr.getCompany = func(context.Context, int64) (*models.Company, error) {
					return nil, errors.New("database error")
				}
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			mockProducer := &MockProducer{}
			tt.mockSetup(mockRepo)
			service := NewDirectoryService(mockRepo, mockProducer, zaptest.NewLogger(t))

			result, err := service.GetCompany(context.Background(), tt.input)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if tt.expectedError != nil && !errors.Is(err, tt.expectedError) {
					t.Errorf("expected error %v, got %v", tt.expectedError, err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if result.ID != tt.input {
					t.Errorf("expected company %d, got %d", tt.input, result.ID)
				}
			}
			if len(mockProducer.producedEvents) != tt.expectEvents {
				t.Errorf("expected %d events, got %d", tt.expectEvents, len(mockProducer.producedEvents))
			}
			for _, ev := range mockProducer.producedEvents {
				if ev.Type != events.CompanyViewed {
					t.Errorf("unexpected event type %q", ev.Type)
				}
			}
		})
	}
}

func TestDirectoryService_Browse(t *testing.T) {
	mockRepo := &MockRepository{
		listCompanies: func(context.Context) ([]models.Company, error) { return sample(), nil },
	}
	service := NewDirectoryService(mockRepo, nil, zaptest.NewLogger(t))

	view, err := service.Browse(context.Background(), browse.NewFilterState().WithQuery("tech"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Total != 2 {
		t.Errorf("expected 2 results, got %d", view.Total)
	}
	if len(view.Facets.Industries) != 3 {
		t.Errorf("expected facets from full collection, got %v", view.Facets.Industries)
	}
}

func TestDirectoryService_BrowseEmptyStore(t *testing.T) {
	mockRepo := &MockRepository{
		listCompanies: func(context.Context) ([]models.Company, error) {
			return []models.Company{}, e.ErrStoreUnavailable
		},
	}
	service := NewDirectoryService(mockRepo, nil, zaptest.NewLogger(t))

	view, err := service.Browse(context.Background(), browse.NewFilterState())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.TotalPages != 1 || view.Total != 0 || len(view.Items) != 0 {
		t.Errorf("unexpected view for empty store: %+v", view)
	}
}
