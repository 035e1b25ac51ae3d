package db

import (
	"context"
	"errors"
	"fmt"

	dbmodels "github.com/gartstein/directory/internal/directory/db/models"
	e "github.com/gartstein/directory/internal/directory/errors"
	"github.com/gartstein/directory/internal/directory/models"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Repository struct {
	db       *gorm.DB
	validate *validator.Validate
	logger   *zap.Logger
}

type Config struct {
	Driver     string
	SQLitePath string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
}

// ImportResult summarises a ReplaceCompanies run.
type ImportResult struct {
	Imported   int
	Duplicates []int64
	Invalid    []int64
}

func NewRepository(cfg *Config, log *zap.Logger) (*Repository, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", e.ErrInvalidInput, cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newRepository(db, log)
}

func newRepository(db *gorm.DB, log *zap.Logger) (*Repository, error) {
	if err := db.AutoMigrate(&dbmodels.Company{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Repository{
		db:       db,
		validate: validator.New(),
		logger:   log.Named("repository"),
	}, nil
}

// ListCompanies returns every record in seed order. Query failures are
// reported as ErrStoreUnavailable with an empty slice, like the file store.
func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var rows []dbmodels.Company
	result := r.db.WithContext(ctx).Order("ordinal asc").Order("id asc").Find(&rows)
	if result.Error != nil {
		return []models.Company{}, fmt.Errorf("%w: %v", e.ErrStoreUnavailable, result.Error)
	}

	companies := make([]models.Company, 0, len(rows))
	for i := range rows {
		companies = append(companies, toDomain(&rows[i]))
	}
	return companies, nil
}

func (r *Repository) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	var row dbmodels.Company
	result := r.db.WithContext(ctx).First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", e.ErrNotFound, fmt.Errorf("%w: %v", e.ErrStoreUnavailable, result.Error))
	}
	company := toDomain(&row)
	return &company, nil
}

// ReplaceCompanies swaps the stored collection for companies in a single
// transaction. Records failing validation are skipped; for duplicate IDs the
// first occurrence is kept.
func (r *Repository) ReplaceCompanies(ctx context.Context, companies []models.Company) (*ImportResult, error) {
	res := &ImportResult{}
	seen := make(map[int64]struct{}, len(companies))
	rows := make([]dbmodels.Company, 0, len(companies))

	for i := range companies {
		c := companies[i]
		if err := r.validate.StructCtx(ctx, c); err != nil {
			r.logger.Warn("skipping invalid company",
				zap.Int64("company_id", c.ID),
				zap.Error(err),
			)
			res.Invalid = append(res.Invalid, c.ID)
			continue
		}
		if _, dup := seen[c.ID]; dup {
			r.logger.Warn("skipping duplicate company id, keeping first occurrence",
				zap.Int64("company_id", c.ID),
				zap.String("name", c.Name),
			)
			res.Duplicates = append(res.Duplicates, c.ID)
			continue
		}
		seen[c.ID] = struct{}{}
		rows = append(rows, fromDomain(&c, i))
	}

	err := r.WithTransaction(ctx, func(repo *Repository) error {
		if err := repo.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&dbmodels.Company{}).Error; err != nil {
			return fmt.Errorf("clear companies: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := repo.db.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("insert companies: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Imported = len(rows)
	return res, nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, validate: r.validate, logger: r.logger})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func toDomain(row *dbmodels.Company) models.Company {
	return models.Company{
		ID:       row.ID,
		Name:     row.Name,
		Industry: row.Industry,
		Location: row.Location,
		Size:     models.Size{Value: row.Size, Numeric: row.SizeNumeric},
		Rating:   row.Rating,
	}
}

func fromDomain(c *models.Company, ordinal int) dbmodels.Company {
	return dbmodels.Company{
		ID:          c.ID,
		Ordinal:     ordinal,
		Name:        c.Name,
		Industry:    c.Industry,
		Location:    c.Location,
		Size:        c.Size.Value,
		SizeNumeric: c.Size.Numeric,
		Rating:      c.Rating,
	}
}
