package customers

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sajidhasan/fieldorder/pkg/db/models"
)

// Repository exposes customer-cache persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a customer repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListAll returns every cached row; the table stays small enough to scan.
func (r *Repository) ListAll(ctx context.Context) ([]models.CustomerRecord, error) {
	var rows []models.CustomerRecord
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertMany writes rows with insert-or-replace semantics on the natural
// key (zid, xcus).
func (r *Repository) UpsertMany(ctx context.Context, rows []models.CustomerRecord) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
}

// Search matches the offline picker query against code and organization
// name within one business unit.
func (r *Repository) Search(ctx context.Context, businessUnit int, query string, limit int) ([]models.CustomerRecord, error) {
	pattern := "%" + query + "%"
	var rows []models.CustomerRecord
	err := r.db.WithContext(ctx).
		Where("zid = ? AND (xcus LIKE ? OR xorg LIKE ?)", businessUnit, pattern, pattern).
		Order("xcus").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Count reports the number of cached rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CustomerRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
