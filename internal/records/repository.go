package records

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yutonagata/shipsnap-backend/pkg/db/models"
	"github.com/yutonagata/shipsnap-backend/pkg/enums"
)

// RecordRepository defines persistence operations for shipping records.
type RecordRepository interface {
	CreateRecord(context.Context, *models.ShippingRecord) (*models.ShippingRecord, error)
	FindByID(context.Context, uuid.UUID) (*models.ShippingRecord, error)
	UpdateRecord(context.Context, *models.ShippingRecord) (*models.ShippingRecord, error)
	DeleteRecord(context.Context, uuid.UUID) error
	ListRecords(context.Context) ([]models.ShippingRecord, error)
	ListByDateRange(ctx context.Context, from, to string) ([]models.ShippingRecord, error)
	SetSyncState(ctx context.Context, id uuid.UUID, status enums.SyncStatus, syncError *string) error
	SetImageRemote(ctx context.Context, imageID uuid.UUID, remoteURL, storagePath string) error
	ListByStatus(context.Context, enums.SyncStatus) ([]models.ShippingRecord, error)
}

// Repository wires together shipping record persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateRecord persists the record together with its image rows.
func (r *Repository) CreateRecord(ctx context.Context, record *models.ShippingRecord) (*models.ShippingRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindByID loads the record with its images ordered by position.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingRecord, error) {
	var record models.ShippingRecord
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateRecord saves the mutable columns of an existing record.
func (r *Repository) UpdateRecord(ctx context.Context, record *models.ShippingRecord) (*models.ShippingRecord, error) {
	err := r.db.WithContext(ctx).
		Model(&models.ShippingRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"ship_date":       record.ShipDate,
			"tracking_number": record.TrackingNumber,
			"note":            record.Note,
		}).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, record.ID)
}

// DeleteRecord removes the record; image rows cascade with it.
func (r *Repository) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("record_id = ?", id).
		Delete(&models.RecordImage{})
	if result.Error != nil {
		return result.Error
	}
	result = r.db.WithContext(ctx).Delete(&models.ShippingRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListRecords returns every record, newest ship date first, ties broken by
// creation time.
func (r *Repository) ListRecords(ctx context.Context) ([]models.ShippingRecord, error) {
	var out []models.ShippingRecord
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("ship_date DESC").
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByDateRange returns records whose ship date falls in the inclusive
// range. Empty bounds are open-ended.
func (r *Repository) ListByDateRange(ctx context.Context, from, to string) ([]models.ShippingRecord, error) {
	query := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("ship_date DESC").
		Order("created_at DESC")
	if from != "" {
		query = query.Where("ship_date >= ?", from)
	}
	if to != "" {
		query = query.Where("ship_date <= ?", to)
	}
	var out []models.ShippingRecord
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SetSyncState transitions the sync columns without touching user data.
func (r *Repository) SetSyncState(ctx context.Context, id uuid.UUID, status enums.SyncStatus, syncError *string) error {
	result := r.db.WithContext(ctx).
		Model(&models.ShippingRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_status": status,
			"sync_error":  syncError,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetImageRemote records the uploaded location of one image. The local
// payload stays in place; the device remains the source of truth.
func (r *Repository) SetImageRemote(ctx context.Context, imageID uuid.UUID, remoteURL, storagePath string) error {
	result := r.db.WithContext(ctx).
		Model(&models.RecordImage{}).
		Where("id = ?", imageID).
		Updates(map[string]any{
			"remote_url":   remoteURL,
			"storage_path": storagePath,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByStatus returns records in the given sync status, oldest first, so
// retries drain the backlog in order.
func (r *Repository) ListByStatus(ctx context.Context, status enums.SyncStatus) ([]models.ShippingRecord, error) {
	var out []models.ShippingRecord
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("sync_status = ?", status).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindImage loads one image row with its payload.
func (r *Repository) FindImage(ctx context.Context, imageID uuid.UUID) (*models.RecordImage, error) {
	var image models.RecordImage
	if err := r.db.WithContext(ctx).First(&image, "id = ?", imageID).Error; err != nil {
		return nil, err
	}
	return &image, nil
}
