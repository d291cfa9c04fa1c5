package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yutonagata/shipsnap-backend/pkg/config"
	"github.com/yutonagata/shipsnap-backend/pkg/db"
	"github.com/yutonagata/shipsnap-backend/pkg/db/models"
	pkgerrors "github.com/yutonagata/shipsnap-backend/pkg/errors"
)

// ShipDateLayout is the canonical ship date format.
const ShipDateLayout = "2006-01-02"

// Date range presets accepted by Search.
const (
	PresetToday     = "today"
	PresetThisWeek  = "this-week"
	PresetThisMonth = "this-month"
)

// Service exposes shipping record management operations.
type Service interface {
	CreateRecord(ctx context.Context, input CreateRecordDTO) (*RecordDTO, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*RecordDTO, error)
	UpdateRecord(ctx context.Context, id uuid.UUID, input UpdateRecordInput) (*RecordDTO, error)
	DeleteRecord(ctx context.Context, id uuid.UUID) (*RecordDTO, error)
	ListRecords(ctx context.Context) ([]RecordDTO, error)
	SearchRecords(ctx context.Context, filter SearchFilter) ([]RecordDTO, error)
	GetImage(ctx context.Context, imageID uuid.UUID) (*ImagePayloadDTO, error)
}

// ImagePayloadDTO carries the raw image bytes for download endpoints.
type ImagePayloadDTO struct {
	FileName string
	MimeType string
	Payload  []byte
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	media    config.MediaConfig
}

// NewService constructs a record service instance.
func NewService(repo *Repository, dbClient *db.Client, media config.MediaConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("record repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient, media: media}, nil
}

// CreateRecord persists a new record. The id and created_at are minted here
// and never accepted from the caller.
func (s *service) CreateRecord(ctx context.Context, input CreateRecordDTO) (*RecordDTO, error) {
	if err := validateShipDate(input.ShipDate); err != nil {
		return nil, err
	}
	if len(input.Images) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
	}
	if s.media.MaxImages > 0 && len(input.Images) > s.media.MaxImages {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("a record holds at most %d images", s.media.MaxImages))
	}
	for i, img := range input.Images {
		if len(img.Payload) == 0 && derefEmpty(img.PreviewData) && derefEmpty(img.RemoteURL) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("image %d has no displayable data", i))
		}
	}

	model := input.ToModel(time.Now().UTC())
	created, err := s.repo.CreateRecord(ctx, model)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConstraint, err, "record conflicts with existing data")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create record")
	}
	return FromModel(created), nil
}

// GetRecord returns one record by id.
func (s *service) GetRecord(ctx context.Context, id uuid.UUID) (*RecordDTO, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load record")
	}
	return FromModel(record), nil
}

// UpdateRecord applies a partial update to user-mutable fields. The id and
// created_at are immutable; sync state moves only through the sync paths.
func (s *service) UpdateRecord(ctx context.Context, id uuid.UUID, input UpdateRecordInput) (*RecordDTO, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load record")
	}

	if input.ShipDate != nil {
		if err := validateShipDate(*input.ShipDate); err != nil {
			return nil, err
		}
		record.ShipDate = *input.ShipDate
	}
	if input.TrackingNumber != nil {
		if strings.TrimSpace(*input.TrackingNumber) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking_number cannot be empty")
		}
		record.TrackingNumber = *input.TrackingNumber
	}
	if input.Note != nil {
		record.Note = *input.Note
	}

	updated, err := s.repo.UpdateRecord(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update record")
	}
	return FromModel(updated), nil
}

// DeleteRecord removes the record and returns its final snapshot so callers
// can release any remote media it referenced.
func (s *service) DeleteRecord(ctx context.Context, id uuid.UUID) (*RecordDTO, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load record")
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteRecord(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete record")
	}
	return FromModel(record), nil
}

// ListRecords returns every record in display order.
func (s *service) ListRecords(ctx context.Context) ([]RecordDTO, error) {
	rows, err := s.repo.ListRecords(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list records")
	}
	return toDTOs(rows), nil
}

// SearchRecords filters by normalized tracking number substring and an
// inclusive ship date range. Presets resolve against the current day.
func (s *service) SearchRecords(ctx context.Context, filter SearchFilter) ([]RecordDTO, error) {
	from, to := filter.DateFrom, filter.DateTo
	for _, bound := range []string{from, to} {
		if bound == "" {
			continue
		}
		if err := validateShipDate(bound); err != nil {
			return nil, err
		}
	}

	rows, err := s.repo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to search records")
	}

	query := NormalizeTracking(filter.TrackingNumberQuery)
	if query == "" {
		return toDTOs(rows), nil
	}

	matched := make([]RecordDTO, 0, len(rows))
	for i := range rows {
		if strings.Contains(NormalizeTracking(rows[i].TrackingNumber), query) {
			matched = append(matched, *FromModel(&rows[i]))
		}
	}
	return matched, nil
}

// GetImage returns the stored bytes for one image.
func (s *service) GetImage(ctx context.Context, imageID uuid.UUID) (*ImagePayloadDTO, error) {
	image, err := s.repo.FindImage(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load image")
	}
	if len(image.Payload) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "image payload no longer stored locally")
	}
	return &ImagePayloadDTO{
		FileName: image.FileName,
		MimeType: image.MimeType,
		Payload:  image.Payload,
	}, nil
}

// ResolvePreset expands a named date preset into an inclusive from/to pair.
// Weeks start on Sunday.
func ResolvePreset(preset string, now time.Time) (string, string, error) {
	day := now.Format(ShipDateLayout)
	switch preset {
	case PresetToday:
		return day, day, nil
	case PresetThisWeek:
		start := now.AddDate(0, 0, -int(now.Weekday()))
		return start.Format(ShipDateLayout), day, nil
	case PresetThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start.Format(ShipDateLayout), day, nil
	default:
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown date preset %q", preset))
	}
}

// NormalizeTracking strips hyphens and whitespace so queries match regardless
// of formatting.
func NormalizeTracking(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r == '-' || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func validateShipDate(value string) error {
	if value == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "ship_date is required")
	}
	if _, err := time.Parse(ShipDateLayout, value); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "ship_date must be formatted YYYY-MM-DD")
	}
	return nil
}

func derefEmpty(value *string) bool {
	return value == nil || *value == ""
}

func toDTOs(rows []models.ShippingRecord) []RecordDTO {
	out := make([]RecordDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
