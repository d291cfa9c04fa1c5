package records

import (
	"time"

	"github.com/google/uuid"

	"github.com/yutonagata/shipsnap-backend/pkg/db/models"
	"github.com/yutonagata/shipsnap-backend/pkg/enums"
)

// RecordDTO exposes a shipping record in API responses. Image payload bytes
// are never embedded; clients fetch them through the image endpoint.
type RecordDTO struct {
	ID             uuid.UUID        `json:"id"`
	CreatedAt      time.Time        `json:"created_at"`
	ShipDate       string           `json:"ship_date"`
	TrackingNumber string           `json:"tracking_number"`
	Note           string           `json:"note,omitempty"`
	SyncStatus     enums.SyncStatus `json:"sync_status"`
	SyncError      *string          `json:"sync_error,omitempty"`
	Images         []RecordImageDTO `json:"images"`
}

// RecordImageDTO describes one attachment without its binary payload.
type RecordImageDTO struct {
	ID          uuid.UUID `json:"id"`
	Position    int       `json:"position"`
	FileName    string    `json:"file_name"`
	MimeType    string    `json:"mime_type"`
	HasPayload  bool      `json:"has_payload"`
	PreviewData *string   `json:"preview_data,omitempty"`
	RemoteURL   *string   `json:"remote_url,omitempty"`
	StoragePath *string   `json:"storage_path,omitempty"`
}

// NewImageDTO holds creation-time data for one attachment.
type NewImageDTO struct {
	FileName    string
	MimeType    string
	Payload     []byte
	PreviewData *string
	RemoteURL   *string
	StoragePath *string
}

// CreateRecordDTO holds creation-time data for a new record. The store mints
// the id and stamps created_at; neither is accepted from the caller.
type CreateRecordDTO struct {
	ShipDate       string
	TrackingNumber string
	Note           string
	SyncStatus     *enums.SyncStatus
	Images         []NewImageDTO
}

// UpdateRecordInput captures the user-mutable fields. Sync fields are owned by
// the sync coordinator and move through the repository's sync methods instead.
type UpdateRecordInput struct {
	ShipDate       *string
	TrackingNumber *string
	Note           *string
}

// SearchFilter narrows List output. The tracking query matches when the
// record's number, with hyphens and whitespace stripped, contains the stripped
// query as a substring. Date bounds are inclusive.
type SearchFilter struct {
	TrackingNumberQuery string
	DateFrom            string
	DateTo              string
}

func (f SearchFilter) IsZero() bool {
	return f.TrackingNumberQuery == "" && f.DateFrom == "" && f.DateTo == ""
}

// FromModel maps the persisted record into a DTO.
func FromModel(m *models.ShippingRecord) *RecordDTO {
	if m == nil {
		return nil
	}

	dto := &RecordDTO{
		ID:             m.ID,
		CreatedAt:      m.CreatedAt,
		ShipDate:       m.ShipDate,
		TrackingNumber: m.TrackingNumber,
		Note:           m.Note,
		SyncStatus:     m.SyncStatus,
		SyncError:      cloneStringPtr(m.SyncError),
		Images:         make([]RecordImageDTO, 0, len(m.Images)),
	}

	for _, img := range m.Images {
		dto.Images = append(dto.Images, RecordImageDTO{
			ID:          img.ID,
			Position:    img.Position,
			FileName:    img.FileName,
			MimeType:    img.MimeType,
			HasPayload:  len(img.Payload) > 0,
			PreviewData: cloneStringPtr(img.PreviewData),
			RemoteURL:   cloneStringPtr(img.RemoteURL),
			StoragePath: cloneStringPtr(img.StoragePath),
		})
	}

	return dto
}

// ToModel prepares the GORM model from the creation DTO, supplying defaults.
func (c CreateRecordDTO) ToModel(now time.Time) *models.ShippingRecord {
	model := &models.ShippingRecord{
		ID:             uuid.New(),
		CreatedAt:      now,
		ShipDate:       c.ShipDate,
		TrackingNumber: c.TrackingNumber,
		Note:           c.Note,
		SyncStatus:     enums.SyncStatusPending,
	}

	if c.SyncStatus != nil {
		model.SyncStatus = *c.SyncStatus
	}

	for i, img := range c.Images {
		model.Images = append(model.Images, models.RecordImage{
			ID:          uuid.New(),
			RecordID:    model.ID,
			Position:    i,
			FileName:    img.FileName,
			MimeType:    img.MimeType,
			Payload:     img.Payload,
			PreviewData: cloneStringPtr(img.PreviewData),
			RemoteURL:   cloneStringPtr(img.RemoteURL),
			StoragePath: cloneStringPtr(img.StoragePath),
			CreatedAt:   now,
		})
	}

	return model
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}
