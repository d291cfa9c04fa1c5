package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/yutonagata/shipsnap-backend/pkg/enums"
)

// ShippingRecord is the central entity: one photographed receipt with its
// tracking number, ship date and sync state. IDs are minted by the store, never
// by the caller, and created_at is stamped exactly once.
type ShippingRecord struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CreatedAt      time.Time        `gorm:"column:created_at;not null;index"`
	ShipDate       string           `gorm:"column:ship_date;type:varchar(10);not null;index"`
	TrackingNumber string           `gorm:"column:tracking_number;not null;index"`
	Note           string           `gorm:"column:note;not null;default:''"`
	SyncStatus     enums.SyncStatus `gorm:"column:sync_status;not null;default:pending"`
	SyncError      *string          `gorm:"column:sync_error"`
	Images         []RecordImage    `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
}

func (ShippingRecord) TableName() string {
	return "shipping_records"
}

// RecordImage is one image attachment. The local payload/preview is always
// present right after creation; remote_url and storage_path appear only once
// the image has synced.
type RecordImage struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RecordID    uuid.UUID `gorm:"column:record_id;type:uuid;not null;index"`
	Position    int       `gorm:"column:position;not null;default:0"`
	FileName    string    `gorm:"column:file_name;not null"`
	MimeType    string    `gorm:"column:mime_type;not null"`
	Payload     []byte    `gorm:"column:payload"`
	PreviewData *string   `gorm:"column:preview_data"`
	RemoteURL   *string   `gorm:"column:remote_url"`
	StoragePath *string   `gorm:"column:storage_path"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RecordImage) TableName() string {
	return "record_images"
}

// Displayable reports whether the image can be rendered at all: either a local
// payload/preview or a resolvable remote URL. A record must keep at least one
// displayable image, never neither.
func (i RecordImage) Displayable() bool {
	if len(i.Payload) > 0 {
		return true
	}
	if i.PreviewData != nil && *i.PreviewData != "" {
		return true
	}
	return i.RemoteURL != nil && *i.RemoteURL != ""
}
