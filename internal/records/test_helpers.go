package records

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/yutonagata/shipsnap-backend/pkg/config"
	"github.com/yutonagata/shipsnap-backend/pkg/db"
	"github.com/yutonagata/shipsnap-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *db.Client {
	t.Helper()
	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "records_test.db"),
	}
	client, err := db.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.DB().AutoMigrate(&models.ShippingRecord{}, &models.RecordImage{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return client
}

func newTestService(t *testing.T) (Service, *Repository, *db.Client) {
	t.Helper()
	client := openTestDB(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, client, config.MediaConfig{MaxImages: 3, MaxUploadMB: 20})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, client
}

func testImage(name string) NewImageDTO {
	return NewImageDTO{
		FileName: name,
		MimeType: "image/jpeg",
		Payload:  []byte("jpeg-bytes-" + name),
	}
}

func mustCreateRecord(t *testing.T, svc Service, shipDate, tracking string) *RecordDTO {
	t.Helper()
	created, err := svc.CreateRecord(context.Background(), CreateRecordDTO{
		ShipDate:       shipDate,
		TrackingNumber: tracking,
		Images:         []NewImageDTO{testImage(uuid.NewString() + ".jpg")},
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	return created
}
