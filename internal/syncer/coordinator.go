package syncer

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/yutonagata/shipsnap-backend/pkg/config"
	"github.com/yutonagata/shipsnap-backend/pkg/db/models"
	"github.com/yutonagata/shipsnap-backend/pkg/enums"
	pkgerrors "github.com/yutonagata/shipsnap-backend/pkg/errors"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
	"github.com/yutonagata/shipsnap-backend/pkg/metrics"
)

// Sync triggers, used as metric labels and for logging.
const (
	TriggerCreate  = "create"
	TriggerRetry   = "retry"
	TriggerStartup = "startup"
)

// Outcome reports what a sync attempt did.
type Outcome string

const (
	OutcomeSynced  Outcome = "synced"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Uploader is the remote storage surface the coordinator needs.
type Uploader interface {
	Enabled() bool
	Upload(ctx context.Context, object string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, object string) error
}

// RecordSource exposes the persistence operations the coordinator drives.
type RecordSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingRecord, error)
	ListByStatus(ctx context.Context, status enums.SyncStatus) ([]models.ShippingRecord, error)
	SetSyncState(ctx context.Context, id uuid.UUID, status enums.SyncStatus, syncError *string) error
	SetImageRemote(ctx context.Context, imageID uuid.UUID, remoteURL, storagePath string) error
}

// Coordinator uploads record media to remote storage and tracks each record's
// sync lifecycle. Attempts for the same record are serialized; distinct
// records sync concurrently.
type Coordinator struct {
	source  RecordSource
	storage Uploader
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
	prefix  string

	mu    sync.Mutex
	locks map[uuid.UUID]*recordLock
}

// recordLock serializes attempts for one record id. The refcount lets the
// coordinator drop the entry once the last waiter is done, so the lock map
// does not grow for the process lifetime.
type recordLock struct {
	mu   sync.Mutex
	refs int
}

// NewCoordinator constructs a sync coordinator. storage may be a nil GCS
// client, in which case every attempt is reported as skipped.
func NewCoordinator(source RecordSource, storage Uploader, cfg config.GCSConfig, logg *logger.Logger, syncMetrics *metrics.SyncMetrics) (*Coordinator, error) {
	if source == nil {
		return nil, fmt.Errorf("record source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	prefix := cfg.CollectionPrefix
	if prefix == "" {
		prefix = "evidence"
	}
	return &Coordinator{
		source:  source,
		storage: storage,
		logg:    logg,
		metrics: syncMetrics,
		prefix:  prefix,
		locks:   make(map[uuid.UUID]*recordLock),
	}, nil
}

// Enabled reports whether a remote backend is configured.
func (c *Coordinator) Enabled() bool {
	return c.storage != nil && c.storage.Enabled()
}

// SyncRecord uploads every image of the record and marks it synced. Any
// upload failure leaves the record failed with the collected error message;
// no partial success is recorded as synced.
func (c *Coordinator) SyncRecord(ctx context.Context, recordID uuid.UUID, trigger string) (Outcome, error) {
	if !c.Enabled() {
		c.metrics.IncSkipped()
		return OutcomeSkipped, nil
	}

	lock := c.lockRecord(recordID)
	defer c.unlockRecord(recordID, lock)

	start := time.Now()
	outcome, err := c.syncLocked(ctx, recordID, trigger)
	c.metrics.ObserveDuration(trigger, time.Since(start))
	switch outcome {
	case OutcomeSynced:
		c.metrics.IncSuccess(trigger)
	case OutcomeFailed:
		c.metrics.IncFailure(trigger)
	}
	return outcome, err
}

// SyncRecordAsync runs SyncRecord on its own goroutine, detached from the
// request context. Panics are converted into a failed sync state.
func (c *Coordinator) SyncRecordAsync(ctx context.Context, recordID uuid.UUID, trigger string) {
	logg := c.logg
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				msg := fmt.Sprintf("sync panicked: %v", r)
				if err := c.source.SetSyncState(bgCtx, recordID, enums.SyncStatusFailed, &msg); err != nil {
					logg.Error(bgCtx, "failed to record panic outcome", err)
				}
				c.metrics.IncFailure(trigger)
			}
		}()
		logCtx := logg.WithRecordID(bgCtx, recordID.String())
		if _, err := c.SyncRecord(bgCtx, recordID, trigger); err != nil {
			logg.Warn(logCtx, "background sync failed: "+err.Error())
		}
	}()
}

// DrainPending retries every record still pending or failed, oldest first.
// Used at startup and by the bulk retry endpoint.
func (c *Coordinator) DrainPending(ctx context.Context, trigger string) (int, error) {
	if !c.Enabled() {
		c.metrics.IncSkipped()
		return 0, nil
	}

	var backlog []models.ShippingRecord
	for _, status := range []enums.SyncStatus{enums.SyncStatusPending, enums.SyncStatusFailed} {
		rows, err := c.source.ListByStatus(ctx, status)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list sync backlog")
		}
		backlog = append(backlog, rows...)
	}

	synced := 0
	var errs error
	for i := range backlog {
		outcome, err := c.SyncRecord(ctx, backlog[i].ID, trigger)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if outcome == OutcomeSynced {
			synced++
		}
	}
	return synced, errs
}

// ReleaseRemote deletes the uploaded objects of a removed record. Missing
// objects are not errors; local-only images are skipped.
func (c *Coordinator) ReleaseRemote(ctx context.Context, storagePaths []string) error {
	if !c.Enabled() {
		return nil
	}
	var errs error
	for _, object := range storagePaths {
		if object == "" {
			continue
		}
		if err := c.storage.Delete(ctx, object); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "failed to release remote media")
	}
	return nil
}

func (c *Coordinator) syncLocked(ctx context.Context, recordID uuid.UUID, trigger string) (Outcome, error) {
	record, err := c.source.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "record not found")
		}
		return OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load record for sync")
	}
	if record.SyncStatus == enums.SyncStatusSynced {
		return OutcomeSynced, nil
	}

	if err := c.source.SetSyncState(ctx, recordID, enums.SyncStatusUploading, nil); err != nil {
		return OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to mark record uploading")
	}
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"record_id": recordID.String(),
		"trigger":   trigger,
		"images":    len(record.Images),
	})
	c.logg.Info(logCtx, "record sync started")

	type uploaded struct {
		imageID uuid.UUID
		url     string
		object  string
	}
	results := make([]uploaded, 0, len(record.Images))
	var uploadErrs error
	for _, image := range record.Images {
		if image.RemoteURL != nil && *image.RemoteURL != "" {
			continue
		}
		if len(image.Payload) == 0 {
			uploadErrs = multierr.Append(uploadErrs,
				fmt.Errorf("image %s has no local payload to upload", image.ID))
			continue
		}
		object := c.objectName(image)
		url, err := c.storage.Upload(ctx, object, image.Payload, image.MimeType)
		if err != nil {
			uploadErrs = multierr.Append(uploadErrs, fmt.Errorf("upload %s: %w", image.FileName, err))
			continue
		}
		results = append(results, uploaded{imageID: image.ID, url: url, object: object})
	}

	if uploadErrs != nil {
		msg := uploadErrs.Error()
		if stateErr := c.source.SetSyncState(ctx, recordID, enums.SyncStatusFailed, &msg); stateErr != nil {
			c.logg.Error(logCtx, "failed to persist failed sync state", stateErr)
		}
		return OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, uploadErrs, "record sync failed")
	}

	for _, result := range results {
		if err := c.source.SetImageRemote(ctx, result.imageID, result.url, result.object); err != nil {
			msg := err.Error()
			_ = c.source.SetSyncState(ctx, recordID, enums.SyncStatusFailed, &msg)
			return OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to record uploaded location")
		}
	}

	if err := c.source.SetSyncState(ctx, recordID, enums.SyncStatusSynced, nil); err != nil {
		return OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to mark record synced")
	}
	c.logg.Info(logCtx, "record sync completed")
	return OutcomeSynced, nil
}

// objectName builds the storage object key: <prefix>/<epoch-millis>_<token>.<ext>.
func (c *Coordinator) objectName(image models.RecordImage) string {
	ext := strings.TrimPrefix(path.Ext(image.FileName), ".")
	if ext == "" {
		if exts, err := mime.ExtensionsByType(image.MimeType); err == nil && len(exts) > 0 {
			ext = strings.TrimPrefix(exts[0], ".")
		}
	}
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d_%s.%s", c.prefix, time.Now().UnixMilli(), randomToken(), ext)
}

func (c *Coordinator) lockRecord(recordID uuid.UUID) *recordLock {
	c.mu.Lock()
	lock, ok := c.locks[recordID]
	if !ok {
		lock = &recordLock{}
		c.locks[recordID] = lock
	}
	lock.refs++
	c.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (c *Coordinator) unlockRecord(recordID uuid.UUID, lock *recordLock) {
	lock.mu.Unlock()

	c.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(c.locks, recordID)
	}
	c.mu.Unlock()
}

func randomToken() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()[:12]
	}
	return hex.EncodeToString(buf)
}
