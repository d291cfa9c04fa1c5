package controllers

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yutonagata/shipsnap-backend/api/responses"
	"github.com/yutonagata/shipsnap-backend/api/validators"
	"github.com/yutonagata/shipsnap-backend/internal/records"
	"github.com/yutonagata/shipsnap-backend/internal/syncer"
	"github.com/yutonagata/shipsnap-backend/pkg/config"
	pkgerrors "github.com/yutonagata/shipsnap-backend/pkg/errors"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
)

type createRecordRequest struct {
	ShipDate       string               `json:"ship_date" validate:"required,datetime=2006-01-02"`
	TrackingNumber string               `json:"tracking_number" validate:"required"`
	Note           string               `json:"note,omitempty"`
	Images         []createImageRequest `json:"images" validate:"required,min=1,dive"`
}

type createImageRequest struct {
	FileName    string  `json:"file_name" validate:"required"`
	MimeType    string  `json:"mime_type" validate:"required"`
	Payload     string  `json:"payload,omitempty"`
	PreviewData *string `json:"preview_data,omitempty"`
}

type updateRecordRequest struct {
	ShipDate       *string `json:"ship_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
	Note           *string `json:"note,omitempty"`
}

// CreateRecord persists a new shipping record. In the local-first mode the
// write returns immediately and media syncs in the background; in the
// cloud-first mode every image must upload before the record is accepted,
// and an upload failure rolls the record back so the client can retry.
func CreateRecord(svc records.Service, coordinator *syncer.Coordinator, app config.AppConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "record service unavailable"))
			return
		}

		var payload createRecordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := records.CreateRecordDTO{
			ShipDate:       payload.ShipDate,
			TrackingNumber: validators.SanitizeString(payload.TrackingNumber, 64),
			Note:           validators.SanitizeString(payload.Note, 2000),
		}
		for _, img := range payload.Images {
			data, err := decodeImagePayload(img.Payload)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Images = append(input.Images, records.NewImageDTO{
				FileName:    img.FileName,
				MimeType:    img.MimeType,
				Payload:     data,
				PreviewData: img.PreviewData,
			})
		}

		created, err := svc.CreateRecord(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if app.IsCloudFirst() && coordinator != nil && coordinator.Enabled() {
			if _, syncErr := coordinator.SyncRecord(r.Context(), created.ID, syncer.TriggerCreate); syncErr != nil {
				if _, delErr := svc.DeleteRecord(r.Context(), created.ID); delErr != nil && logg != nil {
					logg.Error(r.Context(), "failed to roll back record after upload failure", delErr)
				}
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, syncErr, "media upload failed, record not saved; retry when online"))
				return
			}
			if refreshed, err := svc.GetRecord(r.Context(), created.ID); err == nil {
				created = refreshed
			}
		} else if coordinator != nil {
			coordinator.SyncRecordAsync(r.Context(), created.ID, syncer.TriggerCreate)
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// GetRecord returns one record by id.
func GetRecord(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetRecord(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// UpdateRecord applies a partial update to a record's user-mutable fields.
func UpdateRecord(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateRecordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := records.UpdateRecordInput{
			ShipDate: payload.ShipDate,
			Note:     payload.Note,
		}
		if payload.TrackingNumber != nil {
			sanitized := validators.SanitizeString(*payload.TrackingNumber, 64)
			input.TrackingNumber = &sanitized
		}

		updated, err := svc.UpdateRecord(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// DeleteRecord removes a record and releases its remote media in the
// background. The local delete is authoritative; remote cleanup is
// best-effort.
func DeleteRecord(svc records.Service, coordinator *syncer.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.DeleteRecord(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if coordinator != nil {
			var paths []string
			for _, img := range snapshot.Images {
				if img.StoragePath != nil {
					paths = append(paths, *img.StoragePath)
				}
			}
			if len(paths) > 0 {
				// Detached from the request context: the local delete already
				// succeeded and remote cleanup must outlive the response.
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
					defer cancel()
					if err := coordinator.ReleaseRemote(ctx, paths); err != nil && logg != nil {
						logg.Warn(ctx, "remote media release failed: "+err.Error())
					}
				}()
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListRecords returns every record, or a filtered subset when search
// parameters are present.
func ListRecords(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := searchFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var (
			rows []records.RecordDTO
		)
		if filter.IsZero() {
			rows, err = svc.ListRecords(r.Context())
		} else {
			rows, err = svc.SearchRecords(r.Context(), filter)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"records": rows,
			"count":   len(rows),
		})
	}
}

// GetRecordImage streams the locally stored image bytes.
func GetRecordImage(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "imageId")
		imageID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image id"))
			return
		}

		image, err := svc.GetImage(r.Context(), imageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", image.MimeType)
		w.Header().Set("Content-Disposition", `inline; filename="`+image.FileName+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(image.Payload)
	}
}

func recordIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "recordId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id")
	}
	return id, nil
}

func decodeImagePayload(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image payload must be base64")
	}
	return data, nil
}

func searchFilterFromQuery(r *http.Request) (records.SearchFilter, error) {
	filter := records.SearchFilter{
		TrackingNumberQuery: validators.SanitizeString(r.URL.Query().Get("q"), 64),
	}

	preset, err := validators.ParseQueryEnum(r, "preset",
		records.PresetToday, records.PresetThisWeek, records.PresetThisMonth)
	if err != nil {
		return records.SearchFilter{}, err
	}
	if preset != "" {
		from, to, err := records.ResolvePreset(preset, timeNow())
		if err != nil {
			return records.SearchFilter{}, err
		}
		filter.DateFrom, filter.DateTo = from, to
		return filter, nil
	}

	if filter.DateFrom, err = validators.ParseQueryDate(r, "date_from"); err != nil {
		return records.SearchFilter{}, err
	}
	if filter.DateTo, err = validators.ParseQueryDate(r, "date_to"); err != nil {
		return records.SearchFilter{}, err
	}
	return filter, nil
}
