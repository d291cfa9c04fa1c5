package controllers

import (
	"io"
	"net/http"

	"github.com/yutonagata/shipsnap-backend/api/responses"
	"github.com/yutonagata/shipsnap-backend/internal/ocr"
	"github.com/yutonagata/shipsnap-backend/pkg/config"
	pkgerrors "github.com/yutonagata/shipsnap-backend/pkg/errors"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
)

// ExtractFromImage runs the configured OCR strategy over an uploaded photo
// and returns the best-effort candidate. Extraction never errors out to the
// client: an unreadable image simply yields not_found.
func ExtractFromImage(engine *ocr.Engine, media config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ocr engine unavailable"))
			return
		}

		maxBytes := int64(media.MaxUploadMB) << 20
		if maxBytes <= 0 {
			maxBytes = 20 << 20
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload"))
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image file is required"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to read image upload"))
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "image/jpeg"
		}

		result := engine.Extract(r.Context(), data, mimeType, nil)
		responses.WriteSuccess(w, result)
	}
}
