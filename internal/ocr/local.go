package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/yutonagata/shipsnap-backend/pkg/config"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
)

// LocalRecognizer runs Tesseract on-device. Recognizer failures never
// propagate; they degrade to an empty result so manual entry always works.
type LocalRecognizer struct {
	languages string
	logg      *logger.Logger

	// recognize is swappable for tests; the default drives gosseract.
	recognize func(image []byte) (string, error)
}

// NewLocalRecognizer builds the on-device strategy.
func NewLocalRecognizer(cfg config.OCRConfig, logg *logger.Logger) *LocalRecognizer {
	r := &LocalRecognizer{
		languages: cfg.Languages,
		logg:      logg,
	}
	r.recognize = r.runTesseract
	return r
}

// Recognize extracts raw text from the image, reporting progress through the
// optional callback. A panicking or failing recognizer yields empty text.
func (r *LocalRecognizer) Recognize(ctx context.Context, image []byte, progress ProgressFunc) (text string, err error) {
	report := func(label string, fraction float64) {
		if progress != nil {
			progress(label, fraction)
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			if r.logg != nil {
				r.logg.Warn(ctx, fmt.Sprintf("local recognizer panicked: %v", rec))
			}
			text = ""
			err = nil
			report("done", 1)
		}
	}()

	report("initializing", 0)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	report("recognizing text", 0.3)
	raw, recErr := r.recognize(image)
	if recErr != nil {
		if r.logg != nil {
			r.logg.Warn(ctx, fmt.Sprintf("local recognizer failed: %v", recErr))
		}
		report("done", 1)
		return "", nil
	}

	report("done", 1)
	return raw, nil
}

func (r *LocalRecognizer) runTesseract(image []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if r.languages != "" {
		if err := client.SetLanguage(splitLanguages(r.languages)...); err != nil {
			return "", err
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", err
	}
	return client.Text()
}

// splitLanguages turns the tesseract-style "jpn+eng" string into arguments.
func splitLanguages(value string) []string {
	parts := strings.Split(value, "+")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
