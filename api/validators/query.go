package validators

import (
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/yutonagata/shipsnap-backend/pkg/errors"
)

// ParseQueryDate reads an optional YYYY-MM-DD query parameter. Empty means
// absent, never an error.
func ParseQueryDate(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be formatted YYYY-MM-DD").
			WithDetails(map[string]any{"field": key})
	}
	return raw, nil
}

// ParseQueryEnum reads an optional query parameter restricted to a fixed set.
func ParseQueryEnum(r *http.Request, key string, allowed ...string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return "", nil
	}
	for _, candidate := range allowed {
		if raw == candidate {
			return raw, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter has an unsupported value").
		WithDetails(map[string]any{"field": key, "allowed": allowed})
}
