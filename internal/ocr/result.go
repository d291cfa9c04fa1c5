package ocr

import "fmt"

// Status is the terminal state of one extraction attempt.
type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
)

// Candidate is the structured best-effort output of an extraction attempt.
type Candidate struct {
	TrackingNumber string `json:"tracking_number,omitempty"`
	ShipDate       string `json:"ship_date,omitempty"`
	RawText        string `json:"raw_text,omitempty"`
}

// Result is what the engine hands back to callers. Extraction never fails
// from the caller's point of view; an errored attempt surfaces as not_found.
type Result struct {
	Status    Status    `json:"status"`
	Candidate Candidate `json:"candidate"`
}

// FailureReason classifies why a remote extraction attempt failed.
type FailureReason string

const (
	FailureConfigMissing FailureReason = "config_missing"
	FailureTimeout       FailureReason = "timeout"
	FailureNetwork       FailureReason = "network_error"
	FailureAPI           FailureReason = "api_error"
	FailureParse         FailureReason = "parse_error"
)

// StrategyError is a typed extraction failure. It never escapes the engine;
// callers of the engine only ever see a not_found result.
type StrategyError struct {
	Reason     FailureReason
	StatusCode int
	Err        error
}

func (e *StrategyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocr %s: %v", e.Reason, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("ocr %s: status %d", e.Reason, e.StatusCode)
	}
	return fmt.Sprintf("ocr %s", e.Reason)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// ProgressFunc receives incremental progress from the local strategy as a
// status label and a fraction in [0, 1].
type ProgressFunc func(label string, fraction float64)
