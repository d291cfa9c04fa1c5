package ocr

import (
	"context"
	"errors"
	"fmt"

	"github.com/yutonagata/shipsnap-backend/pkg/config"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
)

// remoteStrategy is the hosted vision-model surface the engine drives.
type remoteStrategy interface {
	Extract(ctx context.Context, image []byte, mimeType string) (Candidate, error)
}

// localStrategy is the on-device recognizer surface.
type localStrategy interface {
	Recognize(ctx context.Context, image []byte, progress ProgressFunc) (string, error)
}

// Engine dispatches an image to the configured extraction strategy and
// normalizes the outcome. Extraction failure is never fatal: every error path
// collapses into a not_found result so record creation can proceed manually.
type Engine struct {
	strategy string
	remote   remoteStrategy
	local    localStrategy
	logg     *logger.Logger
}

// NewEngine wires the strategy named by configuration. Exactly one strategy
// is active per deployment.
func NewEngine(cfg config.OCRConfig, remote *GeminiClient, local *LocalRecognizer, logg *logger.Logger) (*Engine, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	engine := &Engine{strategy: cfg.Strategy, logg: logg}
	switch cfg.Strategy {
	case config.OCRStrategyRemote:
		if remote == nil {
			return nil, fmt.Errorf("remote ocr strategy requires a gemini client")
		}
		engine.remote = remote
	case config.OCRStrategyLocal:
		if local == nil {
			return nil, fmt.Errorf("local ocr strategy requires a recognizer")
		}
		engine.local = local
	default:
		return nil, fmt.Errorf("unsupported ocr strategy %q", cfg.Strategy)
	}
	return engine, nil
}

// Extract runs the configured strategy over the image. The progress callback
// only fires for the local strategy.
func (e *Engine) Extract(ctx context.Context, image []byte, mimeType string, progress ProgressFunc) Result {
	if e.remote != nil {
		return e.extractRemote(ctx, image, mimeType)
	}
	return e.extractLocal(ctx, image, progress)
}

func (e *Engine) extractRemote(ctx context.Context, image []byte, mimeType string) Result {
	candidate, err := e.remote.Extract(ctx, image, mimeType)
	if err != nil {
		var strategyErr *StrategyError
		if errors.As(err, &strategyErr) && strategyErr.Reason == FailureConfigMissing {
			// OCR is an enhancement. Missing configuration is a quiet no-op.
			return Result{Status: StatusNotFound}
		}
		e.logg.Warn(ctx, "remote extraction failed: "+err.Error())
		return Result{Status: StatusNotFound}
	}
	return resultFromCandidate(candidate)
}

func (e *Engine) extractLocal(ctx context.Context, image []byte, progress ProgressFunc) Result {
	text, err := e.local.Recognize(ctx, image, progress)
	if err != nil {
		e.logg.Warn(ctx, "local extraction failed: "+err.Error())
		return Result{Status: StatusNotFound}
	}

	candidate := Candidate{RawText: text}
	if number, ok := ExtractTrackingNumber(text); ok {
		candidate.TrackingNumber = number
	}
	return resultFromCandidate(candidate)
}

func resultFromCandidate(candidate Candidate) Result {
	if candidate.TrackingNumber == "" {
		return Result{Status: StatusNotFound, Candidate: candidate}
	}
	return Result{Status: StatusFound, Candidate: candidate}
}
