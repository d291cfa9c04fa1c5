package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yutonagata/shipsnap-backend/pkg/config"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
)

const extractionPrompt = `この画像は配送伝票の写真です。以下のJSON形式で情報を抽出してください。
{"trackingNumber": "伝票番号 (数字12桁、例: 1234-5678-9012)", "shipDate": "発送日 (YYYY-MM-DD形式)"}
見つからない項目はnullにしてください。JSONのみを返してください。`

// GeminiClient calls the hosted vision model to extract structured fields
// from a receipt photo. It retries once against the fallback model when the
// primary fails for any reason other than missing configuration.
type GeminiClient struct {
	cfg        config.GeminiConfig
	httpClient *http.Client
	logg       *logger.Logger
}

// NewGeminiClient builds a remote extraction strategy.
func NewGeminiClient(cfg config.GeminiConfig, logg *logger.Logger) *GeminiClient {
	return &GeminiClient{
		cfg:        cfg,
		httpClient: &http.Client{},
		logg:       logg,
	}
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type extractedFields struct {
	TrackingNumber *string `json:"trackingNumber"`
	ShipDate       *string `json:"shipDate"`
}

// Extract sends the image to the primary model and, if that fails, the
// fallback model. The fallback's outcome is final.
func (c *GeminiClient) Extract(ctx context.Context, image []byte, mimeType string) (Candidate, error) {
	if c.cfg.APIKey == "" {
		return Candidate{}, &StrategyError{Reason: FailureConfigMissing}
	}

	candidate, err := c.extractWithModel(ctx, c.cfg.PrimaryModel, image, mimeType)
	if err == nil {
		return candidate, nil
	}

	var strategyErr *StrategyError
	if errors.As(err, &strategyErr) && strategyErr.Reason == FailureConfigMissing {
		return Candidate{}, err
	}

	if c.logg != nil {
		c.logg.Warn(ctx, fmt.Sprintf("primary model %s failed, retrying with %s: %v",
			c.cfg.PrimaryModel, c.cfg.FallbackModel, err))
	}
	return c.extractWithModel(ctx, c.cfg.FallbackModel, image, mimeType)
}

func (c *GeminiClient) extractWithModel(ctx context.Context, model string, image []byte, mimeType string) (Candidate, error) {
	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: extractionPrompt},
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Candidate{}, &StrategyError{Reason: FailureParse, Err: err}
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", strings.TrimSuffix(c.cfg.Endpoint, "/"), model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Candidate{}, &StrategyError{Reason: FailureNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return Candidate{}, &StrategyError{Reason: FailureTimeout, Err: err}
		}
		return Candidate{}, &StrategyError{Reason: FailureNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Candidate{}, &StrategyError{Reason: FailureAPI, StatusCode: resp.StatusCode}
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Candidate{}, &StrategyError{Reason: FailureParse, Err: err}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Candidate{}, &StrategyError{Reason: FailureParse, Err: fmt.Errorf("empty model response")}
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	return candidateFromModelText(text), nil
}

// candidateFromModelText prefers the model's structured JSON answer, but a
// JSON tracking number is trusted only when it already has the canonical
// digit shape; everything else funnels through the shared extraction grammar.
func candidateFromModelText(text string) Candidate {
	candidate := Candidate{RawText: text}

	var fields extractedFields
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &fields); err == nil {
		if fields.ShipDate != nil {
			if _, err := time.Parse("2006-01-02", *fields.ShipDate); err == nil {
				candidate.ShipDate = *fields.ShipDate
			}
		}
		if fields.TrackingNumber != nil {
			if IsCanonicalTrackingNumber(*fields.TrackingNumber) {
				candidate.TrackingNumber = *fields.TrackingNumber
				return candidate
			}
			if number, ok := ExtractTrackingNumber(*fields.TrackingNumber); ok {
				candidate.TrackingNumber = number
				return candidate
			}
		}
	}

	if number, ok := ExtractTrackingNumber(text); ok {
		candidate.TrackingNumber = number
	}
	return candidate
}

// stripCodeFence unwraps a ```json fenced block, which the model emits even
// when told to return bare JSON.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
