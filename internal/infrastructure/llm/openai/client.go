// Package openai adapts an OpenAI-compatible chat-completions endpoint into
// the field-extraction boundary. The client owns the call's timeout, retry,
// and rate-limit policy; a missing credential short-circuits to unconfigured
// without any network traffic.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
	"github.com/complyon/kyc-pipeline/internal/core/ports"
	"github.com/complyon/kyc-pipeline/internal/infrastructure/resilience"
)

type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	CallTimeout    time.Duration
	MaxRetries     int
	CallsPerSecond float64
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	executor   *resilience.Executor
	limiter    *rate.Limiter
}

func New(cfg Config) *Client {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.CallsPerSecond <= 0 {
		cfg.CallsPerSecond = 2
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.CallTimeout + 5*time.Second},
		executor: resilience.NewExecutor(resilience.Config{
			// MaxRetries counts retries after the first attempt.
			RetryMaxAttempts: cfg.MaxRetries + 1,
			BreakerEnabled:   true,
		}),
		limiter: rate.NewLimiter(rate.Limit(cfg.CallsPerSecond), 1),
	}
}

var _ ports.FieldExtractor = (*Client)(nil)

func (c *Client) ExtractFields(ctx context.Context, input ports.FieldExtractionInput) (*domain.KYCRecord, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, domain.WrapError(domain.ErrFieldUnconfigured, "extract fields", errors.New("no API key configured"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, domain.WrapError(domain.ErrFieldUnavailable, "extract fields", err)
	}

	var record *domain.KYCRecord
	err := c.executor.Execute(ctx, "field_extraction", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()

		raw, err := c.complete(callCtx, buildFieldExtractionPrompt(input))
		if err != nil {
			return err
		}
		parsed, err := parseRecord(raw)
		if err != nil {
			return err
		}
		record = parsed
		return nil
	}, classifyFieldServiceError)
	if err != nil {
		return nil, domain.WrapError(domain.ErrFieldUnavailable, "extract fields", err)
	}
	return record, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     0,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, "/chat/completions", request, &response); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("field service returned no choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// parseRecord validates the model output against the four-section record
// shape. Anything that does not fit is rejected as malformed rather than
// passed through.
func parseRecord(raw string) (*domain.KYCRecord, error) {
	var payload struct {
		PersonalInformation     map[string]any `json:"personal_information"`
		IdentificationDocuments map[string]any `json:"identification_documents"`
		AccountInformation      map[string]any `json:"account_information"`
		ComplianceDeclarations  map[string]any `json:"compliance_declarations"`
		Confidence              float64        `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedResponse, "parse field response", err)
	}
	if payload.PersonalInformation == nil && payload.IdentificationDocuments == nil &&
		payload.AccountInformation == nil && payload.ComplianceDeclarations == nil {
		return nil, domain.WrapError(domain.ErrMalformedResponse, "parse field response",
			errors.New("no recognized record sections"))
	}

	record := domain.NewKYCRecord()
	record.PersonalInformation = coerceSection(payload.PersonalInformation)
	record.IdentificationDocuments = coerceSection(payload.IdentificationDocuments)
	record.AccountInformation = coerceSection(payload.AccountInformation)
	record.ComplianceDeclarations = coerceSection(payload.ComplianceDeclarations)
	if payload.Confidence > 0 && payload.Confidence <= 1 {
		record.Confidence = payload.Confidence
	}
	return record, nil
}

func coerceSection(section map[string]any) map[string]string {
	out := map[string]string{}
	for name, value := range section {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				out[name] = trimmed
			}
		case float64:
			out[name] = formatNumber(v)
		case bool:
			if v {
				out[name] = "yes"
			} else {
				out[name] = "no"
			}
		default:
			continue
		}
	}
	return out
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
