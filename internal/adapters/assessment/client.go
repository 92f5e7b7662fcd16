// Package assessment provides the HTTP client for the external statistical
// assessment service.
package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/quantumgrade/entropyval/config"
	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/domain/model"
	apperrors "github.com/quantumgrade/entropyval/internal/errors"
)

// maxErrorBodyBytes bounds how much of an error response body is read for
// diagnostics.
const maxErrorBodyBytes = 4 << 10

// Client calls the external assessment service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ core.AssessmentClient = (*Client)(nil)

// Options groups dependencies for the assessment Client.
type Options struct {
	Config config.AssessmentConfig
	Logger *slog.Logger

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// NewClient constructs an assessment Client.
func NewClient(opts Options) (*Client, error) {
	if opts.Config.BaseURL == "" {
		return nil, errors.New("assessment base URL is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Config.Timeout}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "assessment_client")
	}

	return &Client{
		baseURL: opts.Config.BaseURL,
		http:    httpClient,
		logger:  logger,
	}, nil
}

type evaluateResponse struct {
	Tests            []model.TestOutcome `json:"tests"`
	EntropyEstimates map[string]float64  `json:"entropy_estimates"`
}

// Evaluate submits one bit-stream chunk and returns the test outcomes.
// Unreachable or erroring upstream maps to ServiceUnavailable so the caller
// can fail the owning job with a category the submitter understands.
func (c *Client) Evaluate(ctx context.Context, req model.AssessmentRequest) (*model.AssessmentOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validationf("invalid assessment request: %v", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode assessment request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/assess", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build assessment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeTimeout, "assessment service timed out")
		}
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeCanceled, "assessment call canceled")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeServiceUnavailable, "assessment service unreachable")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
		_ = resp.Body.Close()
	}()

	if c.logger != nil {
		c.logger.DebugContext(ctx, "assessment call finished",
			"status", resp.StatusCode,
			"bit_count", req.BitCount,
			"elapsed", time.Since(start),
		)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, apperrors.Validationf("assessment service rejected request: %s", readErrorBody(resp.Body))
	default:
		return nil, apperrors.ServiceUnavailablef("assessment service returned status %d", resp.StatusCode)
	}

	var decoded evaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeServiceUnavailable, "decode assessment response")
	}

	return &model.AssessmentOutcome{
		Tests:            decoded.Tests,
		EntropyEstimates: decoded.EntropyEstimates,
	}, nil
}

func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil || len(data) == 0 {
		return "no detail"
	}
	return string(bytes.TrimSpace(data))
}
