package score

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mchmarny/biascheck/pkg/net"
	"github.com/valyala/fastjson"
)

const (
	// DefaultEndpoint is the Perspective API comment analysis method.
	DefaultEndpoint = "https://commentanalyzer.googleapis.com/v1alpha1/comments:analyze"
	// DefaultTimeout bounds a single scoring call.
	DefaultTimeout = 10 * time.Second

	attributeToxicity = "TOXICITY"
	apiKeyHeader      = "X-Goog-Api-Key"
	reasonKeyInvalid  = "API_KEY_INVALID"
	maxErrorBodyBytes = 1 << 12
)

// PerspectiveConfig configures the Perspective API scorer.
type PerspectiveConfig struct {
	// APIKey is the Google Cloud API key with access to the comment analyzer.
	APIKey string
	// Endpoint overrides DefaultEndpoint.
	Endpoint string
	// Timeout bounds each call, DefaultTimeout when zero.
	Timeout time.Duration
	// Languages are ISO 639-1 codes sent as hints, auto-detected when empty.
	Languages []string
	// DoNotStore asks the service not to retain submitted comments.
	DoNotStore bool
	// HTTPClient overrides the shared client.
	HTTPClient *http.Client
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// PerspectiveClient scores comments with the Perspective API TOXICITY attribute.
type PerspectiveClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	timeout    time.Duration
	languages  []string
	doNotStore bool
	logger     *slog.Logger
}

// NewPerspectiveClient returns a ConfigurationError when the API key is missing.
func NewPerspectiveClient(cfg PerspectiveConfig) (*PerspectiveClient, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ConfigurationError(errors.New("perspective api key is required"))
	}

	c := &PerspectiveClient{
		httpClient: cfg.HTTPClient,
		endpoint:   cfg.Endpoint,
		apiKey:     key,
		timeout:    cfg.Timeout,
		languages:  cfg.Languages,
		doNotStore: cfg.DoNotStore,
		logger:     cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = net.GetHTTPClient()
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

type analyzeComment struct {
	Text string `json:"text"`
}

type analyzeRequest struct {
	Comment             analyzeComment      `json:"comment"`
	RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
	Languages           []string            `json:"languages,omitempty"`
	DoNotStore          bool                `json:"doNotStore,omitempty"`
}

// Score implements Scorer. The returned value is not rounded.
func (c *PerspectiveClient) Score(ctx context.Context, text string) (float64, error) {
	reqBody, err := json.Marshal(analyzeRequest{
		Comment:             analyzeComment{Text: text},
		RequestedAttributes: map[string]struct{}{attributeToxicity: {}},
		Languages:           c.languages,
		DoNotStore:          c.doNotStore,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", net.UserAgent)
	req.Header.Set(apiKeyHeader, c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the caller gave up, nothing to classify
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, TransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	net.PrintHTTPResponse(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, TransientError(fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.Debug("scored comment",
		"status", resp.StatusCode,
		"duration", time.Since(start).String(),
		"bytes", len(body),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, classifyStatus(resp.StatusCode, body)
	}

	return parseToxicity(body)
}

func parseToxicity(body []byte) (float64, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return 0, ProtocolError(fmt.Errorf("failed to parse response: %w", err))
	}

	val := v.Get("attributeScores", attributeToxicity, "summaryScore", "value")
	if val == nil {
		return 0, ProtocolError(errors.New("response missing attributeScores.TOXICITY.summaryScore.value"))
	}
	if val.Type() != fastjson.TypeNumber {
		return 0, ProtocolError(fmt.Errorf("toxicity score is not a number: %s", val.Type()))
	}

	s, err := val.Float64()
	if err != nil {
		return 0, ProtocolError(fmt.Errorf("invalid toxicity score: %w", err))
	}
	if !InRange(s) {
		return 0, ProtocolError(fmt.Errorf("toxicity score out of range [%v, %v]: %v", MinScore, MaxScore, s))
	}
	return s, nil
}

// classifyStatus maps a non-2xx response onto one of the error kinds.
func classifyStatus(status int, body []byte) error {
	msg, reason := parseGoogleError(body)

	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return newError(ErrConfiguration, status, "credential rejected: %s", msg)
	case status == http.StatusBadRequest && isKeyError(msg, reason):
		return newError(ErrConfiguration, status, "credential rejected: %s", msg)
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return newError(ErrTransient, status, "service throttled request: %s", msg)
	case status >= http.StatusInternalServerError:
		return newError(ErrTransient, status, "service unavailable: %s", msg)
	default:
		return newError(ErrProtocol, status, "service rejected request: %s", msg)
	}
}

func isKeyError(msg, reason string) bool {
	return reason == reasonKeyInvalid || strings.Contains(strings.ToLower(msg), "api key")
}

// parseGoogleError extracts message and reason from a google.rpc.Status body,
// falling back to the truncated raw body.
func parseGoogleError(body []byte) (msg, reason string) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err == nil && v.Exists("error") {
		msg = string(v.GetStringBytes("error", "message"))
		for _, d := range v.GetArray("error", "details") {
			if r := d.GetStringBytes("reason"); len(r) > 0 {
				reason = string(r)
				break
			}
		}
	}
	if msg == "" {
		if len(body) > maxErrorBodyBytes {
			body = body[:maxErrorBodyBytes]
		}
		msg = strings.TrimSpace(string(body))
	}
	return msg, reason
}
