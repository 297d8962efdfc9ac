// Package did is a client for the D-ID talks API: asset uploads, talk job
// submission, and bounded status polling.
package did

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"
	"time"

	"github.com/corboo/claire-video-generator/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("did: api key is required")

// ErrTimeout marks a talk that reached neither done nor error within the
// polling budget. The job keeps running on the provider side; the client can
// only stop observing it.
var ErrTimeout = errors.New("did: timed out waiting for talk")

// AssetKind selects the upload endpoint.
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetAudio AssetKind = "audio"
)

// Talk statuses reported by the provider.
const (
	StatusCreated = "created"
	StatusPending = "pending"
	StatusDone    = "done"
	StatusError   = "error"
)

// Polling defaults: 60 attempts at 3s is roughly a 3 minute budget.
const (
	DefaultPollInterval = 3 * time.Second
	DefaultPollAttempts = 60
)

// Options configures the D-ID client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
	PollInterval   time.Duration
	PollAttempts   int
}

// Client performs HTTP calls to the D-ID API.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	logger       infra.Logger
	pollInterval time.Duration
	pollAttempts int
}

// Talk is the provider's view of a talk job.
type Talk struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	ResultURL string          `json:"result_url"`
	Error     json.RawMessage `json:"error"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

type createTalkRequest struct {
	SourceURL string     `json:"source_url"`
	Script    talkScript `json:"script"`
}

type talkScript struct {
	Type     string `json:"type"`
	AudioURL string `json:"audio_url"`
}

type errorResponse struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.d-id.com"
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	attempts := opts.PollAttempts
	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}
	logger := infra.NopLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		httpClient:   httpClient,
		logger:       logger,
		pollInterval: interval,
		pollAttempts: attempts,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// MIMEType infers a content type from the filename suffix. Matching is
// case-insensitive; unknown suffixes fall back to octet-stream.
func MIMEType(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	switch ext {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	}
	return "application/octet-stream"
}

// Upload pushes a binary asset to the provider's object storage in a single
// multipart request and returns the provider-issued URL.
func (c *Client) Upload(ctx context.Context, data []byte, kind AssetKind, fieldName, filename string) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	if len(data) == 0 {
		return "", errors.New("did: upload payload is empty")
	}
	endpoint := c.baseURL + "/images"
	if kind == AssetAudio {
		endpoint = c.baseURL + "/audios"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, filename))
	header.Set("Content-Type", MIMEType(filename))
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("did: build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("did: write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("did: finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("did: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Basic "+c.apiKey)

	raw, err := c.do(httpReq)
	if err != nil {
		return "", err
	}
	var decoded uploadResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("did: decode upload response: %w", err)
	}
	if decoded.URL == "" {
		return "", errors.New("did: upload response missing url")
	}
	c.logger.Debug().Str("kind", string(kind)).Str("filename", filename).Msg("uploaded asset")
	return decoded.URL, nil
}

// CreateTalk submits a talk job driven by an uploaded image and audio track
// and returns the job id.
func (c *Client) CreateTalk(ctx context.Context, imageURL, audioURL string) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	payload := createTalkRequest{
		SourceURL: imageURL,
		Script:    talkScript{Type: "audio", AudioURL: audioURL},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("did: encode talk request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/talks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("did: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Basic "+c.apiKey)

	raw, err := c.do(httpReq)
	if err != nil {
		return "", err
	}
	var talk Talk
	if err := json.Unmarshal(raw, &talk); err != nil {
		return "", fmt.Errorf("did: decode talk response: %w", err)
	}
	if talk.ID == "" {
		return "", errors.New("did: talk response missing id")
	}
	return talk.ID, nil
}

// GetTalk fetches the current status of a talk job.
func (c *Client) GetTalk(ctx context.Context, id string) (*Talk, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/talks/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("did: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Basic "+c.apiKey)

	raw, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	var talk Talk
	if err := json.Unmarshal(raw, &talk); err != nil {
		return nil, fmt.Errorf("did: decode talk status: %w", err)
	}
	return &talk, nil
}

// AwaitTalk polls the talk until it is terminal and returns the result URL.
// A provider-reported error fails immediately with the provider's payload;
// exhausting the attempt ceiling fails with ErrTimeout. There is no way to
// abort the job on the provider side once submitted.
func (c *Client) AwaitTalk(ctx context.Context, id string) (string, error) {
	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
		talk, err := c.GetTalk(ctx, id)
		if err != nil {
			return "", err
		}
		switch talk.Status {
		case StatusDone:
			if talk.ResultURL == "" {
				return "", fmt.Errorf("did: talk %s done without result_url", id)
			}
			return talk.ResultURL, nil
		case StatusError:
			detail := strings.TrimSpace(string(talk.Error))
			if detail == "" {
				detail = "unknown error"
			}
			return "", fmt.Errorf("did: talk %s failed: %s", id, detail)
		}
		c.logger.Debug().Str("talk_id", id).Str("status", talk.Status).Int("attempt", attempt).Msg("talk not ready")
	}
	return "", fmt.Errorf("%w: talk %s after %d attempts", ErrTimeout, id, c.pollAttempts)
}

// GenerateTalk submits a talk job and blocks until the provider reports a
// terminal state, returning the result video URL.
func (c *Client) GenerateTalk(ctx context.Context, imageURL, audioURL string) (string, error) {
	id, err := c.CreateTalk(ctx, imageURL, audioURL)
	if err != nil {
		return "", err
	}
	c.logger.Info().Str("talk_id", id).Msg("talk submitted")
	return c.AwaitTalk(ctx, id)
}

// Download fetches a result URL with a plain GET. Result URLs are pre-signed
// by the provider, so no auth header is attached.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("did: build request: %w", err)
	}
	return c.do(httpReq)
}

// do executes the request and returns the body, surfacing any non-success
// status together with the provider's error payload.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("did: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("did: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Description != "" {
			return nil, fmt.Errorf("did: %s (%s)", detail.Description, detail.Kind)
		}
		return nil, fmt.Errorf("did: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
