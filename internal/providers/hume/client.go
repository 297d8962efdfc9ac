package hume

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/corboo/claire-video-generator/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("hume: api key is required")

// DefaultVoiceID is the voice the deployment ships with.
const DefaultVoiceID = "09eccfe9-8068-42c3-8f0a-e91f5d50d160"

// Options configures the Hume TTS client.
type Options struct {
	APIKey         string
	BaseURL        string
	VoiceID        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Hume text-to-speech API.
type Client struct {
	apiKey     string
	baseURL    string
	voiceID    string
	httpClient *http.Client
	logger     infra.Logger
}

type synthesisRequest struct {
	Utterances []utterance `json:"utterances"`
	Format     audioFormat `json:"format"`
}

type utterance struct {
	Text  string   `json:"text"`
	Voice voiceRef `json:"voice"`
}

type voiceRef struct {
	ID string `json:"id"`
}

type audioFormat struct {
	Type string `json:"type"`
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
		baseURL = "https://api.hume.ai"
	}
	voiceID := strings.TrimSpace(opts.VoiceID)
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}
	logger := infra.NopLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		voiceID:    voiceID,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// VoiceID returns the configured voice identifier.
func (c *Client) VoiceID() string {
	return c.voiceID
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Synthesize invokes the TTS API once and returns the MP3 bytes exactly as
// received. Non-success responses surface the provider's status and body;
// nothing is retried.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("hume: text is required")
	}
	payload := synthesisRequest{
		Utterances: []utterance{{
			Text:  text,
			Voice: voiceRef{ID: c.voiceID},
		}},
		Format: audioFormat{Type: "mp3"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("hume: encode request: %w", err)
	}
	endpoint := c.baseURL + "/v0/tts/file"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("hume: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Hume-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("hume: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hume: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hume: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if len(raw) == 0 {
		return nil, errors.New("hume: empty audio response")
	}
	c.logger.Debug().Int("bytes", len(raw)).Str("voice", c.voiceID).Msg("synthesized audio")
	return raw, nil
}
