package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kiosk-assistant/internal/metrics"
	"kiosk-assistant/internal/types"
)

const (
	DefaultBaseURL         = "https://api.elevenlabs.io"
	DefaultVoiceID         = "pNInz6obpgDQGcFmaJgB"
	DefaultModelID         = "eleven_multilingual_v2"
	DefaultStability       = 0.7
	DefaultSimilarityBoost = 0.8
)

var (
	ErrMissingAPIKey = errors.New("ELEVENLABS_API_KEY is not set")
	ErrEmptyText     = errors.New("text is required")
)

// APIError is a non-2xx answer from ElevenLabs.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("elevenlabs: status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	APIKey  string
	BaseURL string
	VoiceID string
	ModelID string
	Timeout time.Duration
}

type Client struct {
	cfg     Config
	http    *http.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(cfg Config, m *metrics.Metrics, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.VoiceID == "" {
		cfg.VoiceID = DefaultVoiceID
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		metrics: m,
		logger:  logger.With("component", "tts"),
	}, nil
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechPayload struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize converts text to MP3 audio. The caller must close the returned
// stream.
func (c *Client) Synthesize(ctx context.Context, req types.SpeechRequest) (io.ReadCloser, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}
	voiceID := c.cfg.VoiceID
	if strings.TrimSpace(req.VoiceID) != "" {
		voiceID = strings.TrimSpace(req.VoiceID)
	}
	settings := voiceSettings{Stability: DefaultStability, SimilarityBoost: DefaultSimilarityBoost}
	if req.Stability != nil {
		settings.Stability = *req.Stability
	}
	if req.SimilarityBoost != nil {
		settings.SimilarityBoost = *req.SimilarityBoost
	}
	b, err := json.Marshal(speechPayload{Text: req.Text, ModelID: c.cfg.ModelID, VoiceSettings: settings})
	if err != nil {
		return nil, err
	}

	endpoint := c.cfg.BaseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	c.logger.Info("synthesizing speech", "voice", voiceID, "chars", len([]rune(req.Text)))
	resp, err := c.do(httpReq)
	if err != nil {
		c.metrics.TTSRequest("error")
		return nil, err
	}
	c.metrics.TTSRequest("ok")
	return resp.Body, nil
}

type voicesPayload struct {
	Voices []struct {
		VoiceID string `json:"voice_id"`
		Name    string `json:"name"`
	} `json:"voices"`
}

// Voices lists the voices available to the account.
func (c *Client) Voices(ctx context.Context) ([]types.Voice, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/voices", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload voicesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode voices: %w", err)
	}
	out := make([]types.Voice, 0, len(payload.Voices))
	for _, v := range payload.Voices {
		out = append(out, types.Voice{ID: v.VoiceID, Name: v.Name})
	}
	return out, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("elevenlabs error", "status", resp.StatusCode, "body", string(body))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}
