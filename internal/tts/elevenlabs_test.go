package tts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk-assistant/internal/metrics"
	"kiosk-assistant/internal/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	m := metrics.New(prometheus.NewRegistry(), "test", nil)
	c, err := New(Config{APIKey: "xi-test", BaseURL: srv.URL + "/"}, m, nil)
	require.NoError(t, err)
	return c, m
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, nil, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSynthesizeDefaults(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/text-to-speech/"+DefaultVoiceID, r.URL.Path)
		assert.Equal(t, "xi-test", r.Header.Get("xi-api-key"))

		var body speechPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "سلام", body.Text)
		assert.Equal(t, DefaultModelID, body.ModelID)
		assert.Equal(t, DefaultStability, body.VoiceSettings.Stability)
		assert.Equal(t, DefaultSimilarityBoost, body.VoiceSettings.SimilarityBoost)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audio"))
	})

	rc, err := c.Synthesize(context.Background(), types.SpeechRequest{Text: "سلام"})
	require.NoError(t, err)
	defer rc.Close()
	audio, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "ID3-audio", string(audio))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TTSRequests.WithLabelValues("ok")))
}

func TestSynthesizeOverrides(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/custom-voice", r.URL.Path)
		var body speechPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 0.2, body.VoiceSettings.Stability)
		assert.Equal(t, 0.9, body.VoiceSettings.SimilarityBoost)
		_, _ = w.Write([]byte("x"))
	})
	stability, similarity := 0.2, 0.9
	rc, err := c.Synthesize(context.Background(), types.SpeechRequest{
		Text: "hi", VoiceID: "custom-voice", Stability: &stability, SimilarityBoost: &similarity,
	})
	require.NoError(t, err)
	rc.Close()
}

func TestSynthesizeUpstreamError(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusUnauthorized)
	})
	_, err := c.Synthesize(context.Background(), types.SpeechRequest{Text: "hi"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "quota exceeded")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TTSRequests.WithLabelValues("error")))
}

func TestSynthesizeEmptyText(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.Synthesize(context.Background(), types.SpeechRequest{Text: "  "})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestVoices(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/voices", r.URL.Path)
		assert.Equal(t, "xi-test", r.Header.Get("xi-api-key"))
		_, _ = w.Write([]byte(`{"voices":[{"voice_id":"v1","name":"Adam","category":"premade"},{"voice_id":"v2","name":"Bella"}]}`))
	})
	voices, err := c.Voices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.Voice{{ID: "v1", Name: "Adam"}, {ID: "v2", Name: "Bella"}}, voices)
}

func TestVoicesBadJSON(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := c.Voices(context.Background())
	assert.ErrorContains(t, err, "decode voices")
}
