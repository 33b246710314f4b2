package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kiosk-assistant/internal/assistant"
	"kiosk-assistant/internal/booking"
	"kiosk-assistant/internal/config"
	"kiosk-assistant/internal/extract"
	"kiosk-assistant/internal/metrics"
	"kiosk-assistant/internal/store"
	"kiosk-assistant/internal/tts"
	"kiosk-assistant/internal/types"
)

type ChatResponder interface {
	Respond(ctx context.Context, turn assistant.Turn) (assistant.Reply, error)
}

type Extractor interface {
	Extract(ctx context.Context, transcript []types.TranscriptMessage) (*types.ExtractedBooking, error)
}

type Speech interface {
	Synthesize(ctx context.Context, req types.SpeechRequest) (io.ReadCloser, error)
	Voices(ctx context.Context) ([]types.Voice, error)
}

// Deps are the services the HTTP layer delegates to. Speech may be nil when
// text-to-speech is not configured.
type Deps struct {
	Store     *store.MemoryStore
	Chat      ChatResponder
	Extractor Extractor
	Speech    Speech
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
}

type Server struct {
	router    *chi.Mux
	cfg       config.Config
	store     *store.MemoryStore
	chat      ChatResponder
	extractor Extractor
	speech    Speech
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
}

func NewServer(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Chat == nil || deps.Extractor == nil {
		return nil, errors.New("server: store, chat and extractor are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Session-Id"},
		ExposedHeaders:   []string{"X-Session-Id", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:    r,
		cfg:       cfg,
		store:     deps.Store,
		chat:      deps.Chat,
		extractor: deps.Extractor,
		speech:    deps.Speech,
		metrics:   deps.Metrics,
		gatherer:  gatherer,
		logger:    logger.With("component", "http"),
	}
	r.Use(s.countRequests)
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.router.Post("/chat", s.handleChat)
	s.router.Get("/memory/{session_id}", s.handleGetMemory)
	s.router.Delete("/memory/{session_id}", s.handleClearMemory)
	s.router.Get("/booking-state/{session_id}", s.handleBookingState)
	s.router.Post("/extract-info", s.handleExtract)
	s.router.Post("/text-to-speech", s.handleTTS)
	s.router.Get("/voices", s.handleVoices)
}

func (s *Server) Router() http.Handler { return s.router }

// countRequests records every request by its route pattern and status.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.HTTPRequest(route, strconv.Itoa(status))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	lang, ok := parseLanguage(req.Language)
	if !ok {
		s.writeError(w, http.StatusBadRequest, `language must be "fa" or "en"`)
		return
	}
	if s.cfg.OpenAIAPIKey == "" {
		s.writeError(w, http.StatusUnauthorized, "OpenAI API key is not configured")
		return
	}
	sid := sessionID(r, req.SessionID)

	reply, err := s.chat.Respond(r.Context(), assistant.Turn{Message: req.Message, SessionID: sid, Language: lang})
	if err != nil {
		s.logger.Error("chat failed", "session", assistant.ShortID(sid), "message", assistant.Truncate(req.Message, 50), "err", err)
		code := http.StatusInternalServerError
		if errors.Is(err, assistant.ErrMissingAPIKey) {
			code = http.StatusUnauthorized
		}
		s.writeError(w, code, err.Error())
		return
	}
	w.Header().Set("X-Session-Id", reply.SessionID)
	writeJSON(w, http.StatusOK, types.ChatResponse{Messages: reply.Messages, SessionID: reply.SessionID})
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "session_id")
	history := s.store.History(sid)
	out := make([]types.MemoryRecord, 0, len(history))
	for _, rec := range history {
		out = append(out, types.MemoryRecord{
			Role:      string(rec.Role),
			Content:   rec.Content,
			Timestamp: rec.Timestamp.Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, types.MemoryResponse{SessionID: sid, History: out, Count: len(out)})
}

func (s *Server) handleClearMemory(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "session_id")
	s.store.Clear(sid)
	s.logger.Info("memory cleared", "session", assistant.ShortID(sid))
	writeJSON(w, http.StatusOK, types.MessageResponse{Message: "Memory cleared for session: " + sid})
}

func (s *Server) handleBookingState(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "session_id")
	sess, ok := s.store.Lookup(sid)
	if !ok {
		s.writeError(w, http.StatusNotFound, "session not found: "+sid)
		return
	}
	var resp types.BookingStateResponse
	sess.Booking(func(st *booking.State) { resp = bookingStateResponse(sid, st) })
	writeJSON(w, http.StatusOK, resp)
}

func bookingStateResponse(sid string, st *booking.State) types.BookingStateResponse {
	resp := types.BookingStateResponse{
		SessionID:      sid,
		OriginAirport:  st.Value(booking.OriginAirport),
		TravelType:     st.Value(booking.TravelType),
		TravelDate:     st.Value(booking.TravelDate),
		FlightNumber:   st.Value(booking.FlightNumber),
		PassengerCount: st.Value(booking.PassengerCount),
		PhoneNumber:    st.Value(booking.PhoneNumber),
		PassengersData: []types.BookingPassenger{},
		CurrentStep:    st.Step(),
		Completed:      st.IsCompleted(),
		SkippedFields:  []string{},
	}
	p := types.BookingPassenger{
		Name:         st.Value(booking.PassengerName),
		NationalID:   st.Value(booking.NationalID),
		BaggageCount: st.Value(booking.BaggageCount),
	}
	if p != (types.BookingPassenger{}) {
		resp.PassengersData = append(resp.PassengersData, p)
	}
	for _, f := range st.Skipped() {
		resp.SkippedFields = append(resp.SkippedFields, string(f))
	}
	return resp
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req types.ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "messages are required")
		return
	}
	if s.cfg.OpenAIAPIKey == "" {
		s.writeError(w, http.StatusUnauthorized, "OpenAI API key is not configured")
		return
	}
	out, err := s.extractor.Extract(r.Context(), req.Messages)
	if err != nil {
		s.logger.Error("extraction failed", "messages", len(req.Messages), "err", err)
		code := http.StatusInternalServerError
		if errors.Is(err, extract.ErrEmptyTranscript) {
			code = http.StatusBadRequest
		}
		s.writeError(w, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	if s.speech == nil {
		s.writeError(w, http.StatusServiceUnavailable, "text-to-speech is not configured")
		return
	}
	var req types.SpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "invalid text body")
		return
	}
	audio, err := s.speech.Synthesize(r.Context(), req)
	if err != nil {
		s.logger.Error("text-to-speech failed", "text", assistant.Truncate(req.Text, 50), "err", err)
		s.writeError(w, upstreamStatus(err), err.Error())
		return
	}
	defer audio.Close()
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", "attachment; filename=output.mp3")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, audio); err != nil {
		s.logger.Warn("audio stream interrupted", "err", err)
	}
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	if s.speech == nil {
		s.writeError(w, http.StatusServiceUnavailable, "text-to-speech is not configured")
		return
	}
	voices, err := s.speech.Voices(r.Context())
	if err != nil {
		s.logger.Error("listing voices failed", "err", err)
		s.writeError(w, upstreamStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.VoicesResponse{Voices: voices})
}

// upstreamStatus reports ElevenLabs rejections as a bad gateway.
func upstreamStatus(err error) int {
	var apiErr *tts.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	if errors.Is(err, tts.ErrEmptyText) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, types.ErrorResponse{Detail: detail})
}
