// Package assistant runs chat turns against the language model: it builds
// the system prompt from the prompt pack, knowledge base and booking state,
// parses the avatar messages out of the reply and applies the booking
// workflow on top of what the model said.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"kiosk-assistant/internal/booking"
	"kiosk-assistant/internal/metrics"
	"kiosk-assistant/internal/store"
	"kiosk-assistant/internal/types"
)

var ErrEmptyMessage = errors.New("message is required")

type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

type Service struct {
	client    ChatCompleter
	store     *store.MemoryStore
	prompts   *PromptPack
	knowledge *KnowledgeBase
	opts      Options
	metrics   *metrics.Metrics
	logger    *slog.Logger
	newID     func() string
}

func NewService(client ChatCompleter, st *store.MemoryStore, prompts *PromptPack, kb *KnowledgeBase, opts Options, m *metrics.Metrics, logger *slog.Logger) *Service {
	if opts.Model == "" {
		opts.Model = openai.GPT4o
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:    client,
		store:     st,
		prompts:   prompts,
		knowledge: kb,
		opts:      opts,
		metrics:   m,
		logger:    logger.With("component", "assistant"),
		newID:     uuid.NewString,
	}
}

type Turn struct {
	Message   string
	SessionID string
	Language  string
}

type Reply struct {
	Messages  []types.AvatarMessage
	SessionID string
}

// Respond runs one chat turn. Upstream failures are returned as errors and
// leave the session untouched; unusable model output becomes an apology.
func (s *Service) Respond(ctx context.Context, turn Turn) (Reply, error) {
	if strings.TrimSpace(turn.Message) == "" {
		return Reply{SessionID: turn.SessionID}, ErrEmptyMessage
	}
	sid := turn.SessionID
	if sid == "" {
		sid = s.newID()
		s.logger.Info("generated session id", "session", ShortID(sid))
	}
	reply := Reply{SessionID: sid}

	lang, lp := s.prompts.Language(turn.Language)
	kb, err := s.knowledge.Text(lang)
	if err != nil {
		return reply, err
	}

	sess, release := s.store.Acquire(sid)
	defer release()

	var snap booking.Snapshot
	sess.Booking(func(st *booking.State) { snap = st.Snapshot() })
	system, err := systemPrompt(lp, snap, kb)
	if err != nil {
		return reply, err
	}

	s.logger.Info("chat turn", "session", ShortID(sid), "lang", lang, "step", snap.CurrentField, "message", Truncate(turn.Message, 50))
	content, err := s.complete(ctx, buildMessages(system, sess.Records(), turn.Message))
	if err != nil {
		s.logger.Error("chat completion failed", "session", ShortID(sid), "err", err)
		return reply, err
	}
	s.logger.Debug("model reply", "session", ShortID(sid), "content", Truncate(content, 100))

	msgs, fallback, err := ParseReply(content)
	if fallback {
		s.metrics.ParseFallback("chat", err == nil)
	}
	if err != nil {
		s.logger.Warn("unusable model reply", "session", ShortID(sid), "err", err, "content", Truncate(content, 200))
		apology := lp.ApologyError
		if errors.Is(err, ErrMalformedJSON) {
			apology = lp.ApologyParse
		}
		reply.Messages = []types.AvatarMessage{apology.Message()}
		return reply, nil
	}

	reply.Messages = s.applyBooking(sess, lp, turn.Message, msgs)
	sess.Append(store.RoleUser, turn.Message)
	for _, m := range reply.Messages {
		sess.Append(store.RoleAssistant, m.Text)
	}
	return reply, nil
}

// applyBooking submits the user's message to the booking workflow and
// replaces or extends the model's messages where the workflow has the
// final word.
func (s *Service) applyBooking(sess *store.Session, lp LanguagePack, input string, msgs []types.AvatarMessage) []types.AvatarMessage {
	var res booking.Result
	promo := false
	sess.Booking(func(st *booking.State) {
		res = st.Submit(input)
		if res.Finished() && s.prompts.IsPromoAirport(st.Value(booking.OriginAirport)) {
			promo = st.ClaimPromo()
		}
	})
	s.metrics.BookingTransition(string(res.Outcome))
	s.logger.Debug("booking transition", "session", ShortID(sess.ID), "field", res.Field, "outcome", res.Outcome, "next", res.Next)

	var out []types.AvatarMessage
	switch res.Outcome {
	case booking.Retry:
		return []types.AvatarMessage{lp.Corrections[res.Field].Message()}
	case booking.Skipped:
		out = []types.AvatarMessage{
			lp.Skips[res.Field].Message(),
			{Text: lp.Question(res.Next), FacialExpression: DefaultFacialExpression, Animation: "Talking_0"},
		}
	default:
		out = append([]types.AvatarMessage(nil), msgs...)
	}
	if promo {
		out = append(out, lp.Promo.Message())
	}
	return out
}

func (s *Service) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	started := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.opts.Model,
		Messages:    messages,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	s.metrics.ObserveLLM("chat", started, err)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return FirstContent(resp)
}

func systemPrompt(lp LanguagePack, snap booking.Snapshot, knowledge string) (string, error) {
	state, err := json.Marshal(snap.CollectedData)
	if err != nil {
		return "", fmt.Errorf("marshal booking state: %w", err)
	}
	next := fmt.Sprintf("%s (step %d): %s", snap.CurrentField, snap.CurrentStep, lp.Question(snap.CurrentField))
	if snap.RetryCount > 0 {
		next += fmt.Sprintf(" [retry %d]", snap.RetryCount)
	}
	return lp.SystemPrompt(string(state), next, knowledge), nil
}

func buildMessages(system string, history []store.Record, user string) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, r := range history {
		role := string(r.Role)
		if role == "" {
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: r.Content})
	}
	return append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})
}

// ShortID returns the first eight characters of a session id for logs.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Truncate shortens s to at most n runes for logs.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
