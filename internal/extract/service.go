// Package extract turns a finished kiosk conversation into structured
// booking data by asking the language model for a fixed JSON schema and
// normalising what comes back.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"kiosk-assistant/internal/assistant"
	"kiosk-assistant/internal/metrics"
	"kiosk-assistant/internal/normalize"
	"kiosk-assistant/internal/types"
)

var (
	ErrParseFailed     = errors.New("failed to parse extraction reply")
	ErrEmptyTranscript = errors.New("messages are required")
)

const systemPrompt = "You are an expert information extraction assistant for airline ticket bookings. " +
	"Your task is to carefully analyze conversations and extract structured booking information including " +
	"passenger details, flight information, and travel preferences. Be thorough and accurate in your extraction."

const instructions = `Extract all passenger and ticket information from the following conversation for an airline booking. Return a JSON object with these fields:
{
  "airportName": string,
  "travelType": string (either "arrival" or "departure"),
  "travelDate": string,
  "buyer_phone": string,
  "passengerCount": number,
  "flightNumber": string,
  "passengers": [
    {
      "name": string,
      "lastName": string,
      "nationalId": string,
      "passportNumber": string,
      "nationality": string,
      "luggageCount": number,
      "passengerType": string (either "adult" or "infant"),
      "gender": string
    }
  ],
  "additionalInfo": string (optional)
}
Important: Extract information for each passenger separately. Each passenger should have their own complete set of information.
If the flight number contains letters that were spoken or written using Persian letters (e.g., 'کیو آر'), convert them to English Latin letters (e.g., 'QR'). Also normalize any Persian/Arabic digits to Western digits. Return the normalized flight number (uppercase, no spaces or hyphens).
For passenger names (name and lastName), if they are provided in Persian/Farsi, convert them to English transliteration using standard Persian-to-Latin transliteration rules.
For nationality field, valid values are: 'ایرانی' (Iranian), 'غیر ایرانی' (Non-Iranian), 'دپلمات' (Diplomat). Convert Persian values to English equivalents: 'ایرانی' -> 'Iranian', 'غیر ایرانی' -> 'Non-Iranian', 'دپلمات' -> 'Diplomat'.
For buyer_phone (contact phone for the whole trip), normalize by converting Persian/Arabic digits to Western digits and removing all spaces.
If any field is missing, use an empty string or 0. Only return the JSON object, nothing else.

Conversation:
`

type Options struct {
	Model   string
	Timeout time.Duration
}

type Service struct {
	client  assistant.ChatCompleter
	opts    Options
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(client assistant.ChatCompleter, opts Options, m *metrics.Metrics, logger *slog.Logger) *Service {
	if opts.Model == "" {
		opts.Model = openai.GPT3Dot5Turbo
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, opts: opts, metrics: m, logger: logger.With("component", "extract")}
}

// Extract asks the model for the booking described in transcript and
// returns it normalised. There is no partial result: upstream and parse
// failures are returned as errors.
func (s *Service) Extract(ctx context.Context, transcript []types.TranscriptMessage) (*types.ExtractedBooking, error) {
	if len(transcript) == 0 {
		return nil, ErrEmptyTranscript
	}
	s.logger.Info("extracting booking", "messages", len(transcript))

	content, err := s.complete(ctx, BuildPrompt(transcript))
	if err != nil {
		s.logger.Error("extraction completion failed", "err", err)
		return nil, err
	}
	s.logger.Debug("extraction reply", "content", assistant.Truncate(content, 200))

	raw, err := s.decode(content)
	if err != nil {
		s.logger.Warn("unparseable extraction reply", "err", err, "content", assistant.Truncate(content, 200))
		return nil, err
	}
	return normalizeBooking(raw, transcript), nil
}

// BuildPrompt renders the transcript as "SENDER: text" lines under the
// extraction instructions.
func BuildPrompt(transcript []types.TranscriptMessage) string {
	var b strings.Builder
	b.WriteString(instructions)
	for i, m := range transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.Sender)
		b.WriteString(": ")
		b.WriteString(m.Text)
	}
	return b.String()
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	started := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	s.metrics.ObserveLLM("extract", started, err)
	if err != nil {
		return "", fmt.Errorf("extraction completion: %w", err)
	}
	return assistant.FirstContent(resp)
}

func (s *Service) decode(content string) (*rawBooking, error) {
	var raw rawBooking
	err := json.Unmarshal([]byte(content), &raw)
	if err == nil {
		return &raw, nil
	}
	span, ok := normalize.JSONSpan(content)
	if !ok {
		s.metrics.ParseFallback("extract", false)
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	raw = rawBooking{}
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		s.metrics.ParseFallback("extract", false)
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	s.metrics.ParseFallback("extract", true)
	return &raw, nil
}

// normalizeBooking applies the text normalisers to every field and falls back to
// scanning the transcript when the model returned no buyer phone.
func normalizeBooking(raw *rawBooking, transcript []types.TranscriptMessage) *types.ExtractedBooking {
	out := &types.ExtractedBooking{
		AirportName:    raw.AirportName.trimmed(),
		TravelType:     normalize.TravelType(string(raw.TravelType)),
		TravelDate:     normalize.Digits(raw.TravelDate.trimmed()),
		FlightNumber:   normalize.FlightNumber(string(raw.FlightNumber)),
		PassengerCount: int(raw.PassengerCount),
		BuyerPhone:     normalize.Phone(string(raw.BuyerPhone)),
		Passengers:     make([]types.Passenger, 0, len(raw.Passengers)),
		AdditionalInfo: raw.AdditionalInfo.trimmed(),
	}
	for _, p := range raw.Passengers {
		out.Passengers = append(out.Passengers, types.Passenger{
			Name:           normalize.Name(string(p.Name)),
			LastName:       normalize.Name(string(p.LastName)),
			NationalID:     normalize.IDNumber(string(p.NationalID)),
			PassportNumber: normalize.IDNumber(string(p.PassportNumber)),
			Nationality:    normalize.Nationality(string(p.Nationality)),
			LuggageCount:   int(p.LuggageCount),
			PassengerType:  strings.ToLower(p.PassengerType.trimmed()),
			Gender:         p.Gender.trimmed(),
		})
	}
	if out.BuyerPhone == "" {
		texts := make([]string, 0, len(transcript))
		for _, m := range transcript {
			texts = append(texts, m.Text)
		}
		out.BuyerPhone = normalize.FindPhone(texts...)
	}
	return out
}
