package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kiosk-assistant/internal/metrics"
	"kiosk-assistant/internal/types"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func completion(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

var transcript = []types.TranscriptMessage{
	{ID: "1", Sender: types.SenderAvatar, Text: "کد ملی مسافر رو بفرمایید."},
	{ID: "2", Sender: types.SenderClient, Text: "کد ملی ۰۰۱۲۳۴۵۶۷۸"},
	{ID: "3", Sender: types.SenderAvatar, Text: "شماره تماس رو بفرمایید."},
	{ID: "4", Sender: types.SenderClient, Text: "شماره من ۰۹۱۲ ۳۴۵ ۶۷۸۹ هست"},
}

const modelReply = `{
  "airportName": " امام خمینی ",
  "travelType": "departure",
  "travelDate": "۱۴۰۳/۰۵/۱۲",
  "buyer_phone": "",
  "passengerCount": "۲",
  "flightNumber": "ir-۴۵۲",
  "passengers": [
    {"name": "علی", "lastName": "رضایی", "nationalId": "001 234 5678", "passportNumber": null,
     "nationality": "ایرانی", "luggageCount": "1", "passengerType": "Adult", "gender": "male"},
    {"name": "Sara", "lastName": "Smith", "nationalId": "", "passportNumber": "K123 4567",
     "nationality": "german", "luggageCount": 2, "passengerType": "infant", "gender": "female"}
  ]
}`

func newService(client *MockCompleter) (*Service, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry(), "test", nil)
	return NewService(client, Options{Model: "gpt-3.5-turbo"}, m, nil), m
}

func TestExtract_Normalises(t *testing.T) {
	client := &MockCompleter{}
	svc, _ := newService(client)
	client.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "gpt-3.5-turbo" &&
			req.Temperature == 0 &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == openai.ChatMessageRoleSystem &&
			strings.HasSuffix(req.Messages[1].Content, "Conversation:\nAVATAR: کد ملی مسافر رو بفرمایید.\nCLIENT: کد ملی ۰۰۱۲۳۴۵۶۷۸\nAVATAR: شماره تماس رو بفرمایید.\nCLIENT: شماره من ۰۹۱۲ ۳۴۵ ۶۷۸۹ هست")
	})).Return(completion(modelReply), nil).Once()

	got, err := svc.Extract(context.Background(), transcript)
	require.NoError(t, err)

	assert.Equal(t, "امام خمینی", got.AirportName)
	assert.Equal(t, "departure", got.TravelType)
	assert.Equal(t, "1403/05/12", got.TravelDate)
	assert.Equal(t, 2, got.PassengerCount)
	assert.Equal(t, "IR452", got.FlightNumber)
	assert.Equal(t, "09123456789", got.BuyerPhone)
	require.Len(t, got.Passengers, 2)
	assert.Equal(t, types.Passenger{
		Name: "Aly", LastName: "Rzayy", NationalID: "0012345678", PassportNumber: "",
		Nationality: "Iranian", LuggageCount: 1, PassengerType: "adult", Gender: "male",
	}, got.Passengers[0])
	assert.Equal(t, types.Passenger{
		Name: "Sara", LastName: "Smith", NationalID: "", PassportNumber: "K1234567",
		Nationality: "German", LuggageCount: 2, PassengerType: "infant", Gender: "female",
	}, got.Passengers[1])
	client.AssertExpectations(t)
}

func TestExtract_KeepsModelPhone(t *testing.T) {
	client := &MockCompleter{}
	svc, _ := newService(client)
	client.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(completion(`{"buyer_phone":"+۹۸ ۹۱۲-۰۰۰ ۱۱۲۲","passengers":[]}`), nil).Once()

	got, err := svc.Extract(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "+989120001122", got.BuyerPhone)
	assert.NotNil(t, got.Passengers)
	assert.Empty(t, got.Passengers)
}

func TestExtract_FallbackSpan(t *testing.T) {
	client := &MockCompleter{}
	svc, m := newService(client)
	client.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(completion("Here is the data:\n```json\n{\"flightNumber\":\"w5 1081\"}\n```"), nil).Once()

	got, err := svc.Extract(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "W51081", got.FlightNumber)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMParseFallback.WithLabelValues("extract", "recovered")))
}

func TestExtract_ParseFailure(t *testing.T) {
	client := &MockCompleter{}
	svc, m := newService(client)
	client.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(completion("I could not find any booking."), nil).Once()

	got, err := svc.Extract(context.Background(), transcript)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrParseFailed)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMParseFallback.WithLabelValues("extract", "failed")))
}

func TestExtract_UpstreamError(t *testing.T) {
	client := &MockCompleter{}
	svc, m := newService(client)
	client.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("connection reset")).Once()

	_, err := svc.Extract(context.Background(), transcript)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequests.WithLabelValues("extract", "error")))
}

func TestExtract_EmptyTranscript(t *testing.T) {
	client := &MockCompleter{}
	svc, _ := newService(client)
	_, err := svc.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyTranscript)
	client.AssertNotCalled(t, "CreateChatCompletion", mock.Anything, mock.Anything)
}

func TestFlexDecoding(t *testing.T) {
	var v struct {
		A flexInt    `json:"a"`
		B flexInt    `json:"b"`
		C flexInt    `json:"c"`
		D flexInt    `json:"d"`
		E flexString `json:"e"`
		F flexString `json:"f"`
		G flexString `json:"g"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":3,"b":"۴ عدد","c":null,"d":"none","e":1234567890,"f":null,"g":"x"}`), &v))
	assert.Equal(t, flexInt(3), v.A)
	assert.Equal(t, flexInt(4), v.B)
	assert.Equal(t, flexInt(0), v.C)
	assert.Equal(t, flexInt(0), v.D)
	assert.Equal(t, flexString("1234567890"), v.E)
	assert.Equal(t, flexString(""), v.F)
	assert.Equal(t, flexString("x"), v.G)
}
