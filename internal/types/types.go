package types

// AvatarMessage is one utterance for the kiosk avatar to perform.
type AvatarMessage struct {
	Text             string `json:"text"`
	FacialExpression string `json:"facialExpression,omitempty"`
	Animation        string `json:"animation,omitempty"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	Language  string `json:"language,omitempty"`
}

type ChatResponse struct {
	Messages  []AvatarMessage `json:"messages"`
	SessionID string          `json:"session_id"`
}

type MemoryRecord struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type MemoryResponse struct {
	SessionID string         `json:"session_id"`
	History   []MemoryRecord `json:"history"`
	Count     int            `json:"count"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// TranscriptMessage is one line of a finished kiosk conversation.
type TranscriptMessage struct {
	ID     string `json:"id,omitempty"`
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

const (
	SenderClient = "CLIENT"
	SenderAvatar = "AVATAR"
)

type ExtractRequest struct {
	Messages []TranscriptMessage `json:"messages"`
}

type Passenger struct {
	Name           string `json:"name"`
	LastName       string `json:"lastName"`
	NationalID     string `json:"nationalId"`
	PassportNumber string `json:"passportNumber"`
	Nationality    string `json:"nationality"`
	LuggageCount   int    `json:"luggageCount"`
	PassengerType  string `json:"passengerType"`
	Gender         string `json:"gender"`
}

// ExtractedBooking is the normalised result of one extraction call.
type ExtractedBooking struct {
	AirportName    string      `json:"airportName"`
	TravelType     string      `json:"travelType"`
	TravelDate     string      `json:"travelDate"`
	FlightNumber   string      `json:"flightNumber"`
	PassengerCount int         `json:"passengerCount"`
	BuyerPhone     string      `json:"buyer_phone"`
	Passengers     []Passenger `json:"passengers"`
	AdditionalInfo string      `json:"additionalInfo,omitempty"`
}

type BookingPassenger struct {
	Name         string `json:"name"`
	NationalID   string `json:"national_id"`
	BaggageCount string `json:"baggage_count"`
}

type BookingStateResponse struct {
	SessionID      string             `json:"session_id"`
	OriginAirport  string             `json:"origin_airport"`
	TravelType     string             `json:"travel_type"`
	TravelDate     string             `json:"travel_date"`
	FlightNumber   string             `json:"flight_number"`
	PassengerCount string             `json:"passenger_count"`
	PhoneNumber    string             `json:"phone_number"`
	PassengersData []BookingPassenger `json:"passengers_data"`
	AdditionalInfo string             `json:"additional_info"`
	CurrentStep    int                `json:"current_step"`
	Completed      bool               `json:"completed"`
	SkippedFields  []string           `json:"skipped_fields"`
}

type SpeechRequest struct {
	Text            string   `json:"text"`
	VoiceID         string   `json:"voice_id,omitempty"`
	Stability       *float64 `json:"stability,omitempty"`
	SimilarityBoost *float64 `json:"similarity_boost,omitempty"`
}

type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type VoicesResponse struct {
	Voices []Voice `json:"voices"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
