package extract

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"kiosk-assistant/internal/normalize"
)

// flexInt accepts a JSON number, a numeric string (Persian digits
// included) or null. Anything unparseable decodes to 0.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = 0
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if n, ok := normalize.Int(s); ok {
			*f = flexInt(n)
		}
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	*f = flexInt(math.Round(n))
	return nil
}

// flexString accepts a JSON string, a number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = ""
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) trimmed() string { return strings.TrimSpace(string(f)) }

type rawPassenger struct {
	Name           flexString `json:"name"`
	LastName       flexString `json:"lastName"`
	NationalID     flexString `json:"nationalId"`
	PassportNumber flexString `json:"passportNumber"`
	Nationality    flexString `json:"nationality"`
	LuggageCount   flexInt    `json:"luggageCount"`
	PassengerType  flexString `json:"passengerType"`
	Gender         flexString `json:"gender"`
}

type rawBooking struct {
	AirportName    flexString     `json:"airportName"`
	TravelType     flexString     `json:"travelType"`
	TravelDate     flexString     `json:"travelDate"`
	BuyerPhone     flexString     `json:"buyer_phone"`
	PassengerCount flexInt        `json:"passengerCount"`
	FlightNumber   flexString     `json:"flightNumber"`
	Passengers     []rawPassenger `json:"passengers"`
	AdditionalInfo flexString     `json:"additionalInfo"`
}
