package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigits(t *testing.T) {
	assert.Equal(t, "0123456789", Digits("۰۱۲۳۴۵۶۷۸۹"))
	assert.Equal(t, "0123456789", Digits("٠١٢٣٤٥٦٧٨٩"))
	assert.Equal(t, "abc 12", Digits("abc ۱2"))
}

func TestFlightNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"کیو آر-۱۲۳ ", "کیوآر123"},
		{"ir-452", "IR452"},
		{" w5 ۱۰۸۱ ", "W51081"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FlightNumber(tt.in), tt.in)
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"علی رضایی", "Aly Rzayy"},
		{"  ali   ", "Ali"},
		{"mcDONALD", "Mcdonald"},
		{"شیرین", "Shyryn"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Name(tt.in), tt.in)
	}
}

func TestNameIsStableOnLatin(t *testing.T) {
	once := Name("محمد حسینی")
	assert.Equal(t, once, Name(once))
	assert.Equal(t, Name("محمد حسینی"), once)
}

func TestIDNumber(t *testing.T) {
	assert.Equal(t, "123456", IDNumber(" 12 34\t56 "))
	assert.Equal(t, "K1234567", IDNumber("K123 4567"))
}

func TestPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+۹۸ ۹۱۲-۳۴۵ ۶۷۸۹", "+989123456789"},
		{" 0912 345 6789 ", "09123456789"},
		{"۰۹۱۲-۳۴۵-۶۷۸۹", "09123456789"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Phone(tt.in), tt.in)
	}
}

func TestNationality(t *testing.T) {
	assert.Equal(t, "Iranian", Nationality("ایرانی"))
	assert.Equal(t, "Non-Iranian", Nationality(" غیر ایرانی "))
	assert.Equal(t, "Diplomat", Nationality("دپلمات"))
	assert.Equal(t, "Afghan", Nationality("افغان"))
	assert.Equal(t, "German", Nationality("german"))
}

func TestTravelType(t *testing.T) {
	assert.Equal(t, "arrival", TravelType("Arrival"))
	assert.Equal(t, "departure", TravelType(" DEPARTURE"))
	assert.Equal(t, "arrival", TravelType("پرواز ورودی"))
	assert.Equal(t, "departure", TravelType("خروجی"))
	assert.Equal(t, "", TravelType("maybe"))
}

func TestInt(t *testing.T) {
	n, ok := Int("۳")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = Int("2 نفر")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = Int("")
	assert.False(t, ok)
	_, ok = Int("none")
	assert.False(t, ok)
}
