// Package booking implements the per-session field collection workflow: a
// fixed question sequence, format checks for the national id and phone
// number, and a one-retry-then-skip policy for invalid answers.
package booking

import (
	"strings"
	"unicode"

	"kiosk-assistant/internal/normalize"
)

type Field string

const (
	OriginAirport  Field = "origin_airport"
	TravelType     Field = "travel_type"
	TravelDate     Field = "travel_date"
	PassengerCount Field = "passenger_count"
	PassengerName  Field = "passenger_name"
	NationalID     Field = "national_id"
	FlightNumber   Field = "flight_number"
	BaggageCount   Field = "baggage_count"
	PhoneNumber    Field = "phone_number"

	// Completed is returned by NextQuestion once every field has been visited.
	Completed Field = "completed"
)

// Sequence is the order in which fields are asked for.
var Sequence = []Field{
	OriginAirport,
	TravelType,
	TravelDate,
	PassengerCount,
	PassengerName,
	NationalID,
	FlightNumber,
	BaggageCount,
	PhoneNumber,
}

// Validator cleans a candidate answer and reports whether it is acceptable.
type Validator func(input string) (string, bool)

var validators = map[Field]Validator{
	NationalID:  digitsOfLength(10),
	PhoneNumber: digitsOfLength(11),
}

// Validated reports whether answers for f go through a format check.
func Validated(f Field) bool {
	_, ok := validators[f]
	return ok
}

// ValidNationalID accepts exactly 10 digits once whitespace is removed.
func ValidNationalID(s string) bool {
	_, ok := validators[NationalID](s)
	return ok
}

// ValidPhone accepts exactly 11 digits once whitespace is removed.
func ValidPhone(s string) bool {
	_, ok := validators[PhoneNumber](s)
	return ok
}

func digitsOfLength(n int) Validator {
	return func(input string) (string, bool) {
		cleaned := normalize.IDNumber(normalize.Digits(input))
		if len(cleaned) != n {
			return cleaned, false
		}
		for _, r := range cleaned {
			if r < '0' || r > '9' {
				return cleaned, false
			}
		}
		return cleaned, true
	}
}

type Outcome string

const (
	// Accepted means the answer was stored and the cursor moved on.
	Accepted Outcome = "accepted"
	// Retry means the answer failed validation for the first time.
	Retry Outcome = "retry"
	// Skipped means the answer failed validation twice and the field was left empty.
	Skipped Outcome = "skipped"
	// Done means the workflow had already finished; nothing changed.
	Done Outcome = "completed"
)

// Result describes what a single Submit did.
type Result struct {
	Outcome Outcome
	// Field is the field the answer was submitted against.
	Field Field
	// Next is the field now at the cursor, or Completed.
	Next Field
}

// Finished reports whether this submission moved the workflow into its
// terminal state.
func (r Result) Finished() bool {
	return r.Next == Completed && (r.Outcome == Accepted || r.Outcome == Skipped)
}

// State is not safe for concurrent use; the owning session serialises access.
type State struct {
	step      int
	retry     int
	data      map[Field]string
	skipped   []Field
	promoSent bool
}

func New() *State {
	data := make(map[Field]string, len(Sequence))
	for _, f := range Sequence {
		data[f] = ""
	}
	return &State{data: data}
}

// NextQuestion returns the field at the cursor and the cursor index.
func (s *State) NextQuestion() (Field, int) {
	if s.step >= len(Sequence) {
		return Completed, s.step
	}
	return Sequence[s.step], s.step
}

// Update writes value for a declared field, advances the cursor and resets
// the retry counter.
func (s *State) Update(field Field, value string) {
	if _, ok := s.data[field]; ok {
		s.data[field] = value
	}
	s.step++
	s.retry = 0
}

// Submit applies one user answer to the field at the cursor.
func (s *State) Submit(input string) Result {
	field, _ := s.NextQuestion()
	if field == Completed {
		return Result{Outcome: Done, Field: Completed, Next: Completed}
	}

	res := Result{Field: field}
	if validate, ok := validators[field]; ok {
		cleaned, valid := validate(input)
		switch {
		case valid:
			s.Update(field, cleaned)
			res.Outcome = Accepted
		case s.retry == 0:
			s.retry = 1
			res.Outcome = Retry
		default:
			s.step++
			s.retry = 0
			s.skipped = append(s.skipped, field)
			res.Outcome = Skipped
		}
	} else {
		s.Update(field, strings.TrimFunc(input, unicode.IsSpace))
		res.Outcome = Accepted
	}
	res.Next, _ = s.NextQuestion()
	return res
}

func (s *State) Value(f Field) string { return s.data[f] }

func (s *State) Step() int { return s.step }

func (s *State) RetryCount() int { return s.retry }

func (s *State) IsCompleted() bool { return s.step >= len(Sequence) }

// Data returns a copy of the collected values keyed by field name.
func (s *State) Data() map[Field]string {
	out := make(map[Field]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Skipped lists fields abandoned after two invalid answers, in the order
// they were skipped.
func (s *State) Skipped() []Field {
	return append([]Field(nil), s.skipped...)
}

// ClaimPromo returns true exactly once per state.
func (s *State) ClaimPromo() bool {
	if s.promoSent {
		return false
	}
	s.promoSent = true
	return true
}

// Snapshot is the JSON view of the state embedded in the system prompt.
type Snapshot struct {
	CurrentStep   int              `json:"current_step"`
	CurrentField  Field            `json:"current_field"`
	RetryCount    int              `json:"retry_count"`
	CollectedData map[Field]string `json:"collected_data"`
	SkippedFields []Field          `json:"skipped_fields,omitempty"`
}

func (s *State) Snapshot() Snapshot {
	field, step := s.NextQuestion()
	return Snapshot{
		CurrentStep:   step,
		CurrentField:  field,
		RetryCount:    s.retry,
		CollectedData: s.Data(),
		SkippedFields: s.Skipped(),
	}
}
