package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONSpan(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"prose around", `Sure! {"a":{"b":2}} hope that helps`, `{"a":{"b":2}}`, true},
		{"bare fence", "```\n{\"a\":1}```", `{"a":1}`, true},
		{"no braces", "no json here", "", false},
		{"reversed", "} {", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := JSONSpan(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
