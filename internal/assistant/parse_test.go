package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk-assistant/internal/types"
)

func TestParseReply(t *testing.T) {
	hi := types.AvatarMessage{Text: "hi", FacialExpression: "smile", Animation: "Talking_1"}
	tests := []struct {
		name     string
		raw      string
		want     []types.AvatarMessage
		fallback bool
		err      error
	}{
		{
			name: "messages envelope",
			raw:  `{"messages":[{"text":"hi","facialExpression":"smile","animation":"Talking_1"}]}`,
			want: []types.AvatarMessage{hi},
		},
		{
			name: "bare array",
			raw:  ` [{"text":"hi","facialExpression":"smile","animation":"Talking_1"}] `,
			want: []types.AvatarMessage{hi},
		},
		{
			name: "single message object",
			raw:  `{"text":"hi","facialExpression":"smile","animation":"Talking_1"}`,
			want: []types.AvatarMessage{hi},
		},
		{
			name: "defaults and blank entries dropped",
			raw:  `{"messages":[{"text":"  "},{"text":"one"}]}`,
			want: []types.AvatarMessage{{Text: "one", FacialExpression: DefaultFacialExpression, Animation: DefaultAnimation}},
		},
		{
			name:     "prose around object",
			raw:      `Here: {"messages":[{"text":"hi","facialExpression":"smile","animation":"Talking_1"}]} ok`,
			want:     []types.AvatarMessage{hi},
			fallback: true,
		},
		{
			name:     "not json",
			raw:      "sorry, I can't",
			fallback: true,
			err:      ErrMalformedJSON,
		},
		{
			name:     "span still broken",
			raw:      `x {"messages": [} y`,
			fallback: true,
			err:      ErrMalformedJSON,
		},
		{name: "empty messages", raw: `{"messages":[]}`, err: ErrEmptyMessages},
		{name: "empty array", raw: `[]`, err: ErrEmptyMessages},
		{name: "unknown object", raw: `{"answer":"hi"}`, err: ErrUnexpectedShape},
		{name: "messages not array", raw: `{"messages":"hi"}`, err: ErrUnexpectedShape},
		{name: "array of strings", raw: `["hi"]`, err: ErrUnexpectedShape},
		{name: "top-level string", raw: `"hi"`, err: ErrUnexpectedShape},
		{name: "top-level number", raw: `42`, err: ErrUnexpectedShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fallback, err := ParseReply(tt.raw)
			assert.Equal(t, tt.fallback, fallback)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
