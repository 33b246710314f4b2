package assistant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk-assistant/internal/booking"
)

func TestLoadPromptPack(t *testing.T) {
	pack, err := LoadPromptPack("../../prompts/assistant.yaml")
	require.NoError(t, err)
	assert.Equal(t, "fa", pack.DefaultLanguage)

	fields := append(append([]booking.Field(nil), booking.Sequence...), booking.Completed)
	for _, lang := range []string{"fa", "en"} {
		got, lp := pack.Language(lang)
		assert.Equal(t, lang, got)
		for _, f := range fields {
			assert.NotEmpty(t, lp.Question(f), "%s/%s", lang, f)
		}
		assert.NotEmpty(t, lp.Promo.Text)
		assert.NotEmpty(t, lp.ApologyParse.Text)
		assert.NotEmpty(t, lp.ApologyError.Text)
	}

	got, lp := pack.Language("de")
	assert.Equal(t, "fa", got)
	assert.Equal(t, "نام فرودگاه مبدا رو بفرمایید.", lp.Question(booking.OriginAirport))
}

func TestPromptPackRejectsIncompletePack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_language: fa\nlanguages:\n  fa:\n    system: hi\n"), 0o644))
	_, err := LoadPromptPack(path)
	assert.ErrorContains(t, err, "no question")

	require.NoError(t, os.WriteFile(path, []byte("default_language: en\nlanguages: {}\n"), 0o644))
	_, err = LoadPromptPack(path)
	assert.ErrorContains(t, err, "default language")
}

func TestIsPromoAirport(t *testing.T) {
	pack := &PromptPack{PromoAirports: []string{"امام خمینی", "Imam Khomeini"}}
	assert.True(t, pack.IsPromoAirport("امام خمینی"))
	assert.True(t, pack.IsPromoAirport("فرودگاه امام خمینی"))
	assert.True(t, pack.IsPromoAirport(" imam khomeini airport "))
	assert.False(t, pack.IsPromoAirport("مشهد"))
	assert.False(t, pack.IsPromoAirport(""))
}

func TestSystemPromptPlaceholders(t *testing.T) {
	lp := LanguagePack{System: "state={{state}} next={{next_question}} kb={{knowledge_base}}"}
	assert.Equal(t, "state={} next=q kb=k", lp.SystemPrompt("{}", "q", "k"))
}
