package assistant

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"kiosk-assistant/internal/booking"
	"kiosk-assistant/internal/types"
)

// Canned is a fixed avatar message defined in the prompt pack.
type Canned struct {
	Text             string `yaml:"text"`
	FacialExpression string `yaml:"facial_expression"`
	Animation        string `yaml:"animation"`
}

func (c Canned) Message() types.AvatarMessage {
	return types.AvatarMessage{Text: c.Text, FacialExpression: c.FacialExpression, Animation: c.Animation}
}

// LanguagePack holds everything the gateway says in one language.
type LanguagePack struct {
	System       string                   `yaml:"system"`
	Questions    map[booking.Field]string `yaml:"questions"`
	Corrections  map[booking.Field]Canned `yaml:"corrections"`
	Skips        map[booking.Field]Canned `yaml:"skips"`
	ApologyParse Canned                   `yaml:"apology_parse"`
	ApologyError Canned                   `yaml:"apology_error"`
	Promo        Canned                   `yaml:"promo"`
}

type PromptPack struct {
	DefaultLanguage string                  `yaml:"default_language"`
	PromoAirports   []string                `yaml:"promo_airports"`
	Languages       map[string]LanguagePack `yaml:"languages"`
}

// LoadPromptPack reads and checks the YAML prompt pack at path.
func LoadPromptPack(path string) (*PromptPack, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pack PromptPack
	if err := yaml.Unmarshal(b, &pack); err != nil {
		return nil, fmt.Errorf("parse prompt pack %s: %w", path, err)
	}
	if pack.DefaultLanguage == "" {
		pack.DefaultLanguage = "fa"
	}
	if _, ok := pack.Languages[pack.DefaultLanguage]; !ok {
		return nil, fmt.Errorf("prompt pack %s: default language %q not defined", path, pack.DefaultLanguage)
	}
	for lang, lp := range pack.Languages {
		if strings.TrimSpace(lp.System) == "" {
			return nil, fmt.Errorf("prompt pack %s: language %q has no system prompt", path, lang)
		}
		for _, f := range booking.Sequence {
			if lp.Questions[f] == "" {
				return nil, fmt.Errorf("prompt pack %s: language %q has no question for %s", path, lang, f)
			}
			if booking.Validated(f) && (lp.Corrections[f].Text == "" || lp.Skips[f].Text == "") {
				return nil, fmt.Errorf("prompt pack %s: language %q lacks correction or skip text for %s", path, lang, f)
			}
		}
	}
	return &pack, nil
}

// Language returns the pack for lang, falling back to the default language.
func (p *PromptPack) Language(lang string) (string, LanguagePack) {
	if lp, ok := p.Languages[lang]; ok {
		return lang, lp
	}
	return p.DefaultLanguage, p.Languages[p.DefaultLanguage]
}

// IsPromoAirport reports whether an origin airport answer names one of the
// promotional airports.
func (p *PromptPack) IsPromoAirport(origin string) bool {
	origin = strings.ToLower(strings.TrimSpace(origin))
	if origin == "" {
		return false
	}
	for _, name := range p.PromoAirports {
		if name != "" && strings.Contains(origin, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// Question returns the question text for field, including the completion text.
func (lp LanguagePack) Question(field booking.Field) string {
	return lp.Questions[field]
}

// SystemPrompt fills the system template with the booking snapshot, the
// next question and the knowledge base.
func (lp LanguagePack) SystemPrompt(state, nextQuestion, knowledge string) string {
	r := strings.NewReplacer(
		"{{state}}", state,
		"{{next_question}}", nextQuestion,
		"{{knowledge_base}}", knowledge,
	)
	return r.Replace(lp.System)
}
