package intent

import (
	"strings"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/guardrail"
)

// #region kind

// Kind classifies the semantic category of a user prompt.
type Kind string

const (
	KindEmotional      Kind = "emotional"
	KindFactual        Kind = "factual"
	KindExplanatory    Kind = "explanatory"
	KindConversational Kind = "conversational"
)

// #endregion

// #region theme

// Theme is the detected emotional theme, if any.
type Theme string

const (
	ThemeNone        Theme = ""
	ThemeLost        Theme = "lost"
	ThemeAnxious     Theme = "anxious"
	ThemeDrained     Theme = "drained"
	ThemePressured   Theme = "pressured"
	ThemeFamily      Theme = "family"
	ThemeResignation Theme = "resignation"

	// ThemeOther is the latched form of any theme that does not constrain
	// skeleton choice on its own.
	ThemeOther Theme = "other"
)

// #endregion

// #region signals

// Signals are the boolean shaping cues the skeleton resolver consumes.
type Signals struct {
	WantsAction bool
	Overwhelm   bool
	Guilt       bool
	Resignation bool
	Family      bool
}

// #endregion

// #region intent

// Intent is the full classification output for a prompt. It is a pure
// function of the text plus the static lexicon; downstream stages never
// re-read the user text.
type Intent struct {
	Kind             Kind
	Theme            Theme
	Signals          Signals
	EscalationSignal bool
	SafetyCategory   guardrail.Category
	Severity         guardrail.Severity
}

// Emotional reports whether the turn takes the voice pipeline.
func (i Intent) Emotional() bool {
	return i.Kind == KindEmotional
}

// #endregion

// #region classify

// Classify maps raw user text to an Intent. Deterministic; no session
// state, contract, or rotation memory access.
func Classify(prompt string) Intent {
	lower := strings.ToLower(strings.TrimSpace(prompt))
	safety := guardrail.Classify(prompt)

	it := Intent{
		Kind:           classifyKind(lower),
		SafetyCategory: safety.Category,
		Severity:       safety.Severity,
	}

	// Self-harm anchors route to the voice pipeline regardless of surface
	// phrasing, and always escalate.
	if safety.Category == guardrail.CategorySelfHarm && safety.Severity.AtLeast(guardrail.SeverityHigh) {
		it.Kind = KindEmotional
		it.EscalationSignal = true
	}

	if it.Kind != KindEmotional {
		return it
	}

	it.Signals = Signals{
		WantsAction: containsAny(lower, actionRequestMarkers) && containsAny(lower, timeboxMarkers),
		Overwhelm:   containsAny(lower, overwhelmMarkers) || containsAny(lower, themePressuredMarkers),
		Guilt:       containsAny(lower, guiltMarkers),
		Resignation: containsAny(lower, resignationMarkers),
		Family:      containsAny(lower, themeFamilyMarkers),
	}
	it.Theme = detectTheme(lower, it.Signals)
	if it.Signals.Resignation {
		it.EscalationSignal = true
	}
	return it
}

func classifyKind(lower string) Kind {
	if containsAny(lower, emotionalKeywords) ||
		containsAny(lower, resignationMarkers) ||
		containsAny(lower, guiltMarkers) ||
		containsAny(lower, overwhelmMarkers) {
		return KindEmotional
	}
	if containsAny(lower, explanatoryKeywords) {
		return KindExplanatory
	}
	for _, p := range factualPrefixes {
		if strings.HasPrefix(lower, p) {
			return KindFactual
		}
	}
	return KindConversational
}

// detectTheme classifies the emotional theme. Family and resignation take
// precedence because they constrain skeleton choice downstream.
func detectTheme(lower string, signals Signals) Theme {
	switch {
	case signals.Family:
		return ThemeFamily
	case signals.Resignation:
		return ThemeResignation
	case containsAny(lower, themeLostMarkers):
		return ThemeLost
	case containsAny(lower, themeAnxiousMarkers):
		return ThemeAnxious
	case containsAny(lower, themeDrainedMarkers):
		return ThemeDrained
	case containsAny(lower, themePressuredMarkers):
		return ThemePressured
	}
	return ThemeNone
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// #endregion

// #region language

// ResolveLanguage picks the internal response language. A requested "hi"
// wins; Devanagari script in the prompt promotes to hi; Hinglish markers
// promote an English request to hinglish.
func ResolveLanguage(prompt string, requested contract.Language) contract.Language {
	if requested == contract.LangHI {
		return contract.LangHI
	}
	for _, r := range prompt {
		if r >= 0x0900 && r <= 0x097F {
			return contract.LangHI
		}
	}
	lower := strings.ToLower(prompt)
	for _, marker := range hinglishMarkers {
		if containsWord(lower, marker) {
			return contract.LangHinglish
		}
	}
	return contract.LangEN
}

// containsWord matches marker as a whole word so "nahi" does not fire on
// English words that merely embed the letters.
func containsWord(text, marker string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], marker)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(marker)
		beforeOK := start == 0 || !isLetter(text[start-1])
		afterOK := end == len(text) || !isLetter(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// #endregion
