package intent

import (
	"testing"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/guardrail"
)

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   Kind
	}{
		{"emotional-feel", "I feel really heavy today", KindEmotional},
		{"emotional-lonely", "I've been so lonely lately", KindEmotional},
		{"emotional-resignation", "What's the point of any of this", KindEmotional},
		{"emotional-guilt", "I keep wasting time and falling behind", KindEmotional},
		{"emotional-overwhelm", "My mind is racing and I can't switch off", KindEmotional},
		{"factual-what", "what is 2+2", KindFactual},
		{"factual-who", "Who is the president of India?", KindFactual},
		{"factual-capital", "capital of France?", KindFactual},
		{"explanatory", "Explain recursion in simple words", KindExplanatory},
		{"conversational", "Hello there", KindConversational},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.prompt); got.Kind != tt.want {
				t.Errorf("kind: got %q, want %q", got.Kind, tt.want)
			}
		})
	}
}

func TestClassifyThemes(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   Theme
	}{
		{"family", "I feel like my parents keep comparing me to everyone", ThemeFamily},
		{"resignation", "I feel like giving up, nothing will change", ThemeResignation},
		{"anxious", "I feel anxious all the time", ThemeAnxious},
		{"drained", "I feel completely drained", ThemeDrained},
		{"pressured", "I feel like the expectations are too much", ThemePressured},
		{"none", "I feel really heavy today", ThemeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.prompt); got.Theme != tt.want {
				t.Errorf("theme: got %q, want %q", got.Theme, tt.want)
			}
		})
	}
}

func TestSelfHarmForcesEmotional(t *testing.T) {
	got := Classify("I want to end it all")
	if got.Kind != KindEmotional {
		t.Errorf("kind: got %q, want emotional", got.Kind)
	}
	if got.SafetyCategory != guardrail.CategorySelfHarm {
		t.Errorf("safety category: got %q", got.SafetyCategory)
	}
	if !got.Severity.AtLeast(guardrail.SeverityHigh) {
		t.Errorf("severity: got %q, want at least high", got.Severity)
	}
	if !got.EscalationSignal {
		t.Error("escalation signal not set")
	}
}

func TestClassifyDeterministic(t *testing.T) {
	a := Classify("I feel like my parents keep comparing me")
	b := Classify("I feel like my parents keep comparing me")
	if a != b {
		t.Errorf("classification not deterministic: %+v vs %+v", a, b)
	}
}

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		name      string
		prompt    string
		requested contract.Language
		want      contract.Language
	}{
		{"plain-en", "I feel really heavy today", contract.LangEN, contract.LangEN},
		{"requested-hi", "I feel really heavy today", contract.LangHI, contract.LangHI},
		{"devanagari", "मन बहुत भारी है", contract.LangEN, contract.LangHI},
		{"hinglish", "Yaar I feel bahut low today", contract.LangEN, contract.LangHinglish},
		{"hinglish-word-boundary", "The mechanism is dynamic", contract.LangEN, contract.LangEN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveLanguage(tt.prompt, tt.requested); got != tt.want {
				t.Errorf("language: got %q, want %q", got, tt.want)
			}
		})
	}
}
