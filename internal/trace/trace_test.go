package trace

import (
	"bytes"
	"strings"
	"testing"
)

func TestMarshalCanonicalForm(t *testing.T) {
	got, err := Marshal(map[string]any{
		"b":     2,
		"a":     1,
		"nested": map[string]any{"z": "last", "y": "first"},
		"list":  []any{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"a":1,"b":2,"list":[1,2,3],"nested":{"y":"first","z":"last"}}`
	if string(got) != want {
		t.Errorf("got %s\nwant %s", got, want)
	}
}

func TestMarshalUTF8Unescaped(t *testing.T) {
	got, err := Marshal(map[string]any{"text": "मन भारी है"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(got) != `{"text":"मन भारी है"}` {
		t.Errorf("non-ASCII escaped: %s", got)
	}
}

func TestMarshalRejectsFloats(t *testing.T) {
	if _, err := Marshal(map[string]any{"x": 1.5}); err == nil {
		t.Error("float accepted")
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	inputs := []string{
		`{"b": 2, "a": 1}`,
		`{"selection": {"opener": 0, "closure": 0}, "skeleton": "A"}`,
		`{"turn": {"emotional_lang": "hi", "text": "मन"}}`,
		`[1, 2, {"k": "v"}]`,
	}
	for _, in := range inputs {
		once, err := Canonicalize([]byte(in))
		if err != nil {
			t.Fatalf("canonicalize %q: %v", in, err)
		}
		twice, err := Canonicalize(once)
		if err != nil {
			t.Fatalf("re-canonicalize %q: %v", once, err)
		}
		if !bytes.Equal(once, twice) {
			t.Errorf("not idempotent: %s vs %s", once, twice)
		}
	}
}

func TestReplayHashFormat(t *testing.T) {
	hash, err := ReplayHash(ReplayInput{
		Prompt:            "I feel really heavy today",
		EmotionalLang:     "en",
		GuardrailCategory: "none",
		GuardrailSeverity: "none",
		Skeleton:          "A",
		ToneProfile:       "neutral_formal",
		Selection:         map[string]int{"opener": 0, "validation": 0, "closure": 0},
	})
	if err != nil {
		t.Fatalf("replay hash: %v", err)
	}
	if !strings.HasPrefix(hash, "sha256:") {
		t.Fatalf("missing prefix: %s", hash)
	}
	hexPart := strings.TrimPrefix(hash, "sha256:")
	if len(hexPart) != 64 {
		t.Fatalf("hex length: got %d, want 64", len(hexPart))
	}
	for _, r := range hexPart {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Fatalf("non-lowercase-hex rune %q in %s", r, hash)
		}
	}
}

func TestReplayHashStable(t *testing.T) {
	in := ReplayInput{
		Prompt:            "I feel really heavy today",
		EmotionalLang:     "en",
		GuardrailCategory: "none",
		GuardrailSeverity: "none",
		Skeleton:          "A",
		Selection:         map[string]int{"opener": 0, "validation": 0, "closure": 0},
	}
	a, err := ReplayHash(in)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ReplayHash(in)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("hash unstable: %s vs %s", a, b)
	}
}

func TestReplayHashSensitivity(t *testing.T) {
	base := ReplayInput{
		Prompt:            "I feel really heavy today",
		EmotionalLang:     "en",
		GuardrailCategory: "none",
		GuardrailSeverity: "none",
		Skeleton:          "A",
		ToneProfile:       "neutral_formal",
		Selection:         map[string]int{"opener": 0},
	}
	baseHash, err := ReplayHash(base)
	if err != nil {
		t.Fatal(err)
	}

	mutations := []struct {
		name   string
		mutate func(ReplayInput) ReplayInput
	}{
		{"prompt", func(in ReplayInput) ReplayInput { in.Prompt = "other"; return in }},
		{"emotional-lang", func(in ReplayInput) ReplayInput { in.EmotionalLang = "hi"; return in }},
		{"guardrail-category", func(in ReplayInput) ReplayInput { in.GuardrailCategory = "self_harm"; return in }},
		{"guardrail-severity", func(in ReplayInput) ReplayInput { in.GuardrailSeverity = "critical"; return in }},
		{"skeleton", func(in ReplayInput) ReplayInput { in.Skeleton = "C"; return in }},
		{"tone-profile", func(in ReplayInput) ReplayInput { in.ToneProfile = "warm_engaged"; return in }},
		{"selection", func(in ReplayInput) ReplayInput { in.Selection = map[string]int{"opener": 1}; return in }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			mutated, err := ReplayHash(tt.mutate(base))
			if err != nil {
				t.Fatal(err)
			}
			if mutated == baseHash {
				t.Errorf("hash insensitive to %s", tt.name)
			}
		})
	}
}
