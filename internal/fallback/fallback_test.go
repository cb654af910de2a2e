package fallback

import (
	"testing"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
)

var abcSections = []contract.Section{contract.SectionOpener, contract.SectionValidation, contract.SectionClosure}

func TestAbsoluteStrings(t *testing.T) {
	want := map[contract.Skeleton]string{
		contract.SkeletonA: "I hear you. If you want, you can tell me more.",
		contract.SkeletonB: "That sounds like a lot to carry. I'm here with you.",
		contract.SkeletonC: "That sounds exhausting. We can just stay here for a moment.",
		contract.SkeletonD: "Let's keep this very small. That's enough for now.",
	}
	for sk, text := range want {
		if Absolute[sk] != text {
			t.Errorf("%s: got %q, want %q", sk, Absolute[sk], text)
		}
	}
}

func TestResolveSkeletonLocal(t *testing.T) {
	c, err := contract.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	out := Resolve(c, contract.SkeletonA, contract.LangEN, abcSections, ReasonExhausted)
	if out.Level != LevelSkeletonLocal {
		t.Fatalf("level: got %q", out.Level)
	}
	if !out.UpdatesState {
		t.Error("skeleton-local tier must update state")
	}
	want := "That sounds really heavy. It makes sense you feel this way. If you want, you can tell me more."
	if out.Text != want {
		t.Errorf("text: got %q", out.Text)
	}
	for section, id := range out.Selection {
		if id != 0 {
			t.Errorf("%s: got id %d, want 0", section, id)
		}
	}
}

func TestResolveEnglishSafe(t *testing.T) {
	c, err := contract.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// D carries no Hindi pools; the hierarchy lands on English safe.
	out := Resolve(c, contract.SkeletonD, contract.LangHI, []contract.Section{contract.SectionOpener, contract.SectionAction, contract.SectionClosure}, ReasonExhausted)
	if out.Level != LevelEnglishSafe {
		t.Fatalf("level: got %q", out.Level)
	}
	if out.Language != contract.LangEN {
		t.Errorf("language: got %q", out.Language)
	}
	if !out.UpdatesState {
		t.Error("english-safe tier must update state")
	}
}

func TestResolveAbsolute(t *testing.T) {
	tests := []struct {
		name   string
		c      *contract.Contract
		reason Reason
	}{
		{"contract-load", nil, ReasonContractLoad},
		{"assembly", nil, ReasonAssembly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Resolve(tt.c, contract.SkeletonC, contract.LangEN, abcSections, tt.reason)
			if out.Level != LevelAbsolute {
				t.Fatalf("level: got %q", out.Level)
			}
			if out.UpdatesState {
				t.Error("absolute tier must not update state")
			}
			if out.Text != Absolute[contract.SkeletonC] {
				t.Errorf("text: got %q", out.Text)
			}
		})
	}
}

func TestReasonForError(t *testing.T) {
	tests := []struct {
		err  error
		want Reason
	}{
		{ErrContractLoad, ReasonContractLoad},
		{ErrSelection, ReasonExhausted},
		{ErrState, ReasonRotationReset},
		{ErrAssembly, ReasonAssembly},
	}
	for _, tt := range tests {
		if got := ReasonForError(tt.err); got != tt.want {
			t.Errorf("%v: got %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	c, err := contract.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	a := Resolve(c, contract.SkeletonB, contract.LangEN, abcSections, ReasonExhausted)
	b := Resolve(c, contract.SkeletonB, contract.LangEN, abcSections, ReasonExhausted)
	if a.Text != b.Text || a.Level != b.Level {
		t.Errorf("fallback not deterministic: %+v vs %+v", a, b)
	}
}
