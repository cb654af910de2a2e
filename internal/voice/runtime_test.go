package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/intent"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/model"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	c, err := contract.Load("")
	if err != nil {
		t.Fatalf("load contract: %v", err)
	}
	return NewEngine(c, nil)
}

func generate(t *testing.T, e *Engine, sessionID, prompt string, lang contract.Language) Result {
	t.Helper()
	out, err := e.Generate(context.Background(), Request{
		SessionID:     sessionID,
		Prompt:        prompt,
		EmotionalLang: lang,
	})
	if err != nil {
		t.Fatalf("generate %q: %v", prompt, err)
	}
	return out
}

func TestFreshSessionFirstEmotionalTurn(t *testing.T) {
	e := newTestEngine(t)
	out := generate(t, e, "s1", "I feel really heavy today", contract.LangEN)

	if out.Skeleton != contract.SkeletonA {
		t.Fatalf("skeleton: got %q, want A", out.Skeleton)
	}
	want := "That sounds really heavy. It makes sense you feel this way. If you want, you can tell me more."
	if out.Text != want {
		t.Errorf("text:\n got %q\nwant %q", out.Text, want)
	}
	if got := out.Trace.Selection["opener"]; got != 0 {
		t.Errorf("opener selection: got %d, want 0", got)
	}
	if out.Trace.ReplayHash == "" || !strings.HasPrefix(out.Trace.ReplayHash, "sha256:") {
		t.Errorf("replay hash malformed: %q", out.Trace.ReplayHash)
	}
	if out.Trace.Turn == nil || out.Trace.Turn.EmotionalTurnIndex != 1 {
		t.Errorf("turn info: %+v", out.Trace.Turn)
	}
}

func TestSecondIdenticalTurnRotates(t *testing.T) {
	e := newTestEngine(t)
	generate(t, e, "s1", "I feel really heavy today", contract.LangEN)
	out := generate(t, e, "s1", "I feel really heavy today", contract.LangEN)

	if out.Skeleton != contract.SkeletonA {
		t.Fatalf("skeleton: got %q", out.Skeleton)
	}
	if got := out.Trace.Selection["opener"]; got != 1 {
		t.Errorf("opener selection: got %d, want 1", got)
	}
	if got := out.Trace.Selection["validation"]; got != 1 {
		t.Errorf("validation selection: got %d, want 1", got)
	}
}

func TestDeterminismAcrossFreshSessions(t *testing.T) {
	prompts := []struct {
		prompt string
		lang   contract.Language
	}{
		{"I feel really heavy today", contract.LangEN},
		{"what is 2+2", contract.LangEN},
		{"I want to end it all", contract.LangEN},
		{"I feel like my parents keep comparing me", contract.LangEN},
		{"I feel really heavy today", contract.LangHI},
	}

	for i, p := range prompts {
		t.Run(fmt.Sprintf("prompt-%d", i), func(t *testing.T) {
			a := generate(t, newTestEngine(t), "fresh", p.prompt, p.lang)
			b := generate(t, newTestEngine(t), "fresh", p.prompt, p.lang)
			if a.Text != b.Text {
				t.Errorf("text diverged:\n%q\n%q", a.Text, b.Text)
			}
			if a.Trace.ReplayHash != b.Trace.ReplayHash {
				t.Errorf("hash diverged:\n%s\n%s", a.Trace.ReplayHash, b.Trace.ReplayHash)
			}
		})
	}
}

func TestNonEmotionalTurnHardResets(t *testing.T) {
	e := newTestEngine(t)
	generate(t, e, "s1", "I feel really heavy today", contract.LangEN)
	generate(t, e, "s1", "I feel really heavy today", contract.LangEN)

	out := generate(t, e, "s1", "what is 2+2", contract.LangEN)
	if out.Skeleton != "" {
		t.Fatalf("skeleton: got %q, want none", out.Skeleton)
	}
	if out.Trace.Turn != nil || out.Trace.Skeleton != nil {
		t.Error("emotional trace fields present on non-emotional turn")
	}
	if len(out.Trace.Selection) != 0 {
		t.Errorf("selection present: %v", out.Trace.Selection)
	}

	// Rotation memory restarted: the next emotional turn selects like a
	// fresh session.
	next := generate(t, e, "s1", "I feel really heavy today", contract.LangEN)
	if got := next.Trace.Selection["opener"]; got != 0 {
		t.Errorf("post-reset opener: got %d, want 0", got)
	}
	if next.Trace.Turn.EmotionalTurnIndex != 1 {
		t.Errorf("post-reset turn index: got %d, want 1", next.Trace.Turn.EmotionalTurnIndex)
	}
}

func TestSelfHarmGuardrailOverride(t *testing.T) {
	e := newTestEngine(t)
	out := generate(t, e, "s1", "I want to end it all", contract.LangEN)

	if out.Skeleton != contract.SkeletonC {
		t.Fatalf("skeleton: got %q, want C", out.Skeleton)
	}
	if out.Trace.Guardrail.Category != "self_harm" || out.Trace.Guardrail.Severity != "critical" {
		t.Errorf("guardrail: %+v", out.Trace.Guardrail)
	}
	if out.Trace.Guardrail.Action != "override" {
		t.Errorf("guardrail action: got %q, want override", out.Trace.Guardrail.Action)
	}
	if out.Text != "That sounds exhausting. We can just stay here for a moment." {
		t.Errorf("override text: got %q", out.Text)
	}
	if out.Trace.ToneProfile != "" {
		t.Errorf("tone profile present on override: %q", out.Trace.ToneProfile)
	}
}

func TestSelfHarmHindiOverride(t *testing.T) {
	e := newTestEngine(t)
	out := generate(t, e, "s1", "I want to end it all", contract.LangHI)

	if out.Skeleton != contract.SkeletonC {
		t.Fatalf("skeleton: got %q", out.Skeleton)
	}
	if !strings.Contains(out.Text, "थका देने वाला") {
		t.Errorf("expected the Hindi override constant, got %q", out.Text)
	}
}

func TestDegradedEngineServesAbsoluteFallback(t *testing.T) {
	e := NewDegradedEngine(errors.New("contract file missing"), nil)

	out := generate(t, e, "s1", "I feel really heavy today", contract.LangEN)
	if out.Text != "I hear you. If you want, you can tell me more." {
		t.Errorf("text: got %q", out.Text)
	}
	if out.Trace.Meta == nil {
		t.Fatal("fallback meta missing")
	}
	if out.Trace.Meta.FallbackLevel != "absolute" || out.Trace.Meta.FallbackReason != "contract_load_failure" {
		t.Errorf("meta: %+v", out.Trace.Meta)
	}

	// Absolute fallback leaves the turn index untouched.
	again := generate(t, e, "s1", "I feel really heavy today", contract.LangEN)
	if again.Trace.Turn.EmotionalTurnIndex != 0 {
		t.Errorf("turn index advanced under absolute fallback: %d", again.Trace.Turn.EmotionalTurnIndex)
	}

	// Determinism holds in degraded mode.
	if out.Trace.ReplayHash != again.Trace.ReplayHash {
		t.Errorf("degraded hashes diverged")
	}
}

func TestEmotionalTurnIndexCountsOnlyEmotionalTurns(t *testing.T) {
	e := newTestEngine(t)

	for i := 1; i <= 3; i++ {
		out := generate(t, e, "s1", "I feel really heavy today", contract.LangEN)
		if out.Trace.Turn.EmotionalTurnIndex != i {
			t.Fatalf("turn %d: index %d", i, out.Trace.Turn.EmotionalTurnIndex)
		}
	}
}

func TestFamilyThemeNeverAOrD(t *testing.T) {
	e := newTestEngine(t)
	out := generate(t, e, "s1", "I feel like my parents keep comparing me", contract.LangEN)

	if out.Skeleton == contract.SkeletonA || out.Skeleton == contract.SkeletonD {
		t.Errorf("family theme resolved to %q", out.Skeleton)
	}
	if out.Trace.Turn.LatchedTheme != "family" {
		t.Errorf("latched theme: got %q", out.Trace.Turn.LatchedTheme)
	}
}

func TestNoAdviceTokensOutsideD(t *testing.T) {
	e := newTestEngine(t)
	prompts := []string{
		"I feel really heavy today",
		"I feel like my parents keep comparing me",
		"I want to end it all",
		"what is 2+2",
		"Hello there",
	}
	for _, prompt := range prompts {
		out := generate(t, e, "s-"+prompt, prompt, contract.LangEN)
		if out.Skeleton == contract.SkeletonD {
			continue
		}
		lower := strings.ToLower(out.Text)
		for _, token := range []string{" should ", " try ", "best way"} {
			if strings.Contains(" "+lower+" ", token) {
				t.Errorf("response to %q carries advice token %q: %q", prompt, strings.TrimSpace(token), out.Text)
			}
		}
	}
}

func TestNoActionTextUnderC(t *testing.T) {
	e := newTestEngine(t)
	out := generate(t, e, "s1", "I want to end it all", contract.LangEN)
	if out.Skeleton != contract.SkeletonC {
		t.Fatalf("skeleton: got %q", out.Skeleton)
	}

	c := e.Contract()
	for _, lang := range contract.AllLanguages {
		for _, action := range c.Variants(contract.SkeletonD, lang, contract.SectionAction) {
			if strings.Contains(out.Text, action.Text) {
				t.Errorf("C response contains action text %q", action.Text)
			}
		}
	}
}

func TestSessionsDoNotInteract(t *testing.T) {
	e := newTestEngine(t)

	a1 := generate(t, e, "a", "I feel really heavy today", contract.LangEN)
	generate(t, e, "b", "I feel really heavy today", contract.LangEN)
	b2 := generate(t, e, "b", "I feel really heavy today", contract.LangEN)
	a2 := generate(t, e, "a", "I feel really heavy today", contract.LangEN)

	if a1.Trace.Selection["opener"] != 0 || a2.Trace.Selection["opener"] != 1 {
		t.Errorf("session a rotation: %d then %d", a1.Trace.Selection["opener"], a2.Trace.Selection["opener"])
	}
	if b2.Trace.Selection["opener"] != 1 {
		t.Errorf("session b rotation: got %d", b2.Trace.Selection["opener"])
	}
}

func TestConcurrentSessionsAreDeterministic(t *testing.T) {
	e := newTestEngine(t)
	const sessions = 16

	type outcome struct {
		id   int
		text string
		hash string
	}
	results := make(chan outcome, sessions)
	for i := 0; i < sessions; i++ {
		go func(id int) {
			out, err := e.Generate(context.Background(), Request{
				SessionID:     fmt.Sprintf("s-%d", id),
				Prompt:        "I feel really heavy today",
				EmotionalLang: contract.LangEN,
			})
			if err != nil {
				results <- outcome{id: id}
				return
			}
			results <- outcome{id: id, text: out.Text, hash: out.Trace.ReplayHash}
		}(i)
	}

	want := generate(t, newTestEngine(t), "ref", "I feel really heavy today", contract.LangEN)
	for i := 0; i < sessions; i++ {
		got := <-results
		if got.text != want.Text || got.hash != want.Trace.ReplayHash {
			t.Errorf("session %d diverged: %q / %s", got.id, got.text, got.hash)
		}
	}
}

func TestCancelledContextCommitsNothing(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Generate(ctx, Request{SessionID: "s1", Prompt: "I feel really heavy today", EmotionalLang: contract.LangEN}); err == nil {
		t.Fatal("expected context error")
	}

	// The abandoned request staged nothing: the next turn is a first turn.
	out := generate(t, e, "s1", "I feel really heavy today", contract.LangEN)
	if out.Trace.Turn.EmotionalTurnIndex != 1 {
		t.Errorf("turn index after abandoned request: %d", out.Trace.Turn.EmotionalTurnIndex)
	}
}

func TestGeneratorErrorPropagates(t *testing.T) {
	c, err := contract.Load("")
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(c, failingGenerator{})

	_, err = e.Generate(context.Background(), Request{SessionID: "s1", Prompt: "what is 2+2", EmotionalLang: contract.LangEN})
	if err == nil {
		t.Fatal("expected generator error")
	}

	// The emotional path never touches the generator.
	out := generate(t, e, "s1", "I feel really heavy today", contract.LangEN)
	if out.Skeleton != contract.SkeletonA {
		t.Errorf("emotional turn failed without the model: %q", out.Skeleton)
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string, intent.Kind, contract.Language) (string, error) {
	return "", errors.New("model process unavailable")
}

var _ model.Generator = failingGenerator{}

func TestHinglishPromotionSelectsHinglishPools(t *testing.T) {
	e := newTestEngine(t)
	out := generate(t, e, "s1", "Yaar I feel bahut low today", contract.LangEN)

	if out.Language != contract.LangHinglish {
		t.Fatalf("language: got %q", out.Language)
	}
	c := e.Contract()
	opener := c.Variants(contract.SkeletonA, contract.LangHinglish, contract.SectionOpener)[0].Text
	if !strings.HasPrefix(out.Text, opener) {
		t.Errorf("expected hinglish opener %q, got %q", opener, out.Text)
	}
}
