package voice

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/assembler"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/fallback"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/guardrail"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/intent"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/model"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/selector"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/session"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/skeleton"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/tone"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/trace"
)

// DefaultSessionID is used when the transport supplies no session id,
// matching the original engine's single process-wide voice state.
const DefaultSessionID = "default"

// #region engine

// Engine is the voice pipeline runtime: the deterministic path from
// classified intent to emitted response text and trace. The pipeline is a
// strict DAG with a single entry point; no stage re-enters another.
type Engine struct {
	contract    *contract.Contract // nil when the load failed
	contractErr error
	sessions    *session.Registry
	generator   model.Generator
}

// NewEngine creates a runtime over a loaded contract.
func NewEngine(c *contract.Contract, gen model.Generator) *Engine {
	if gen == nil {
		gen = model.ScaffoldGenerator{}
	}
	return &Engine{contract: c, sessions: session.NewRegistry(), generator: gen}
}

// NewDegradedEngine creates a runtime whose contract failed to load. Every
// emotional turn resolves through the absolute fallback tier.
func NewDegradedEngine(loadErr error, gen model.Generator) *Engine {
	e := NewEngine(nil, gen)
	e.contractErr = fmt.Errorf("%w: %v", fallback.ErrContractLoad, loadErr)
	return e
}

// Contract exposes the loaded contract; nil in degraded mode.
func (e *Engine) Contract() *contract.Contract {
	return e.contract
}

// EndSession destroys the session's state.
func (e *Engine) EndSession(id string) {
	e.sessions.End(id)
}

// #endregion

// #region request-result

// Request is one turn of input.
type Request struct {
	SessionID     string
	Prompt        string
	EmotionalLang contract.Language
}

// Result is the completed turn.
type Result struct {
	Text     string
	Trace    trace.Trace
	Intent   intent.Kind
	Skeleton contract.Skeleton // empty on non-emotional turns
	Language contract.Language
}

// #endregion

// #region generate

// Generate runs one request through the pipeline. Requests for the same
// session serialize on the per-session lock; requests for different
// sessions run in parallel without interaction.
func (e *Engine) Generate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	it := intent.Classify(req.Prompt)
	safety := guardrail.Result{Category: it.SafetyCategory, Severity: it.Severity}
	lang := intent.ResolveLanguage(req.Prompt, req.EmotionalLang)

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	sess := e.sessions.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()

	if !it.Emotional() {
		return e.generateNonEmotional(ctx, req, it, safety, lang, sess.State)
	}
	return e.generateEmotional(ctx, req, it, safety, lang, sess.State)
}

// #endregion

// #region non-emotional

// generateNonEmotional routes the turn to the generative model. The
// emotional→non-emotional transition fires the hard reset.
func (e *Engine) generateNonEmotional(ctx context.Context, req Request, it intent.Intent, safety guardrail.Result, lang contract.Language, state *session.SessionVoiceState) (Result, error) {
	text, err := e.generator.Generate(ctx, req.Prompt, it.Kind, lang)
	if err != nil {
		return Result{}, fmt.Errorf("generate: %w", err)
	}

	action := guardrail.Apply(safety, e.contract, contract.SkeletonA, lang, fallback.Absolute)
	guardInfo := trace.GuardrailInfo{
		Category: string(safety.Category),
		Severity: string(safety.Severity),
		Action:   "none",
	}
	if action.Override {
		text = action.Text
		guardInfo.Action = "override"
		log.Printf("[GUARD] override: category=%s severity=%s", safety.Category, safety.Severity)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Hard reset: intent transitioned out of the emotional lane.
	if state.LastSkeleton != "" || state.EmotionalTurnIndex > 0 || state.LatchedTheme != intent.ThemeNone {
		state.HardReset()
		log.Printf("[VOICE] hard reset: non-emotional turn")
	}

	hash, err := trace.ReplayHash(trace.ReplayInput{
		Prompt:            req.Prompt,
		EmotionalLang:     string(lang),
		GuardrailCategory: guardInfo.Category,
		GuardrailSeverity: guardInfo.Severity,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Text:     text,
		Intent:   it.Kind,
		Language: lang,
		Trace: trace.Trace{
			Guardrail:  guardInfo,
			ReplayHash: hash,
		},
	}, nil
}

// #endregion

// #region emotional

// generateEmotional runs the voice pipeline: resolve → select → assemble →
// guardrail → trace. State writes are staged and committed once at the end
// of the turn; an error or an abandoned request discards them.
func (e *Engine) generateEmotional(ctx context.Context, req Request, it intent.Intent, safety guardrail.Result, lang contract.Language, state *session.SessionVoiceState) (Result, error) {
	res := skeleton.Resolve(it, state, lang)
	base := res.Skeleton
	after := guardrail.EscalateSkeleton(safety, base)
	if after != base {
		log.Printf("[GUARD] escalation: %s -> %s category=%s", base, after, safety.Category)
	}
	if safety.Category == guardrail.CategorySelfHarm {
		res.Escalation = session.EscalationLatched
	}

	if e.contract == nil {
		return e.emitFallback(req, it, res, base, after, safety, fallback.Resolve(nil, after, res.Language, nil, fallback.ReasonContractLoad), state)
	}

	policy := skeleton.Policies[after]
	stage := session.NewStage()
	stagePartialResets(stage, state, res, after)

	tc := skeleton.TurnContext{
		Skeleton:           after,
		Language:           res.Language,
		Escalation:         res.Escalation,
		LatchedTheme:       res.LatchedTheme,
		EmotionalTurnIndex: state.EmotionalTurnIndex,
	}

	var meta *trace.Meta
	choices, err := selector.Select(tc, e.contract, state, stage)
	if errors.Is(err, fallback.ErrState) {
		// E3: clear the affected skeleton's pools, then a single re-selection.
		log.Printf("[VOICE] rotation memory inconsistency, clearing %s pools: %v", after, err)
		stage = session.NewStage()
		stagePartialResets(stage, state, res, after)
		stage.ResetSkeletonPools(after)
		choices, err = selector.Select(tc, e.contract, state, stage)
		if err == nil {
			meta = &trace.Meta{
				FallbackReason: string(fallback.ReasonRotationReset),
				FallbackLevel:  string(fallback.LevelSkeletonLocal),
			}
		}
	}
	if err != nil {
		reason := fallback.ReasonForError(err)
		log.Printf("[VOICE] selection failed (%s): %v", reason, err)
		return e.emitFallback(req, it, res, base, after, safety, fallback.Resolve(e.contract, after, res.Language, policy.Sections, reason), state)
	}

	texts := make(map[contract.Section]string, len(choices))
	for section, choice := range choices {
		texts[section] = choice.Text
	}
	text, err := assembler.Assemble(after, texts)
	if err != nil {
		log.Printf("[VOICE] assembly failed: %v", err)
		return e.emitFallback(req, it, res, base, after, safety, fallback.Resolve(e.contract, after, res.Language, policy.Sections, fallback.ReasonAssembly), state)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	out := e.buildSelected(req, it, res, base, after, safety, choices, stage, state)
	out.Text = text
	if out.OverrideText != "" {
		out.Text = out.OverrideText
	}
	out.Trace.Meta = meta
	return out.Result, nil
}

// stagePartialResets stages the §4.2 partial resets: ladder step-up clears
// the new skeleton's pools, a newly latched family theme clears the
// skeletons it constrains, a language change clears the new language.
func stagePartialResets(stage *session.StagedWrites, state *session.SessionVoiceState, res skeleton.Resolution, after contract.Skeleton) {
	if state.LastSkeleton != "" && skeleton.Rank(after) > skeleton.Rank(state.LastSkeleton) {
		stage.ResetSkeletonPools(after)
	}
	if res.LatchedTheme == intent.ThemeFamily && state.LatchedTheme != intent.ThemeFamily {
		stage.ResetSkeletonPools(contract.SkeletonB)
		stage.ResetSkeletonPools(contract.SkeletonC)
	}
	if state.LastLanguage != "" && state.LastLanguage != res.Language {
		stage.ResetLanguagePools(res.Language)
	}
}

// #endregion

// #region build

type selectedResult struct {
	Result
	OverrideText string
}

// buildSelected finishes a successfully selected turn: guardrail override,
// tone, trace, replay hash, and the atomic state commit.
func (e *Engine) buildSelected(req Request, it intent.Intent, res skeleton.Resolution, base, after contract.Skeleton, safety guardrail.Result, choices map[contract.Section]selector.Choice, stage *session.StagedWrites, state *session.SessionVoiceState) selectedResult {
	action := guardrail.Apply(safety, e.contract, after, res.Language, fallback.Absolute)

	selection := make(map[string]int, len(choices))
	for section, choice := range choices {
		selection[string(section)] = choice.VariantID
	}

	toneProfile := ""
	if !action.Override {
		toneProfile = deriveTone(after, safety)
	}

	previous := state.LastSkeleton
	stage.IncrementTurn()
	stage.SetLastSkeleton(after)
	stage.SetLastLanguage(res.Language)
	stage.SetEscalation(res.Escalation)
	stage.SetTheme(res.LatchedTheme)
	if after == contract.SkeletonC {
		high := false
		for _, choice := range choices {
			if choice.Entry.HasTag(contract.TagHighActivity) {
				high = true
			}
		}
		stage.SetCHighActivity(high)
	}
	stage.Commit(state)

	guardInfo := trace.GuardrailInfo{
		Category: string(safety.Category),
		Severity: string(safety.Severity),
		Action:   "none",
	}
	if action.Override {
		guardInfo.Action = "override"
	}

	hash, hashErr := trace.ReplayHash(trace.ReplayInput{
		Prompt:            req.Prompt,
		EmotionalLang:     string(res.Language),
		GuardrailCategory: guardInfo.Category,
		GuardrailSeverity: guardInfo.Severity,
		Skeleton:          string(after),
		ToneProfile:       toneProfile,
		Selection:         selection,
	})
	if hashErr != nil {
		// Marshal of plain strings and ints cannot fail; keep the turn.
		log.Printf("[VOICE] replay hash: %v", hashErr)
	}

	return selectedResult{
		Result: Result{
			Intent:   it.Kind,
			Skeleton: after,
			Language: res.Language,
			Trace: trace.Trace{
				Turn: &trace.TurnInfo{
					EmotionalTurnIndex: state.EmotionalTurnIndex,
					Intent:             string(it.Kind),
					EmotionalLang:      string(res.Language),
					PreviousSkeleton:   string(previous),
					ResolvedSkeleton:   string(after),
					SkeletonTransition: string(base) + "->" + string(after),
					EscalationState:    string(res.Escalation),
					LatchedTheme:       string(res.LatchedTheme),
				},
				Guardrail:   guardInfo,
				Skeleton:    &trace.SkeletonInfo{Base: string(base), AfterGuardrail: string(after)},
				ToneProfile: toneProfile,
				Selection:   selection,
				ReplayHash:  hash,
			},
		},
		OverrideText: action.Text,
	}
}

// emitFallback finishes a turn through the fallback engine. Skeleton-local
// and English-safe tiers update rotation memory and the turn index; the
// absolute tier leaves state untouched.
func (e *Engine) emitFallback(req Request, it intent.Intent, res skeleton.Resolution, base, after contract.Skeleton, safety guardrail.Result, out fallback.Outcome, state *session.SessionVoiceState) (Result, error) {
	previous := state.LastSkeleton
	turnIndex := state.EmotionalTurnIndex

	selection := make(map[string]int, len(out.Selection))
	if out.UpdatesState {
		stage := session.NewStage()
		for section, id := range out.Selection {
			key := contract.PoolKey{Skeleton: after, Language: out.Language, Section: section}
			stage.AppendUsage(key, session.VariantUsage{VariantID: id, TurnIndex: turnIndex})
			selection[string(section)] = id
		}
		stage.IncrementTurn()
		stage.SetLastSkeleton(after)
		stage.SetLastLanguage(res.Language)
		stage.SetEscalation(res.Escalation)
		stage.SetTheme(res.LatchedTheme)
		stage.Commit(state)
		turnIndex = state.EmotionalTurnIndex
	}

	guardInfo := trace.GuardrailInfo{
		Category: string(safety.Category),
		Severity: string(safety.Severity),
		Action:   "none",
	}
	text := out.Text
	if action := guardrail.Apply(safety, e.contract, after, res.Language, fallback.Absolute); action.Override {
		guardInfo.Action = "override"
		text = action.Text
	}

	hash, err := trace.ReplayHash(trace.ReplayInput{
		Prompt:            req.Prompt,
		EmotionalLang:     string(res.Language),
		GuardrailCategory: guardInfo.Category,
		GuardrailSeverity: guardInfo.Severity,
		Skeleton:          string(after),
		Selection:         selection,
	})
	if err != nil {
		return Result{}, err
	}

	log.Printf("[VOICE] fallback: reason=%s level=%s skeleton=%s", out.Reason, out.Level, after)

	return Result{
		Text:     text,
		Intent:   it.Kind,
		Skeleton: after,
		Language: res.Language,
		Trace: trace.Trace{
			Turn: &trace.TurnInfo{
				EmotionalTurnIndex: turnIndex,
				Intent:             string(it.Kind),
				EmotionalLang:      string(res.Language),
				PreviousSkeleton:   string(previous),
				ResolvedSkeleton:   string(after),
				SkeletonTransition: string(base) + "->" + string(after),
				EscalationState:    string(res.Escalation),
				LatchedTheme:       string(res.LatchedTheme),
			},
			Guardrail:  guardInfo,
			Skeleton:   &trace.SkeletonInfo{Base: string(base), AfterGuardrail: string(after)},
			Selection:  selection,
			ReplayHash: hash,
			Meta: &trace.Meta{
				FallbackReason: string(out.Reason),
				FallbackLevel:  string(out.Level),
			},
		},
	}, nil
}

func deriveTone(sk contract.Skeleton, safety guardrail.Result) string {
	profile, ok := tone.Profile(sk, safety)
	if !ok {
		return ""
	}
	return profile
}

// #endregion
