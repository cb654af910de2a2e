package fallback

import (
	"errors"
	"strings"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
)

// #region taxonomy

// Closed error taxonomy. Every internal failure maps onto one of these
// sentinels; nothing else crosses component boundaries.
var (
	ErrContractLoad = errors.New("contract load failure")         // E1
	ErrSelection    = errors.New("selection failure")             // E2
	ErrState        = errors.New("rotation memory inconsistency") // E3
	ErrAssembly     = errors.New("assembly failure")              // E4
)

// Reason is the trace-visible fallback cause.
type Reason string

const (
	ReasonContractLoad  Reason = "contract_load_failure"
	ReasonExhausted     Reason = "selection_exhausted"
	ReasonRotationReset Reason = "rotation_memory_reset"
	ReasonAssembly      Reason = "assembly_failure"
)

// Level is the fallback tier that produced the response.
type Level string

const (
	LevelSkeletonLocal Level = "skeleton_local"
	LevelEnglishSafe   Level = "english_safe"
	LevelAbsolute      Level = "absolute"
)

// ReasonForError maps a taxonomy error onto its trace reason.
func ReasonForError(err error) Reason {
	switch {
	case errors.Is(err, ErrContractLoad):
		return ReasonContractLoad
	case errors.Is(err, ErrState):
		return ReasonRotationReset
	case errors.Is(err, ErrAssembly):
		return ReasonAssembly
	}
	return ReasonExhausted
}

// #endregion

// #region absolute

// Absolute holds the hard-coded immutable per-skeleton strings compiled
// into the binary. The absolute tier never touches rotation memory and
// never increments the emotional turn index.
var Absolute = map[contract.Skeleton]string{
	contract.SkeletonA: "I hear you. If you want, you can tell me more.",
	contract.SkeletonB: "That sounds like a lot to carry. I'm here with you.",
	contract.SkeletonC: "That sounds exhausting. We can just stay here for a moment.",
	contract.SkeletonD: "Let's keep this very small. That's enough for now.",
}

// #endregion

// #region outcome

// Outcome is a resolved fallback: the safe text plus its trace meta and
// whether the tier is allowed to mutate session state.
type Outcome struct {
	Text         string
	Level        Level
	Reason       Reason
	UpdatesState bool
	Language     contract.Language        // language whose pools were used
	Selection    map[contract.Section]int // variant ids used, nil for absolute
}

// #endregion

// #region resolve

// Resolve walks the three-tier hierarchy in order: skeleton-local variant 0,
// English safe, absolute. No retries, no regeneration. The same error on
// the same state produces the same string. Contract-load and assembly
// failures route straight to the absolute tier.
func Resolve(c *contract.Contract, sk contract.Skeleton, language contract.Language, sections []contract.Section, reason Reason) Outcome {
	if reason == ReasonContractLoad || reason == ReasonAssembly || c == nil {
		return absolute(sk, reason)
	}

	if out, ok := tier(c, sk, language, sections); ok {
		out.Level = LevelSkeletonLocal
		out.Reason = reason
		out.Language = language
		return out
	}
	if language != contract.LangEN {
		if out, ok := tier(c, sk, contract.LangEN, sections); ok {
			out.Level = LevelEnglishSafe
			out.Reason = reason
			out.Language = contract.LangEN
			return out
		}
	}
	return absolute(sk, reason)
}

// tier assembles variant 0 of every section for one language.
func tier(c *contract.Contract, sk contract.Skeleton, language contract.Language, sections []contract.Section) (Outcome, bool) {
	parts := make([]string, 0, len(sections))
	selection := make(map[contract.Section]int, len(sections))
	for _, section := range sections {
		variants := c.Variants(sk, language, section)
		if len(variants) == 0 {
			return Outcome{}, false
		}
		parts = append(parts, variants[0].Text)
		selection[section] = 0
	}
	return Outcome{
		Text:         strings.Join(parts, " "),
		UpdatesState: true,
		Selection:    selection,
	}, true
}

func absolute(sk contract.Skeleton, reason Reason) Outcome {
	text, ok := Absolute[sk]
	if !ok {
		text = Absolute[contract.SkeletonA]
	}
	return Outcome{
		Text:   text,
		Level:  LevelAbsolute,
		Reason: reason,
	}
}

// #endregion
