package skeleton

import (
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/guardrail"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/intent"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/session"
)

// #region turn-context

// TurnContext is the immutable snapshot handed from the resolver to the
// selector. Downstream stages never re-read the user text.
type TurnContext struct {
	Skeleton           contract.Skeleton
	Language           contract.Language
	Escalation         session.EscalationState
	LatchedTheme       intent.Theme
	EmotionalTurnIndex int
}

// #endregion

// #region resolution

// Resolution is the resolver output. Skeleton is empty when the intent is
// non-emotional.
type Resolution struct {
	Skeleton     contract.Skeleton
	Language     contract.Language
	Escalation   session.EscalationState
	LatchedTheme intent.Theme
}

// Emotional reports whether the turn resolved to a skeleton.
func (r Resolution) Emotional() bool {
	return r.Skeleton != ""
}

// #endregion

// #region resolve

// Resolve chooses the skeleton, language, escalation state, and latched
// theme for the turn. This is the last semantic decision on the path.
func Resolve(it intent.Intent, state *session.SessionVoiceState, language contract.Language) Resolution {
	if !it.Emotional() {
		return Resolution{Language: language, Escalation: state.Escalation}
	}

	theme := latchTheme(state.LatchedTheme, it.Theme)
	sk := baseSkeleton(it)

	// Family themes never resolve to A or D.
	if theme == intent.ThemeFamily || it.Signals.Family {
		if sk == contract.SkeletonA || sk == contract.SkeletonD {
			sk = contract.SkeletonB
		}
	}

	latched := state.Escalation == session.EscalationLatched ||
		it.Signals.Resignation ||
		theme == intent.ThemeResignation ||
		(it.SafetyCategory == guardrail.CategorySelfHarm && it.Severity.AtLeast(guardrail.SeverityHigh))
	if latched {
		sk = contract.SkeletonC
	}

	// Monotonic ladder: never move down except via the full reset path.
	if state.LastSkeleton != "" && Rank(state.LastSkeleton) > Rank(sk) {
		switch Rank(state.LastSkeleton) {
		case Rank(contract.SkeletonC):
			sk = contract.SkeletonC
		case Rank(contract.SkeletonB):
			if sk != contract.SkeletonD || theme == intent.ThemeFamily {
				sk = contract.SkeletonB
			}
		}
	}

	escalation := state.Escalation
	switch {
	case latched:
		escalation = session.EscalationLatched
	case state.LastSkeleton != "" && Rank(sk) > Rank(state.LastSkeleton):
		escalation = session.EscalationEscalating
	}

	return Resolution{
		Skeleton:     sk,
		Language:     language,
		Escalation:   escalation,
		LatchedTheme: theme,
	}
}

// baseSkeleton maps intent signals to the unescalated skeleton.
func baseSkeleton(it intent.Intent) contract.Skeleton {
	switch {
	case it.Signals.Resignation:
		return contract.SkeletonC
	case it.Signals.WantsAction:
		return contract.SkeletonD
	case it.Signals.Guilt:
		return contract.SkeletonC
	case it.Signals.Overwhelm:
		return contract.SkeletonB
	}
	return contract.SkeletonA
}

// latchTheme applies the sticky theme rules: first qualifying theme latches;
// family upgrades any other latch; nothing unlatches short of a hard reset.
func latchTheme(current, detected intent.Theme) intent.Theme {
	mapped := intent.ThemeNone
	switch detected {
	case intent.ThemeNone:
	case intent.ThemeFamily:
		mapped = intent.ThemeFamily
	case intent.ThemeResignation:
		mapped = intent.ThemeResignation
	default:
		mapped = intent.ThemeOther
	}

	if mapped == intent.ThemeFamily {
		return intent.ThemeFamily
	}
	if current != intent.ThemeNone {
		return current
	}
	return mapped
}

// #endregion
