package skeleton

import "github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"

// #region policy

// Policy is the per-skeleton selection behavior: allowed sections, rotation
// window, and scoring adjustments. Policies are plain data keyed by the
// skeleton tag. The C-only high-activity rule is not in this table: the
// selector and the runtime check for skeleton C directly.
type Policy struct {
	Sections   []contract.Section
	WindowSize int

	// SkipFirstTurnScoring skips usage scoring on the session's first
	// emotional turn.
	SkipFirstTurnScoring bool

	// HalvePenalties halves every penalty magnitude, then floors.
	HalvePenalties bool

	// OveruseExemptUnlessExtreme lifts the >50% overuse penalty unless
	// repetition is extreme (>80% of window entries).
	OveruseExemptUnlessExtreme bool

	// AllowRepeatWhenExhausted restores the last-used variant when hard
	// constraints empty the candidate set.
	AllowRepeatWhenExhausted bool

	// DropExpansionEntries removes added_via_expansion entries unless they
	// are explicitly approved.
	DropExpansionEntries bool

	// FixedOpener pins the opener to the single contract entry.
	FixedOpener bool
}

// Policies is the full per-skeleton behavior table.
var Policies = map[contract.Skeleton]Policy{
	contract.SkeletonA: {
		Sections:             []contract.Section{contract.SectionOpener, contract.SectionValidation, contract.SectionClosure},
		WindowSize:           6,
		SkipFirstTurnScoring: true,
	},
	contract.SkeletonB: {
		Sections:   []contract.Section{contract.SectionOpener, contract.SectionValidation, contract.SectionClosure},
		WindowSize: 8,
	},
	contract.SkeletonC: {
		Sections:                   []contract.Section{contract.SectionOpener, contract.SectionValidation, contract.SectionClosure},
		WindowSize:                 3,
		HalvePenalties:             true,
		OveruseExemptUnlessExtreme: true,
		AllowRepeatWhenExhausted:   true,
		DropExpansionEntries:       true,
	},
	contract.SkeletonD: {
		Sections:    []contract.Section{contract.SectionOpener, contract.SectionAction, contract.SectionClosure},
		WindowSize:  4,
		FixedOpener: true,
	},
}

// #endregion

// #region ladder

// ladderRank orders the escalation ladder. D sits outside the ladder; it
// is ranked with A so a micro-action turn never lowers an escalation.
var ladderRank = map[contract.Skeleton]int{
	contract.SkeletonA: 1,
	contract.SkeletonD: 1,
	contract.SkeletonB: 2,
	contract.SkeletonC: 3,
}

// Rank returns the skeleton's ladder position.
func Rank(s contract.Skeleton) int {
	return ladderRank[s]
}

// #endregion
