package session

import (
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/intent"
)

// #region staged-writes

// StagedWrites collects every state mutation a turn wants to make. Nothing
// touches SessionVoiceState until Commit, so a selector failure or an
// abandoned request leaves the session exactly as it was.
type StagedWrites struct {
	usages []stagedUsage

	incrementTurn bool

	setEscalation bool
	escalation    EscalationState

	setTheme bool
	theme    intent.Theme

	setLastSkeleton bool
	lastSkeleton    contract.Skeleton

	setLastLanguage bool
	lastLanguage    contract.Language

	setCHighActivity bool
	cHighActivity    bool

	resetSkeletonPools []contract.Skeleton
	resetLanguagePools []contract.Language
}

type stagedUsage struct {
	key   contract.PoolKey
	usage VariantUsage
}

// NewStage returns an empty stage.
func NewStage() *StagedWrites {
	return &StagedWrites{}
}

// #endregion

// #region stage-ops

// AppendUsage stages one rotation append.
func (w *StagedWrites) AppendUsage(key contract.PoolKey, usage VariantUsage) {
	w.usages = append(w.usages, stagedUsage{key: key, usage: usage})
}

// IncrementTurn stages the emotional turn index increment.
func (w *StagedWrites) IncrementTurn() {
	w.incrementTurn = true
}

// SetEscalation stages the new escalation state.
func (w *StagedWrites) SetEscalation(e EscalationState) {
	w.setEscalation = true
	w.escalation = e
}

// SetTheme stages the latched theme.
func (w *StagedWrites) SetTheme(t intent.Theme) {
	w.setTheme = true
	w.theme = t
}

// SetLastSkeleton stages the turn's resolved skeleton.
func (w *StagedWrites) SetLastSkeleton(s contract.Skeleton) {
	w.setLastSkeleton = true
	w.lastSkeleton = s
}

// SetLastLanguage stages the turn's resolved language.
func (w *StagedWrites) SetLastLanguage(l contract.Language) {
	w.setLastLanguage = true
	w.lastLanguage = l
}

// SetCHighActivity stages whether this C turn used a high-activity variant.
func (w *StagedWrites) SetCHighActivity(v bool) {
	w.setCHighActivity = true
	w.cHighActivity = v
}

// ResetSkeletonPools stages a partial reset of one skeleton's pools,
// applied before the turn's usage appends.
func (w *StagedWrites) ResetSkeletonPools(s contract.Skeleton) {
	w.resetSkeletonPools = append(w.resetSkeletonPools, s)
}

// ResetLanguagePools stages a partial reset of one language's pools,
// applied before the turn's usage appends.
func (w *StagedWrites) ResetLanguagePools(l contract.Language) {
	w.resetLanguagePools = append(w.resetLanguagePools, l)
}

// #endregion

// #region staged-view

// Window returns the rotation window as it will look once this stage
// commits: staged partial resets and staged appends are applied on top of
// the committed history. The selector reads through this view so a turn
// that stages a pool reset selects against the post-reset state.
func (w *StagedWrites) Window(state *SessionVoiceState, key contract.PoolKey, windowSize int) []VariantUsage {
	var history []VariantUsage
	if !w.poolReset(key) {
		history = state.Rotation.Window(key, 0)
	}
	for _, u := range w.usages {
		if u.key == key {
			history = append(history, u.usage)
		}
	}
	if windowSize > 0 && len(history) > windowSize {
		history = history[len(history)-windowSize:]
	}
	return history
}

func (w *StagedWrites) poolReset(key contract.PoolKey) bool {
	for _, s := range w.resetSkeletonPools {
		if key.Skeleton == s {
			return true
		}
	}
	for _, l := range w.resetLanguagePools {
		if key.Language == l {
			return true
		}
	}
	return false
}

// #endregion

// #region commit

// Commit applies every staged write in one step: partial resets first, then
// usage appends, then scalar fields. Callers hold the session lock.
func (w *StagedWrites) Commit(state *SessionVoiceState) {
	for _, s := range w.resetSkeletonPools {
		state.ResetPoolsForSkeleton(s)
	}
	for _, l := range w.resetLanguagePools {
		state.ResetPoolsForLanguage(l)
	}
	for _, u := range w.usages {
		state.Rotation.Append(u.key, u.usage)
	}
	if w.incrementTurn {
		state.EmotionalTurnIndex++
	}
	if w.setEscalation {
		state.Escalation = w.escalation
	}
	if w.setTheme {
		state.LatchedTheme = w.theme
	}
	if w.setLastSkeleton {
		state.LastSkeleton = w.lastSkeleton
	}
	if w.setLastLanguage {
		state.LastLanguage = w.lastLanguage
	}
	if w.setCHighActivity {
		state.LastCHighActivity = w.cHighActivity
	}
}

// #endregion
