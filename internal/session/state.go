package session

import (
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/intent"
)

// #region escalation-state

// EscalationState tracks where the session sits on the A→B→C ladder.
type EscalationState string

const (
	EscalationNone       EscalationState = "none"
	EscalationEscalating EscalationState = "escalating"
	EscalationLatched    EscalationState = "latched"
)

// #endregion

// #region usage

// VariantUsage is one append-only rotation record.
type VariantUsage struct {
	VariantID int `json:"variant_id"`
	TurnIndex int `json:"turn_index"`
}

// #endregion

// #region rotation-memory

// RotationMemory holds the append-only usage log per pool. Windows are
// applied logically on read; history is never truncated in place.
type RotationMemory struct {
	pools map[string][]VariantUsage
}

// NewRotationMemory creates an empty rotation memory.
func NewRotationMemory() *RotationMemory {
	return &RotationMemory{pools: make(map[string][]VariantUsage)}
}

// Window returns the last windowSize usages for the pool, oldest first.
func (m *RotationMemory) Window(key contract.PoolKey, windowSize int) []VariantUsage {
	history := m.pools[key.String()]
	if windowSize > 0 && len(history) > windowSize {
		history = history[len(history)-windowSize:]
	}
	out := make([]VariantUsage, len(history))
	copy(out, history)
	return out
}

// Append records one usage at the end of the pool's history.
func (m *RotationMemory) Append(key contract.PoolKey, usage VariantUsage) {
	k := key.String()
	m.pools[k] = append(m.pools[k], usage)
}

// Reset clears every pool.
func (m *RotationMemory) Reset() {
	m.pools = make(map[string][]VariantUsage)
}

// ResetPools clears pools whose key satisfies the predicate.
func (m *RotationMemory) ResetPools(pred func(contract.PoolKey) bool) {
	for k := range m.pools {
		if key, ok := parsePoolKey(k); ok && pred(key) {
			delete(m.pools, k)
		}
	}
}

func parsePoolKey(s string) (contract.PoolKey, bool) {
	var parts [3]string
	n := 0
	start := 0
	for i := 0; i < len(s) && n < 2; i++ {
		if s[i] == '|' {
			parts[n] = s[start:i]
			start = i + 1
			n++
		}
	}
	if n != 2 {
		return contract.PoolKey{}, false
	}
	parts[2] = s[start:]
	return contract.PoolKey{
		Skeleton: contract.Skeleton(parts[0]),
		Language: contract.Language(parts[1]),
		Section:  contract.Section(parts[2]),
	}, true
}

// #endregion

// #region voice-state

// SessionVoiceState is the per-session mutable state. It is owned
// exclusively by the session and mutated only through the staged commit at
// the end of a turn, or through the reset operations below.
type SessionVoiceState struct {
	Rotation           *RotationMemory
	Escalation         EscalationState
	LatchedTheme       intent.Theme
	EmotionalTurnIndex int
	LastSkeleton       contract.Skeleton // empty = none yet
	LastLanguage       contract.Language // empty = none yet
	LastCHighActivity  bool              // previous C turn used a high-activity variant
}

// NewSessionVoiceState creates state for first session contact.
func NewSessionVoiceState() *SessionVoiceState {
	return &SessionVoiceState{
		Rotation:   NewRotationMemory(),
		Escalation: EscalationNone,
	}
}

// HardReset clears everything: rotation memory, escalation, latched theme,
// turn index, last skeleton. Fired on emotional→non-emotional transition,
// session end, full C→A resolution, or explicit reset.
func (s *SessionVoiceState) HardReset() {
	s.Rotation.Reset()
	s.Escalation = EscalationNone
	s.LatchedTheme = intent.ThemeNone
	s.EmotionalTurnIndex = 0
	s.LastSkeleton = ""
	s.LastLanguage = ""
	s.LastCHighActivity = false
}

// ResetPoolsForSkeleton clears every pool of one skeleton, used when the
// ladder steps up into it.
func (s *SessionVoiceState) ResetPoolsForSkeleton(skeleton contract.Skeleton) {
	s.Rotation.ResetPools(func(k contract.PoolKey) bool {
		return k.Skeleton == skeleton
	})
}

// ResetPoolsForLanguage clears every pool of one language, used when the
// session's language changes.
func (s *SessionVoiceState) ResetPoolsForLanguage(language contract.Language) {
	s.Rotation.ResetPools(func(k contract.PoolKey) bool {
		return k.Language == language
	})
}

// #endregion
