package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// #region trace-types

// TurnInfo carries the per-turn emotional resolution. Absent on
// non-emotional turns.
type TurnInfo struct {
	EmotionalTurnIndex int    `json:"emotional_turn_index"`
	Intent             string `json:"intent"`
	EmotionalLang      string `json:"emotional_lang"`
	PreviousSkeleton   string `json:"previous_skeleton,omitempty"`
	ResolvedSkeleton   string `json:"resolved_skeleton"`
	SkeletonTransition string `json:"skeleton_transition"`
	EscalationState    string `json:"escalation_state"`
	LatchedTheme       string `json:"latched_theme,omitempty"`
}

// GuardrailInfo is the guardrail verdict recorded on every turn.
type GuardrailInfo struct {
	Category string `json:"category"`
	Severity string `json:"severity"`
	Action   string `json:"action"` // "none" | "override"
}

// SkeletonInfo records the skeleton before and after guardrail escalation.
type SkeletonInfo struct {
	Base           string `json:"base"`
	AfterGuardrail string `json:"after_guardrail"`
}

// Meta is present only on fallback paths.
type Meta struct {
	FallbackReason string `json:"fallback_reason"`
	FallbackLevel  string `json:"fallback_level"`
}

// Trace is the structured per-request record, immutable once assembled.
type Trace struct {
	Turn        *TurnInfo      `json:"turn"`
	Guardrail   GuardrailInfo  `json:"guardrail"`
	Skeleton    *SkeletonInfo  `json:"skeleton"`
	ToneProfile string         `json:"tone_profile,omitempty"`
	Selection   map[string]int `json:"selection,omitempty"`
	ReplayHash  string         `json:"replay_hash"`
	Meta        *Meta          `json:"meta,omitempty"`
}

// #endregion

// #region replay-hash

// ReplayInput is the documented input set of the replay hash. Changing any
// other observable field must not change the hash.
type ReplayInput struct {
	Prompt            string
	EmotionalLang     string
	GuardrailCategory string
	GuardrailSeverity string
	Skeleton          string // empty = non-emotional turn
	ToneProfile       string // empty = omitted
	Selection         map[string]int
}

// ReplayHash derives the canonical sha256 replay hash. The same input set
// re-derives to the same value byte-for-byte.
func ReplayHash(in ReplayInput) (string, error) {
	subset := map[string]any{
		"prompt":         in.Prompt,
		"emotional_lang": in.EmotionalLang,
		"guardrail": map[string]any{
			"category": in.GuardrailCategory,
			"severity": in.GuardrailSeverity,
		},
	}
	if in.Skeleton != "" {
		subset["skeleton"] = in.Skeleton
	} else {
		subset["skeleton"] = nil
	}
	if in.ToneProfile != "" {
		subset["tone_profile"] = in.ToneProfile
	}
	selection := make(map[string]any, len(in.Selection))
	for section, id := range in.Selection {
		selection[section] = id
	}
	subset["selection"] = selection

	canonical, err := Marshal(subset)
	if err != nil {
		return "", fmt.Errorf("replay hash: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// #endregion
