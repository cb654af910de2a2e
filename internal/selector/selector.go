package selector

import (
	"fmt"
	"sort"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/fallback"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/intent"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/session"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/skeleton"
)

// #region choice

// Choice is the selected variant for one section.
type Choice struct {
	VariantID int
	Text      string
	Entry     contract.VariantEntry
}

// #endregion

// #region select

// Select runs the five-phase pipeline once per required section of the
// chosen skeleton. It is a total function of its declared inputs; its only
// side effects are staged rotation appends, committed by the caller at the
// end of the turn. No access to user text.
func Select(ctx skeleton.TurnContext, c *contract.Contract, state *session.SessionVoiceState, stage *session.StagedWrites) (map[contract.Section]Choice, error) {
	policy, ok := skeleton.Policies[ctx.Skeleton]
	if !ok {
		return nil, fmt.Errorf("%w: unknown skeleton %q", fallback.ErrState, ctx.Skeleton)
	}
	if state == nil || state.Rotation == nil {
		return nil, fmt.Errorf("%w: missing session state", fallback.ErrState)
	}
	if state.EmotionalTurnIndex < 0 {
		return nil, fmt.Errorf("%w: negative emotional turn index", fallback.ErrState)
	}

	selected := make(map[contract.Section]Choice, len(policy.Sections))
	for _, section := range policy.Sections {
		choice, err := selectSection(ctx, policy, section, c, state, stage)
		if err != nil {
			return nil, err
		}
		selected[section] = choice
	}
	return selected, nil
}

func selectSection(ctx skeleton.TurnContext, policy skeleton.Policy, section contract.Section, c *contract.Contract, state *session.SessionVoiceState, stage *session.StagedWrites) (Choice, error) {
	variants := c.Variants(ctx.Skeleton, ctx.Language, section)
	if len(variants) == 0 {
		return Choice{}, fmt.Errorf("%w: no variants for %s|%s|%s", fallback.ErrSelection, ctx.Skeleton, ctx.Language, section)
	}

	key := contract.PoolKey{Skeleton: ctx.Skeleton, Language: ctx.Language, Section: section}
	window := stage.Window(state, key, policy.WindowSize)

	// Phase 1: eligibility.
	candidates := eligible(policy, variants)

	// Fixed sections commit and return without scoring.
	if len(candidates) == 1 && (section == contract.SectionClosure || (policy.FixedOpener && section == contract.SectionOpener)) {
		return commit(stage, key, candidates[0], ctx.EmotionalTurnIndex), nil
	}

	// Phase 2: hard constraints.
	candidates = applyHardConstraints(ctx, policy, candidates, window, state)
	if len(candidates) == 0 {
		if policy.AllowRepeatWhenExhausted && len(window) > 0 {
			last := window[len(window)-1].VariantID
			if last >= 0 && last < len(variants) {
				return commit(stage, key, variants[last], ctx.EmotionalTurnIndex), nil
			}
		}
		return Choice{}, fmt.Errorf("%w: candidates exhausted for %s", fallback.ErrSelection, key)
	}

	// Phase 3: usage scoring.
	scores := make(map[int]int, len(candidates))
	for _, cand := range candidates {
		scores[cand.ID] = score(policy, cand.ID, window, ctx.EmotionalTurnIndex)
	}

	// Phase 4: deterministic tie-break on the maximum score.
	best := pick(candidates, scores, window)

	// Phase 5: commit (staged; applied once at end of turn).
	return commit(stage, key, best, ctx.EmotionalTurnIndex), nil
}

func commit(stage *session.StagedWrites, key contract.PoolKey, entry contract.VariantEntry, turnIndex int) Choice {
	stage.AppendUsage(key, session.VariantUsage{VariantID: entry.ID, TurnIndex: turnIndex})
	return Choice{VariantID: entry.ID, Text: entry.Text, Entry: entry}
}

// #endregion

// #region phase-1

func eligible(policy skeleton.Policy, variants []contract.VariantEntry) []contract.VariantEntry {
	out := make([]contract.VariantEntry, 0, len(variants))
	for _, v := range variants {
		if policy.DropExpansionEntries && v.HasTag(contract.TagAddedViaExpansion) && !v.HasTag(contract.TagApproved) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// #endregion

// #region phase-2

func applyHardConstraints(ctx skeleton.TurnContext, policy skeleton.Policy, candidates []contract.VariantEntry, window []session.VariantUsage, state *session.SessionVoiceState) []contract.VariantEntry {
	out := candidates

	// 1. No immediate repetition, provided alternatives remain.
	if len(window) > 0 && len(out) > 1 {
		last := window[len(window)-1].VariantID
		filtered := out[:0:0]
		for _, v := range out {
			if v.ID != last {
				filtered = append(filtered, v)
			}
		}
		if len(filtered) > 0 {
			out = filtered
		} else if !policy.AllowRepeatWhenExhausted {
			out = filtered
		}
	}

	// 2. Escalation constraints.
	if ctx.Escalation == session.EscalationLatched {
		out = dropTagged(out, contract.TagLight)
	}
	if ctx.Skeleton == contract.SkeletonC && !state.LastCHighActivity && state.LastSkeleton == contract.SkeletonC {
		out = dropTagged(out, contract.TagHighActivity)
	}

	// 3. Theme constraints.
	if ctx.LatchedTheme == intent.ThemeFamily {
		kept := out[:0:0]
		for _, v := range out {
			if v.HasTag(contract.TagFamilySafe) {
				kept = append(kept, v)
			}
		}
		out = kept
	}

	return out
}

func dropTagged(candidates []contract.VariantEntry, tag string) []contract.VariantEntry {
	kept := candidates[:0:0]
	for _, v := range candidates {
		if !v.HasTag(tag) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return candidates
	}
	return kept
}

// #endregion

// #region phase-3

// score computes the usage penalty for one candidate. Each occurrence in
// the window at distance d from now (1 = most recent) costs
// window_size - d + 1; using more than half the window costs an extra
// 2 * window_size.
func score(policy skeleton.Policy, variantID int, window []session.VariantUsage, turnIndex int) int {
	if policy.SkipFirstTurnScoring && turnIndex == 0 {
		return 0
	}

	penalty := 0
	usage := 0
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].VariantID != variantID {
			continue
		}
		usage++
		distance := len(window) - i // 1 = most recent
		penalty += policy.WindowSize - distance + 1
	}

	if len(window) > 0 {
		ratio := float64(usage) / float64(len(window))
		if policy.OveruseExemptUnlessExtreme {
			if ratio > 0.8 {
				penalty += 2 * policy.WindowSize
			}
		} else if ratio > 0.5 {
			penalty += 2 * policy.WindowSize
		}
	}

	if policy.HalvePenalties {
		penalty = penalty / 2
	}
	return -penalty
}

// #endregion

// #region phase-4

// pick resolves maximum-score ties by least-recently-used, then lowest
// usage count, then lowest variant id.
func pick(candidates []contract.VariantEntry, scores map[int]int, window []session.VariantUsage) contract.VariantEntry {
	best := scores[candidates[0].ID]
	for _, v := range candidates[1:] {
		if s := scores[v.ID]; s > best {
			best = s
		}
	}

	top := make([]contract.VariantEntry, 0, len(candidates))
	for _, v := range candidates {
		if scores[v.ID] == best {
			top = append(top, v)
		}
	}

	sort.Slice(top, func(i, j int) bool {
		li, lj := lastSeen(window, top[i].ID), lastSeen(window, top[j].ID)
		if li != lj {
			return li < lj // earlier (or absent) last use wins
		}
		ui, uj := usageCount(window, top[i].ID), usageCount(window, top[j].ID)
		if ui != uj {
			return ui < uj
		}
		return top[i].ID < top[j].ID
	})
	return top[0]
}

// lastSeen returns the window position of the candidate's most recent use,
// or -1 when it never appears.
func lastSeen(window []session.VariantUsage, variantID int) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

func usageCount(window []session.VariantUsage, variantID int) int {
	n := 0
	for _, u := range window {
		if u.VariantID == variantID {
			n++
		}
	}
	return n
}

// #endregion
