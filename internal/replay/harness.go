package replay

import (
	"context"
	"fmt"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/voice"
)

// #region types

// TurnResult captures one replayed turn against its expectations.
type TurnResult struct {
	TurnIndex    int
	Prompt       string
	ResponseText string
	ReplayHash   string
	Skeleton     string
	Passed       bool
	Mismatches   []string
}

// Summary aggregates a replay run.
type Summary struct {
	TotalTurns int
	Passed     int
	Failed     int
}

// #endregion types

// #region replay

// Replay runs every fixture turn through a fresh engine in order and
// compares the outputs. Determinism contract: identical inputs against the
// same initial session state re-derive identical text and hashes.
func Replay(f Fixture) ([]TurnResult, Summary, error) {
	c, err := contract.Load(f.ContractPath)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("load contract: %w", err)
	}
	engine := voice.NewEngine(c, nil)

	results := make([]TurnResult, 0, len(f.Turns))
	summary := Summary{TotalTurns: len(f.Turns)}

	for i, turn := range f.Turns {
		lang := contract.Language(turn.EmotionalLang)
		if lang == "" {
			lang = contract.LangEN
		}
		out, err := engine.Generate(context.Background(), voice.Request{
			SessionID:     turn.SessionID,
			Prompt:        turn.Prompt,
			EmotionalLang: lang,
		})
		if err != nil {
			return nil, Summary{}, fmt.Errorf("turn %d: %w", i, err)
		}

		r := TurnResult{
			TurnIndex:    i,
			Prompt:       turn.Prompt,
			ResponseText: out.Text,
			ReplayHash:   out.Trace.ReplayHash,
			Skeleton:     string(out.Skeleton),
			Passed:       true,
		}
		if turn.WantResponseText != "" && turn.WantResponseText != out.Text {
			r.Passed = false
			r.Mismatches = append(r.Mismatches, fmt.Sprintf("response_text: want %q, got %q", turn.WantResponseText, out.Text))
		}
		if turn.WantReplayHash != "" && turn.WantReplayHash != out.Trace.ReplayHash {
			r.Passed = false
			r.Mismatches = append(r.Mismatches, fmt.Sprintf("replay_hash: want %s, got %s", turn.WantReplayHash, out.Trace.ReplayHash))
		}
		if turn.WantSkeleton != "" && turn.WantSkeleton != string(out.Skeleton) {
			r.Passed = false
			r.Mismatches = append(r.Mismatches, fmt.Sprintf("skeleton: want %s, got %s", turn.WantSkeleton, out.Skeleton))
		}

		if r.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
		results = append(results, r)
	}

	return results, summary, nil
}

// #endregion replay
