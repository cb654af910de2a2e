package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a recorded
// conversation plus the outputs it must re-derive byte-for-byte.
type Fixture struct {
	Description  string        `json:"description"`
	ContractPath string        `json:"contract_path,omitempty"` // empty = embedded default
	Turns        []FixtureTurn `json:"turns"`
}

// FixtureTurn is one recorded request with its expected outputs. Empty
// expectations are skipped, so a fixture can pin hashes only.
type FixtureTurn struct {
	SessionID        string `json:"session_id"`
	Prompt           string `json:"prompt"`
	EmotionalLang    string `json:"emotional_lang"`
	WantResponseText string `json:"want_response_text,omitempty"`
	WantReplayHash   string `json:"want_replay_hash,omitempty"`
	WantSkeleton     string `json:"want_skeleton,omitempty"`
}

// #endregion fixture-types

// #region load

// LoadFixture reads and validates a fixture file.
func LoadFixture(path string) (Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if len(f.Turns) == 0 {
		return Fixture{}, fmt.Errorf("fixture has no turns")
	}
	return f, nil
}

// #endregion load
