package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/provenance"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/replay"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/voice"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	dbPath := flag.String("db", "", "path to voice_turns.db (DB mode)")
	sessionID := flag.String("session", voice.DefaultSessionID, "session to replay in DB mode")
	contractPath := flag.String("contract", "", "contract YAML path (empty = embedded default)")
	flag.Parse()

	if (*fixturePath == "" && *dbPath == "") || (*fixturePath != "" && *dbPath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --db path/to/voice_turns.db [--session id]")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *sessionID, *contractPath)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string) int {
	fixture, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	results, summary, err := replay.Replay(fixture)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	for _, r := range results {
		status := "ok"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Printf("turn %d [%s] skeleton=%s hash=%s\n", r.TurnIndex, status, orDash(r.Skeleton), r.ReplayHash)
		for _, m := range r.Mismatches {
			fmt.Printf("    %s\n", m)
		}
	}
	fmt.Printf("\n%d turns: %d passed, %d failed\n", summary.TotalTurns, summary.Passed, summary.Failed)

	if summary.Failed > 0 {
		return 1
	}
	return 0
}

// #endregion fixture-mode

// #region db-mode

// runDBMode re-runs a session's recorded turns through a fresh engine and
// verifies that every replay hash re-derives to the stored value.
func runDBMode(dbPath, sessionID, contractPath string) int {
	store, err := provenance.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	records, err := store.ListSession(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if len(records) == 0 {
		fmt.Fprintf(os.Stderr, "no recorded turns for session %q\n", sessionID)
		return 1
	}

	c, err := contract.Load(contractPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	engine := voice.NewEngine(c, nil)

	// The stored language is the resolved one; hinglish resolves again from
	// the prompt itself, so the request carries en.
	failed := 0
	for i, rec := range records {
		lang := contract.Language(rec.Language)
		if lang == contract.LangHinglish {
			lang = contract.LangEN
		}
		out, err := engine.Generate(context.Background(), voice.Request{
			SessionID:     rec.SessionID,
			Prompt:        rec.Prompt,
			EmotionalLang: lang,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "turn %d: %v\n", i, err)
			failed++
			continue
		}

		status := "ok"
		if out.Trace.ReplayHash != rec.ReplayHash {
			status = "FAIL hash"
			failed++
		} else if out.Text != rec.ResponseText {
			status = "FAIL text"
			failed++
		}
		fmt.Printf("turn %d [%s] skeleton=%s hash=%s\n", i, status, orDash(string(out.Skeleton)), out.Trace.ReplayHash)
	}

	fmt.Printf("\n%d turns: %d passed, %d failed\n", len(records), len(records)-failed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// #endregion db-mode
