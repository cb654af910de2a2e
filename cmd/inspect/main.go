package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/provenance"
)

// #region main

func main() {
	dbPath := flag.String("db", "voice_turns.db", "path to voice_turns.db")
	limit := flag.Int("limit", 20, "number of turns to show")
	showContract := flag.Bool("contract", false, "summarize the contract instead of the turn log")
	contractPath := flag.String("contract-path", "", "contract YAML path (empty = embedded default)")
	flag.Parse()

	if *showContract {
		os.Exit(runContractSummary(*contractPath))
	}
	os.Exit(runTurnLog(*dbPath, *limit))
}

// #endregion main

// #region turn-log

func runTurnLog(dbPath string, limit int) int {
	store, err := provenance.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	records, err := store.List(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if len(records) == 0 {
		fmt.Println("turn log is empty")
		return 0
	}

	for _, rec := range records {
		skeleton := rec.Skeleton
		if skeleton == "" {
			skeleton = "-"
		}
		fmt.Printf("%s  session=%s turn=%d intent=%s skeleton=%s lang=%s guardrail=%s/%s/%s\n",
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			rec.SessionID, rec.TurnIndex, rec.Intent, skeleton, rec.Language,
			rec.GuardrailCategory, rec.GuardrailSeverity, rec.GuardrailAction)
		if rec.FallbackReason != "" {
			fmt.Printf("    fallback: %s (%s)\n", rec.FallbackReason, rec.FallbackLevel)
		}
		fmt.Printf("    %s\n", rec.ReplayHash)
	}
	return 0
}

// #endregion turn-log

// #region contract-summary

func runContractSummary(path string) int {
	c, err := contract.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Printf("contract version %s\n", c.Version())
	sections := []contract.Section{
		contract.SectionOpener, contract.SectionValidation,
		contract.SectionAction, contract.SectionClosure,
	}
	for _, skeleton := range contract.AllSkeletons {
		for _, language := range contract.AllLanguages {
			line := ""
			for _, section := range sections {
				if n := len(c.Variants(skeleton, language, section)); n > 0 {
					line += fmt.Sprintf(" %s=%d", section, n)
				}
			}
			if line != "" {
				fmt.Printf("  %s/%s:%s\n", skeleton, language, line)
			}
		}
	}
	return 0
}

// #endregion contract-summary
