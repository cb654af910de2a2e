package main

import (
	"log"
	"os"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/provenance"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/server"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/voice"
)

// #region main
func main() {
	addr := envOr("VOICE_ADDR", ":8900")
	contractPath := envOr("VOICE_CONTRACT", "")
	dbPath := envOr("VOICE_DB", "voice_turns.db")

	var engine *voice.Engine
	c, err := contract.Load(contractPath)
	if err != nil {
		// Degraded mode: every emotional turn resolves through the absolute
		// fallback tier. Set VOICE_CONTRACT_STRICT=1 to fail fast instead.
		if os.Getenv("VOICE_CONTRACT_STRICT") == "1" {
			log.Fatalf("contract load failed: %v", err)
		}
		log.Printf("[SERVER] contract load failed, serving degraded: %v", err)
		engine = voice.NewDegradedEngine(err, nil)
	} else {
		log.Printf("[SERVER] contract %s loaded", c.Version())
		engine = voice.NewEngine(c, nil)
	}

	var prov *provenance.Store
	if os.Getenv("VOICE_PROVENANCE") != "off" {
		prov, err = provenance.Open(dbPath)
		if err != nil {
			log.Fatalf("failed to open turn log: %v", err)
		}
		defer prov.Close()
		log.Printf("[SERVER] turn log: %s", dbPath)
	}

	srv := server.New(engine, prov)
	if err := srv.ListenAndServe(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
