package provenance

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS turn_log (
	id                 TEXT PRIMARY KEY,
	session_id         TEXT NOT NULL,
	turn_index         INTEGER NOT NULL,
	prompt             TEXT NOT NULL,
	intent             TEXT NOT NULL,
	skeleton           TEXT,
	language           TEXT NOT NULL,
	guardrail_category TEXT NOT NULL,
	guardrail_severity TEXT NOT NULL,
	guardrail_action   TEXT NOT NULL,
	tone_profile       TEXT,
	selection_json     TEXT,
	response_text      TEXT NOT NULL,
	replay_hash        TEXT NOT NULL,
	fallback_reason    TEXT,
	fallback_level     TEXT,
	created_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turn_log_session
ON turn_log(session_id, created_at);
`

// createdAtLayout is fixed-width UTC so that created_at sorts as text in
// time order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #endregion schema

// #region types

// TurnRecord is one row of the turn log. Timestamps live here and only
// here; responses never carry them.
type TurnRecord struct {
	ID                string
	SessionID         string
	TurnIndex         int
	Prompt            string
	Intent            string
	Skeleton          string
	Language          string
	GuardrailCategory string
	GuardrailSeverity string
	GuardrailAction   string
	ToneProfile       string
	Selection         map[string]int
	ResponseText      string
	ReplayHash        string
	FallbackReason    string
	FallbackLevel     string
	CreatedAt         time.Time
}

// #endregion types

// #region store

// Store persists completed turns in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the turn log database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region record

// Record writes one completed turn. Called after the session commit,
// outside the session lock; failures never affect the response.
func (s *Store) Record(rec TurnRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var selectionJSON any
	if len(rec.Selection) > 0 {
		raw, err := json.Marshal(rec.Selection)
		if err != nil {
			return fmt.Errorf("marshal selection: %w", err)
		}
		selectionJSON = string(raw)
	}

	_, err := s.db.Exec(
		`INSERT INTO turn_log
		 (id, session_id, turn_index, prompt, intent, skeleton, language,
		  guardrail_category, guardrail_severity, guardrail_action,
		  tone_profile, selection_json, response_text, replay_hash,
		  fallback_reason, fallback_level, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.SessionID,
		rec.TurnIndex,
		rec.Prompt,
		rec.Intent,
		nullIfEmpty(rec.Skeleton),
		rec.Language,
		rec.GuardrailCategory,
		rec.GuardrailSeverity,
		rec.GuardrailAction,
		nullIfEmpty(rec.ToneProfile),
		selectionJSON,
		rec.ResponseText,
		rec.ReplayHash,
		nullIfEmpty(rec.FallbackReason),
		nullIfEmpty(rec.FallbackLevel),
		rec.CreatedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

// #endregion record

// #region list

// List returns the most recent turns, newest first.
func (s *Store) List(limit int) ([]TurnRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, turn_index, prompt, intent, skeleton, language,
		        guardrail_category, guardrail_severity, guardrail_action,
		        tone_profile, selection_json, response_text, replay_hash,
		        fallback_reason, fallback_level, created_at
		 FROM turn_log ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		rec, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListSession returns every turn of one session, oldest first.
func (s *Store) ListSession(sessionID string) ([]TurnRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, turn_index, prompt, intent, skeleton, language,
		        guardrail_category, guardrail_severity, guardrail_action,
		        tone_profile, selection_json, response_text, replay_hash,
		        fallback_reason, fallback_level, created_at
		 FROM turn_log WHERE session_id = ? ORDER BY created_at ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list session turns: %w", err)
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		rec, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanTurn(rows *sql.Rows) (TurnRecord, error) {
	var rec TurnRecord
	var skeleton, toneProfile, selectionJSON, fallbackReason, fallbackLevel sql.NullString
	var createdStr string

	err := rows.Scan(
		&rec.ID, &rec.SessionID, &rec.TurnIndex, &rec.Prompt, &rec.Intent, &skeleton,
		&rec.Language, &rec.GuardrailCategory, &rec.GuardrailSeverity,
		&rec.GuardrailAction, &toneProfile, &selectionJSON, &rec.ResponseText,
		&rec.ReplayHash, &fallbackReason, &fallbackLevel, &createdStr,
	)
	if err != nil {
		return TurnRecord{}, fmt.Errorf("scan turn: %w", err)
	}

	rec.Skeleton = skeleton.String
	rec.ToneProfile = toneProfile.String
	rec.FallbackReason = fallbackReason.String
	rec.FallbackLevel = fallbackLevel.String
	if selectionJSON.Valid && selectionJSON.String != "" {
		if err := json.Unmarshal([]byte(selectionJSON.String), &rec.Selection); err != nil {
			return TurnRecord{}, fmt.Errorf("unmarshal selection: %w", err)
		}
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// #endregion list

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
