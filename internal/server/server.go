package server

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/provenance"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/trace"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/voice"
)

// Engine identity, contract v1.0.0. No dynamic fields.
const (
	EngineName    = "indian-desi-llm-inference-core"
	EngineVersion = "1.0.0"
	ReleaseStage  = "B20"
)

const maxPromptLength = 10000

// #region types

// GenerateRequest is the /generate body. The field set is closed; unknown
// fields are rejected.
type GenerateRequest struct {
	Prompt        *string `json:"prompt"`
	EmotionalLang *string `json:"emotional_lang"`
}

// GenerateResponse is the /generate success body. No extra fields.
type GenerateResponse struct {
	ResponseText string      `json:"response_text"`
	Trace        trace.Trace `json:"trace"`
}

// ErrorResponse is the error body for 400 and 500. No stack traces, no
// internal state.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// VersionResponse is the /version body.
type VersionResponse struct {
	EngineName    string `json:"engine_name"`
	EngineVersion string `json:"engine_version"`
	ReleaseStage  string `json:"release_stage"`
}

// #endregion

// #region server

// Server is the HTTP transport over the voice engine.
type Server struct {
	engine *voice.Engine
	prov   *provenance.Store // nil = provenance disabled
	mux    *http.ServeMux
}

// New creates the HTTP server. prov may be nil.
func New(engine *voice.Engine, prov *provenance.Store) *Server {
	s := &Server{engine: engine, prov: prov, mux: http.NewServeMux()}
	s.mux.HandleFunc("/generate", s.handleGenerate)
	s.mux.HandleFunc("/version", s.handleVersion)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe blocks serving on addr.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("[SERVER] listening on %s", addr)
	return http.ListenAndServe(addr, s)
}

// #endregion

// #region generate-handler

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.", "INVALID_INPUT")
		return
	}

	req, errMsg := decodeGenerateRequest(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg, "INVALID_INPUT")
		return
	}

	sessionID := r.Header.Get("X-Session-Id")
	result, err := s.engine.Generate(r.Context(), voice.Request{
		SessionID:     sessionID,
		Prompt:        *req.Prompt,
		EmotionalLang: contract.Language(lang(req)),
	})
	if err != nil {
		log.Printf("[SERVER] generate failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Inference failed.", "INFERENCE_FAILED")
		return
	}

	s.recordTurn(sessionID, *req.Prompt, result)

	writeJSON(w, http.StatusOK, GenerateResponse{
		ResponseText: result.Text,
		Trace:        result.Trace,
	})
}

// decodeGenerateRequest validates the closed request schema. Returns an
// empty message on success.
func decodeGenerateRequest(r *http.Request) (GenerateRequest, string) {
	var req GenerateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, "Invalid request body."
	}
	if dec.More() {
		return req, "Invalid request body."
	}

	if req.Prompt == nil {
		return req, "Prompt must be a string."
	}
	if strings.TrimSpace(*req.Prompt) == "" {
		return req, "Prompt cannot be empty."
	}
	if len(*req.Prompt) > maxPromptLength {
		return req, "Prompt exceeds maximum length."
	}

	if req.EmotionalLang != nil {
		switch *req.EmotionalLang {
		case string(contract.LangEN), string(contract.LangHI):
		default:
			return req, "Unsupported emotional_lang."
		}
	}
	return req, ""
}

func lang(req GenerateRequest) string {
	if req.EmotionalLang == nil {
		return string(contract.LangEN)
	}
	return *req.EmotionalLang
}

// recordTurn writes the provenance row. Runs after the response is fully
// determined; failures are logged and never surface.
func (s *Server) recordTurn(sessionID, prompt string, result voice.Result) {
	if s.prov == nil {
		return
	}
	if sessionID == "" {
		sessionID = voice.DefaultSessionID
	}

	rec := provenance.TurnRecord{
		SessionID:         sessionID,
		Prompt:            prompt,
		Intent:            string(result.Intent),
		Skeleton:          string(result.Skeleton),
		Language:          string(result.Language),
		GuardrailCategory: result.Trace.Guardrail.Category,
		GuardrailSeverity: result.Trace.Guardrail.Severity,
		GuardrailAction:   result.Trace.Guardrail.Action,
		ToneProfile:       result.Trace.ToneProfile,
		Selection:         result.Trace.Selection,
		ResponseText:      result.Text,
		ReplayHash:        result.Trace.ReplayHash,
	}
	if result.Trace.Turn != nil {
		rec.TurnIndex = result.Trace.Turn.EmotionalTurnIndex
	}
	if result.Trace.Meta != nil {
		rec.FallbackReason = result.Trace.Meta.FallbackReason
		rec.FallbackLevel = result.Trace.Meta.FallbackLevel
	}
	if err := s.prov.Record(rec); err != nil {
		log.Printf("[PROV] record failed: %v", err)
	}
}

// #endregion

// #region version-handler

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.", "INVALID_INPUT")
		return
	}
	writeJSON(w, http.StatusOK, VersionResponse{
		EngineName:    EngineName,
		EngineVersion: EngineVersion,
		ReleaseStage:  ReleaseStage,
	})
}

// #endregion

// #region encoding

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		http.Error(w, `{"error":"Inference failed.","code":"INFERENCE_FAILED"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// #endregion
