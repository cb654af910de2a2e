package model

import (
	"context"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/intent"
)

// #region generator

// Generator abstracts the underlying generative language model. It is an
// external collaborator: the voice pipeline never invokes it on the
// emotional path, and routing enforces that structurally.
type Generator interface {
	Generate(ctx context.Context, prompt string, kind intent.Kind, language contract.Language) (string, error)
}

// #endregion

// #region scaffold-generator

// ScaffoldGenerator is the deterministic built-in generator for
// non-emotional turns: an intent-keyed prefix plus a fixed completion.
// A real model process can replace it behind the same interface without
// touching the core.
type ScaffoldGenerator struct{}

// scaffolds are intent-keyed, language-keyed response prefixes.
var scaffolds = map[intent.Kind]map[contract.Language]string{
	intent.KindFactual: {
		contract.LangEN: "Here's a clear and factual answer: ",
		contract.LangHI: "यह एक संक्षिप्त और तथ्यात्मक उत्तर है: ",
	},
	intent.KindExplanatory: {
		contract.LangEN: "Let me explain this simply: ",
		contract.LangHI: "इसे सरल शब्दों में समझते हैं: ",
	},
	intent.KindConversational: {
		contract.LangEN: "Here's what I think: ",
		contract.LangHI: "मेरे हिसाब से: ",
	},
}

// completions close the scaffold when no model process is attached.
var completions = map[contract.Language]string{
	contract.LangEN: "I don't have a complete answer loaded for this yet. Could you ask in a different way?",
	contract.LangHI: "अभी मेरे पास इसका पूरा उत्तर नहीं है। क्या आप इसे किसी और तरह पूछ सकते हैं?",
}

// Generate produces the deterministic scaffold response.
func (ScaffoldGenerator) Generate(_ context.Context, _ string, kind intent.Kind, language contract.Language) (string, error) {
	if language != contract.LangHI {
		language = contract.LangEN
	}
	byLang, ok := scaffolds[kind]
	if !ok {
		byLang = scaffolds[intent.KindConversational]
	}
	prefix, ok := byLang[language]
	if !ok {
		prefix = byLang[contract.LangEN]
	}
	return prefix + completions[language], nil
}

// #endregion
