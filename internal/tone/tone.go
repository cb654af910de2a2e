package tone

import (
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/guardrail"
)

// Profiles is the closed set of tone profiles the trace may carry.
var Profiles = map[string]bool{
	"neutral_formal":             true,
	"warm_engaged":               true,
	"empathetic_soft":            true,
	"empathetic_high_intensity":  true,
	"empathetic_crisis_support":  true,
	"grounded_calm":              true,
	"grounded_calm_strong":       true,
	"firm_boundary":              true,
	"firm_boundary_strict":       true,
	"measured_neutral":           true,
}

// #region safe-mapping

type safeKey struct {
	skeleton contract.Skeleton
	severity guardrail.Severity
}

var safeMapping = map[safeKey]string{
	{contract.SkeletonA, guardrail.SeverityLow}:      "neutral_formal",
	{contract.SkeletonA, guardrail.SeverityMedium}:   "warm_engaged",
	{contract.SkeletonB, guardrail.SeverityLow}:      "warm_engaged",
	{contract.SkeletonB, guardrail.SeverityMedium}:   "warm_engaged",
	{contract.SkeletonB, guardrail.SeverityHigh}:     "warm_engaged",
	{contract.SkeletonB, guardrail.SeverityCritical}: "warm_engaged",
	{contract.SkeletonC, guardrail.SeverityLow}:      "empathetic_soft",
	{contract.SkeletonC, guardrail.SeverityMedium}:   "empathetic_soft",
	{contract.SkeletonC, guardrail.SeverityHigh}:     "empathetic_soft",
	{contract.SkeletonC, guardrail.SeverityCritical}: "empathetic_soft",
}

// #endregion

// #region category-mappings

var selfHarmMapping = map[guardrail.Severity]string{
	guardrail.SeverityLow:      "empathetic_soft",
	guardrail.SeverityMedium:   "empathetic_soft",
	guardrail.SeverityHigh:     "empathetic_high_intensity",
	guardrail.SeverityCritical: "empathetic_crisis_support",
}

var abuseMapping = map[guardrail.Severity]string{
	guardrail.SeverityLow:      "grounded_calm",
	guardrail.SeverityMedium:   "grounded_calm",
	guardrail.SeverityHigh:     "grounded_calm_strong",
	guardrail.SeverityCritical: "grounded_calm_strong",
}

var boundaryMapping = map[guardrail.Severity]string{
	guardrail.SeverityLow:      "firm_boundary",
	guardrail.SeverityMedium:   "firm_boundary",
	guardrail.SeverityHigh:     "firm_boundary_strict",
	guardrail.SeverityCritical: "firm_boundary_strict",
}

// #endregion

// #region profile

// Profile derives the tone profile from the skeleton and the guardrail
// classification. The mapping is fixed data; there is no runtime-variable
// source. The second return is false when no profile applies: under the
// none category that is skeleton D or an unmapped severity; the category
// mappings apply to every skeleton, D included. The trace then omits the
// field.
func Profile(sk contract.Skeleton, result guardrail.Result) (string, bool) {
	severity := result.Severity
	if severity == guardrail.SeverityNone {
		severity = guardrail.SeverityLow
	}

	switch result.Category {
	case guardrail.CategoryNone:
		p, ok := safeMapping[safeKey{sk, severity}]
		return p, ok
	case guardrail.CategorySelfHarm:
		p, ok := selfHarmMapping[severity]
		return p, ok
	case guardrail.CategoryAbuse, guardrail.CategoryManipulation:
		p, ok := abuseMapping[severity]
		return p, ok
	case guardrail.CategoryExtremism:
		if severity.AtLeast(guardrail.SeverityHigh) {
			return "firm_boundary_strict", true
		}
		return "measured_neutral", true
	case guardrail.CategorySystemProbe:
		return "measured_neutral", true
	case guardrail.CategoryJailbreak, guardrail.CategoryDataExtraction, guardrail.CategorySexualContent:
		p, ok := boundaryMapping[severity]
		return p, ok
	}
	return "", false
}

// #endregion
