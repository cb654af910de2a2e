package guardrail

import (
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
)

// #region escalation

// forceACategories push the skeleton to A, the lowest-intensity template,
// so hostile or probing prompts never receive escalated emotional content.
var forceACategories = map[Category]bool{
	CategoryAbuse:          true,
	CategoryExtremism:      true,
	CategorySystemProbe:    true,
	CategoryDataExtraction: true,
	CategoryJailbreak:      true,
	CategorySexualContent:  true,
}

// EscalateSkeleton maps a classification onto the resolved skeleton.
// Pure mapping: no state access, no mutation, no I/O.
func EscalateSkeleton(result Result, current contract.Skeleton) contract.Skeleton {
	switch {
	case result.Category == CategoryNone:
		return current
	case result.Category == CategorySelfHarm:
		return contract.SkeletonC
	case forceACategories[result.Category]:
		return contract.SkeletonA
	case result.Category == CategoryManipulation && result.Severity.AtLeast(SeverityHigh):
		return contract.SkeletonA
	}
	return current
}

// #endregion

// #region override

// overrideThresholds are the minimum severity at which each category
// replaces the assembled response.
var overrideThresholds = map[Category]Severity{
	CategorySelfHarm:       SeverityHigh,
	CategoryAbuse:          SeverityMedium,
	CategorySexualContent:  SeverityMedium,
	CategoryExtremism:      SeverityHigh,
	CategoryManipulation:   SeverityHigh,
	CategoryJailbreak:      SeverityHigh,
	CategorySystemProbe:    SeverityMedium,
	CategoryDataExtraction: SeverityHigh,
}

// Apply decides whether the assembled response is replaced. Override text
// comes from the contract's guardrail constants for the resolved skeleton
// and language, falling back to English and then to the absolute fallback
// set; overrides never introduce strings from anywhere else.
func Apply(result Result, c *contract.Contract, skeleton contract.Skeleton, language contract.Language, absolute map[contract.Skeleton]string) Action {
	if !result.Triggered() {
		return Action{}
	}
	threshold, ok := overrideThresholds[result.Category]
	if !ok || !result.Severity.AtLeast(threshold) {
		return Action{}
	}

	if c != nil {
		if text, ok := c.Override(skeleton, language, string(result.Category)); ok {
			return Action{Override: true, Text: text}
		}
		if text, ok := c.Override(skeleton, contract.LangEN, string(result.Category)); ok {
			return Action{Override: true, Text: text}
		}
	}
	return Action{Override: true, Text: absolute[skeleton]}
}

// #endregion
