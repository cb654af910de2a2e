package assembler

import (
	"fmt"
	"strings"

	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/contract"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/fallback"
	"github.com/shubhankartiwari99/indian-desi-llm-inference/internal/skeleton"
)

// Assemble concatenates the selected section texts in the skeleton's fixed
// order, joined by single spaces. No rewriting, no reordering, no omission.
func Assemble(sk contract.Skeleton, texts map[contract.Section]string) (string, error) {
	policy, ok := skeleton.Policies[sk]
	if !ok {
		return "", fmt.Errorf("%w: unknown skeleton %q", fallback.ErrAssembly, sk)
	}

	parts := make([]string, 0, len(policy.Sections))
	for _, section := range policy.Sections {
		text, ok := texts[section]
		if !ok || strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: missing %s text under skeleton %s", fallback.ErrAssembly, section, sk)
		}
		parts = append(parts, text)
	}

	out := strings.Join(parts, " ")
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: empty final string under skeleton %s", fallback.ErrAssembly, sk)
	}
	return out, nil
}
