package contract

import (
	"fmt"
	"strings"
)

// ContractVersion is the contract schema version this engine speaks. A
// document with any other version is a hard load failure.
const ContractVersion = "1.0.0"

// #region contract

// Contract is the frozen catalogue of legal variants, immutable after load.
type Contract struct {
	version   string
	pools     map[PoolKey][]VariantEntry
	overrides map[overrideKey]string
}

type overrideKey struct {
	skeleton Skeleton
	language Language
	category string
}

// #endregion

// #region accessors

// Version returns the loaded contract version identifier.
func (c *Contract) Version() string {
	return c.version
}

// Variants returns the ordered variant list for the pool, or an empty list
// when the pool is absent. Callers must not mutate the returned slice.
func (c *Contract) Variants(skeleton Skeleton, language Language, section Section) []VariantEntry {
	return c.pools[PoolKey{skeleton, language, section}]
}

// Has reports whether the pool exists and is non-empty.
func (c *Contract) Has(skeleton Skeleton, language Language, section Section) bool {
	return len(c.pools[PoolKey{skeleton, language, section}]) > 0
}

// Override returns the guardrail override constant for the category under
// the given skeleton and language, if the contract carries one.
func (c *Contract) Override(skeleton Skeleton, language Language, category string) (string, bool) {
	text, ok := c.overrides[overrideKey{skeleton, language, category}]
	return text, ok
}

// #endregion

// #region validation

// adviceTokens are forbidden in every variant outside skeleton D.
var adviceTokens = []string{"should", "try", "best way"}

// sectionLimits caps variant counts per section.
var sectionLimits = map[Section]int{
	SectionOpener:     3,
	SectionValidation: 4,
}

// sectionsBySkeleton lists the sections legal for each skeleton.
var sectionsBySkeleton = map[Skeleton][]Section{
	SkeletonA: {SectionOpener, SectionValidation, SectionClosure},
	SkeletonB: {SectionOpener, SectionValidation, SectionClosure},
	SkeletonC: {SectionOpener, SectionValidation, SectionClosure},
	SkeletonD: {SectionOpener, SectionAction, SectionClosure},
}

// singleClosureSkeletons hold exactly one closure entry.
var singleClosureSkeletons = map[Skeleton]bool{
	SkeletonA: true,
	SkeletonC: true,
	SkeletonD: true,
}

// containsAdviceToken reports whether text holds a forbidden advice token as
// a whole word (or the full "best way" phrase).
func containsAdviceToken(text string) (string, bool) {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "best way") {
		return "best way", true
	}
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		if word == "should" || word == "try" {
			return word, true
		}
	}
	return "", false
}

// validate enforces the load-time contract invariants. A violation fails the
// load; the store never serves partial contracts.
func (c *Contract) validate() error {
	if c.version != ContractVersion {
		return fmt.Errorf("contract version %q does not match engine contract version %q", c.version, ContractVersion)
	}

	for key, entries := range c.pools {
		if !key.Skeleton.Valid() {
			return fmt.Errorf("unknown skeleton %q", key.Skeleton)
		}
		if !key.Language.Valid() {
			return fmt.Errorf("unknown language %q under skeleton %s", key.Language, key.Skeleton)
		}
		if !sectionLegal(key.Skeleton, key.Section) {
			return fmt.Errorf("section %s is not legal under skeleton %s", key.Section, key.Skeleton)
		}
		if limit, ok := sectionLimits[key.Section]; ok && len(entries) > limit {
			return fmt.Errorf("%s holds %d entries, limit %d", key, len(entries), limit)
		}
		if singleClosureSkeletons[key.Skeleton] && key.Section == SectionClosure && len(entries) != 1 {
			return fmt.Errorf("%s must hold exactly one closure entry, found %d", key, len(entries))
		}
		if key.Skeleton != SkeletonD {
			for _, entry := range entries {
				if token, found := containsAdviceToken(entry.Text); found {
					return fmt.Errorf("%s variant %d carries advice token %q outside skeleton D", key, entry.ID, token)
				}
			}
		}
		for _, entry := range entries {
			if strings.TrimSpace(entry.Text) == "" {
				return fmt.Errorf("%s variant %d has empty text", key, entry.ID)
			}
		}
	}

	// Every skeleton must carry at least its English opener and closure.
	for _, skeleton := range AllSkeletons {
		for _, section := range []Section{SectionOpener, SectionClosure} {
			if !c.Has(skeleton, LangEN, section) {
				return fmt.Errorf("required pool %s|en|%s is missing", skeleton, section)
			}
		}
	}

	// The self-harm override constant under C is required in English.
	if _, ok := c.Override(SkeletonC, LangEN, "self_harm"); !ok {
		return fmt.Errorf("skeleton C must carry the en self_harm guardrail constant")
	}

	return nil
}

func sectionLegal(skeleton Skeleton, section Section) bool {
	for _, s := range sectionsBySkeleton[skeleton] {
		if s == section {
			return true
		}
	}
	return false
}

// #endregion
