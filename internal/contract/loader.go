package contract

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed contract.yaml
var embeddedContract []byte

// #region document

// document mirrors the on-disk contract layout. Variants are either plain
// strings or {text, tags} objects; rawVariant absorbs both.
type document struct {
	ContractVersion string                                     `yaml:"contract_version"`
	Skeletons       map[string]map[string]map[string]yaml.Node `yaml:"skeletons"`
}

type rawVariant struct {
	Text string   `yaml:"text"`
	Tags []string `yaml:"tags"`
}

// #endregion

// #region load

// Load reads and validates a contract document from path. An empty path
// loads the embedded default contract.
func Load(path string) (*Contract, error) {
	if path == "" {
		return Parse(embeddedContract)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contract %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes, indexes and validates a contract document.
func Parse(raw []byte) (*Contract, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse contract: %w", err)
	}
	if len(doc.Skeletons) == 0 {
		return nil, fmt.Errorf("contract has no skeletons block")
	}

	c := &Contract{
		version:   doc.ContractVersion,
		pools:     make(map[PoolKey][]VariantEntry),
		overrides: make(map[overrideKey]string),
	}

	for skeletonKey, languages := range doc.Skeletons {
		skeleton := Skeleton(skeletonKey)
		for languageKey, sections := range languages {
			language := Language(languageKey)
			for sectionKey, node := range sections {
				if sectionKey == "guardrail" {
					if err := decodeOverrides(c, skeleton, language, node); err != nil {
						return nil, err
					}
					continue
				}
				entries, err := decodeVariants(node, skeleton, language, sectionKey)
				if err != nil {
					return nil, err
				}
				c.pools[PoolKey{skeleton, language, Section(sectionKey)}] = entries
			}
		}
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("contract invalid: %w", err)
	}
	return c, nil
}

// #endregion

// #region decode

func decodeVariants(node yaml.Node, skeleton Skeleton, language Language, section string) ([]VariantEntry, error) {
	var rawList []yaml.Node
	if err := node.Decode(&rawList); err != nil {
		return nil, fmt.Errorf("%s/%s/%s must be a list: %w", skeleton, language, section, err)
	}
	entries := make([]VariantEntry, 0, len(rawList))
	for i, item := range rawList {
		var text string
		if err := item.Decode(&text); err == nil {
			entries = append(entries, VariantEntry{ID: i, Text: text})
			continue
		}
		var rv rawVariant
		if err := item.Decode(&rv); err != nil || rv.Text == "" {
			return nil, fmt.Errorf("%s/%s/%s variant %d must be a string or a {text, tags} object", skeleton, language, section, i)
		}
		entries = append(entries, VariantEntry{ID: i, Text: rv.Text, Tags: rv.Tags})
	}
	return entries, nil
}

func decodeOverrides(c *Contract, skeleton Skeleton, language Language, node yaml.Node) error {
	var block map[string]string
	if err := node.Decode(&block); err != nil {
		return fmt.Errorf("%s/%s/guardrail must map category to text: %w", skeleton, language, err)
	}
	for category, text := range block {
		c.overrides[overrideKey{skeleton, language, category}] = text
	}
	return nil
}

// #endregion
