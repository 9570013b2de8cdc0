// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/arena/world"
)

// Global rules are stored under settings.KeyGlobalRules as a YAML flow
// mapping, e.g. "{wave_spacing: 60, fog: true}". Names matching a field
// of world.Rules set that field; any other name lands in Rules.Extra.

func parseGlobalRules(text string) (map[string]any, error) {
	global := map[string]any{}
	if strings.TrimSpace(text) == "" {
		return global, nil
	}
	if err := yaml.Unmarshal([]byte(text), &global); err != nil {
		return nil, fmt.Errorf("parsing global rules: %w", err)
	}
	if global == nil {
		global = map[string]any{}
	}
	return global, nil
}

func formatGlobalRules(global map[string]any) (string, error) {
	var node yaml.Node
	if err := node.Encode(global); err != nil {
		return "", err
	}
	node.Style = yaml.FlowStyle
	out, err := yaml.Marshal(&node)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// parseRuleValue reads a rule value the way an operator types it:
// numbers, booleans, quoted or bare strings, and flow collections.
func parseRuleValue(raw string) (any, error) {
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return nil, err
	}
	return value, nil
}

// applyGlobalRules returns rules with global layered on top. A value
// of the wrong type for a known field is an error and leaves rules
// untouched.
func applyGlobalRules(rules world.Rules, global map[string]any) (world.Rules, error) {
	if len(global) == 0 {
		return rules, nil
	}
	fields, err := ruleFields(rules)
	if err != nil {
		return rules, err
	}

	merged := rules.Clone()
	overlay := map[string]any{}
	for name, value := range global {
		if _, known := fields[name]; known && name != "extra" {
			overlay[name] = value
			continue
		}
		if merged.Extra == nil {
			merged.Extra = map[string]any{}
		}
		merged.Extra[name] = value
	}
	if len(overlay) == 0 {
		return merged, nil
	}

	data, err := yaml.Marshal(overlay)
	if err != nil {
		return rules, err
	}
	if err := yaml.Unmarshal(data, &merged); err != nil {
		return rules, fmt.Errorf("invalid rule value: %w", err)
	}
	return merged, nil
}

// ruleFields returns the YAML field names of world.Rules.
func ruleFields(rules world.Rules) (map[string]any, error) {
	rules.Extra = map[string]any{"": nil}
	data, err := yaml.Marshal(rules)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
