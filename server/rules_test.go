// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"testing"

	"github.com/bureau-foundation/arena/settings"
	"github.com/bureau-foundation/arena/world"
)

func TestApplyGlobalRules(t *testing.T) {
	base := world.Rules{Mode: world.Survival, Waves: true, WaveSpacing: 120}

	merged, err := applyGlobalRules(base, map[string]any{
		"wave_spacing": 45,
		"waves":        false,
		"fog":          true,
	})
	if err != nil {
		t.Fatalf("applyGlobalRules: %v", err)
	}
	if merged.WaveSpacing != 45 || merged.Waves {
		t.Errorf("known fields not applied: %+v", merged)
	}
	if merged.Mode != world.Survival {
		t.Errorf("untouched field changed: mode = %q", merged.Mode)
	}
	if merged.Extra["fog"] != true {
		t.Errorf("Extra = %v, want fog=true", merged.Extra)
	}
	if base.Extra != nil {
		t.Error("base rules were modified")
	}

	if _, err := applyGlobalRules(base, map[string]any{"waves": "sometimes"}); err == nil {
		t.Error("mistyped known field accepted")
	}
}

func TestGlobalRulesRoundTrip(t *testing.T) {
	text, err := formatGlobalRules(map[string]any{"wave_spacing": 30, "fog": true})
	if err != nil {
		t.Fatal(err)
	}
	if text != "{fog: true, wave_spacing: 30}" {
		t.Errorf("formatGlobalRules = %q", text)
	}
	parsed, err := parseGlobalRules(text)
	if err != nil {
		t.Fatal(err)
	}
	if parsed["fog"] != true || parsed["wave_spacing"] != 30 {
		t.Errorf("parseGlobalRules = %v", parsed)
	}

	empty, err := parseGlobalRules("")
	if err != nil || len(empty) != 0 {
		t.Errorf("parseGlobalRules(\"\") = %v, %v", empty, err)
	}
	if _, err := parseGlobalRules("{unterminated"); err == nil {
		t.Error("malformed rules accepted")
	}
}

func TestRulesCommand(t *testing.T) {
	h := newHarness(t)
	h.expect(h.run("rules"), "Rules: none")
	h.expect(h.run("rules add"), "Incorrect usage. Specify the rule to remove or add.")
	h.expect(h.run("rules swap fog"), "Incorrect usage. Either add or remove a rule.")
	h.expect(h.run("rules add fog"), "Missing last argument.")

	h.run("host Craters")
	h.expect(h.run("rules add wave_spacing 30"), "Changed rule: {wave_spacing: 30}")
	if got := h.sim.Rules().WaveSpacing; got != 30 {
		t.Errorf("running wave spacing = %d, want 30", got)
	}
	h.expect(h.run("rules add fog true"), "Changed rule: {fog: true}")
	h.expect(h.run("rules add waves maybe"), "Error parsing rule")
	if got := h.settings.Key(settings.KeyGlobalRules, ""); got != "{fog: true, wave_spacing: 30}" {
		t.Errorf("stored rules = %q", got)
	}
	h.expect(h.run("rules"), "Rules:", "fog: true", "wave_spacing: 30")

	h.expect(h.run("rules remove fog"), "Rule 'fog' removed.")
	h.expect(h.run("rules remove fog"), "Rule not defined, so not removed.")
	if _, ok := h.sim.Rules().Extra["fog"]; ok {
		t.Error("removed rule still applied to the running round")
	}

	h.run("stop")
	h.run("host Ground_Zero")
	if got := h.sim.Rules().WaveSpacing; got != 30 {
		t.Errorf("new round wave spacing = %d, want 30", got)
	}
}
