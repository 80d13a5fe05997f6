// Copyright 2024 The Rustchain Authors
// This file is part of the Rustchain node.
//
// The Rustchain node is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The Rustchain node is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the Rustchain node. If not, see <http://www.gnu.org/licenses/>.

package fingerprint

// Parse converts the raw decoded JSON body of a `fingerprint` object
// (checks map with legacy-bool-or-{passed,data} shaped entries, plus
// claimed_arch/cpu_brand) into a typed Fingerprint. A missing check is
// left at its zero value with Present = NotProvided; unknown keys are
// ignored, per spec.md §4.3 and the Design Note in §9.
func Parse(raw map[string]interface{}) Fingerprint {
	checks, _ := raw["checks"].(map[string]interface{})

	fp := Fingerprint{
		ClaimedArch: stringField(raw, "claimed_arch"),
		CPUBrand:    stringField(raw, "cpu_brand"),
	}

	if c, ok := checkEntry(checks, "anti_emulation"); ok {
		passed, data := splitLegacy(c)
		fp.AntiEmulation = AntiEmulation{
			Present:    Provided,
			Passed:     passed,
			Indicators: stringSliceField(data, "vm_indicators"),
			HasData:    len(data) > 0,
		}
	}

	if c, ok := checkEntry(checks, "clock_drift"); ok {
		passed, data := splitLegacy(c)
		fp.ClockDrift = ClockDrift{
			Present:    Provided,
			Passed:     passed,
			CV:         floatField(data, "cv"),
			DriftStdev: floatField(data, "drift_stdev"),
			Reason:     stringField(data, "reason"),
		}
	}

	if c, ok := checkEntry(checks, "cache_timing"); ok {
		_, data := splitLegacy(c)
		fp.CacheTiming = CacheTiming{
			Present:   Provided,
			L2L1Ratio: floatField(data, "l2_l1_ratio"),
			L3L2Ratio: floatField(data, "l3_l2_ratio"),
		}
	}

	if c, ok := checkEntry(checks, "simd_identity"); ok {
		_, data := splitLegacy(c)
		fp.SIMDIdentity = SIMDIdentity{
			Present:    Provided,
			HasAltiVec: boolField(data, "has_altivec"),
			HasNEON:    boolField(data, "has_neon"),
			HasSSE:     boolField(data, "has_sse"),
			HasAVX:     boolField(data, "has_avx"),
		}
	}

	if c, ok := checkEntry(checks, "thermal_drift"); ok {
		_, data := splitLegacy(c)
		fp.ThermalDrift = ThermalDrift{
			Present:    Provided,
			DriftRatio: floatFieldDefault(data, "drift_ratio", 1.0),
			Variance:   floatField(data, "variance"),
			SampleSets: floatSliceField(data, "samples"),
		}
	}

	if c, ok := checkEntry(checks, "rom_fingerprint"); ok {
		_, data := splitLegacy(c)
		fp.ROM = ROMFingerprint{
			Present: Provided,
			ROMHash: stringField(data, "rom_hash"),
		}
	}

	return fp
}

// checkEntry fetches checks[key] if present; ok is false for a missing key.
func checkEntry(checks map[string]interface{}, key string) (interface{}, bool) {
	if checks == nil {
		return nil, false
	}
	v, ok := checks[key]
	return v, ok
}

// splitLegacy normalizes a check entry that is either a bare bool
// (legacy) or a {passed, data} object into (passed, data).
func splitLegacy(v interface{}) (bool, map[string]interface{}) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case map[string]interface{}:
		passed, _ := t["passed"].(bool)
		data, _ := t["data"].(map[string]interface{})
		return passed, data
	default:
		return false, nil
	}
}

func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]interface{}, key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}

func floatField(m map[string]interface{}, key string) float64 {
	return floatFieldDefault(m, key, 0)
}

func floatFieldDefault(m map[string]interface{}, key string, def float64) float64 {
	if m == nil {
		return def
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

func stringSliceField(m map[string]interface{}, key string) []string {
	if m == nil {
		return nil
	}
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func floatSliceField(m map[string]interface{}, key string) []float64 {
	if m == nil {
		return nil
	}
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}
