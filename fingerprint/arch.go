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

import "strings"

// ArchProfile describes the expected hardware signature of one
// architecture family. Values are grounded on arch_validation.py's
// ARCH_PROFILES table; cache sizes are not carried, only whether a
// distinct L2 level exists.
type ArchProfile struct {
	Name        string
	L2L1Present bool // whether this arch has a real, distinct L2 from L1
	SIMD        string // "altivec", "neon", "sse_avx", "sse", or ""
	MinCV       float64
	IsVintage   bool // G3/G4/G5-class: used by the clock-drift and thermal-drift rules
}

// ArchProfiles is the authoritative arch -> expected-signature table.
var ArchProfiles = map[string]ArchProfile{
	"g4": {Name: "G4", L2L1Present: true, SIMD: "altivec", MinCV: 0.001, IsVintage: true},
	"g5": {Name: "G5", L2L1Present: true, SIMD: "altivec", MinCV: 0.001, IsVintage: true},
	"g3": {Name: "G3", L2L1Present: true, SIMD: "", MinCV: 0.001, IsVintage: true},
	"modern_x86":    {Name: "modern_x86", L2L1Present: true, SIMD: "sse_avx", MinCV: 0.0001},
	"apple_silicon": {Name: "apple_silicon", L2L1Present: true, SIMD: "neon", MinCV: 0.0001},
	"retro_x86":     {Name: "retro_x86", L2L1Present: false, SIMD: "sse", MinCV: 0.0005},
}

// ResolveArchProfile maps a free-form claimed-arch string to a profile,
// mirroring arch_validation.py's substring matching order.
func ResolveArchProfile(claimedArch string) (ArchProfile, bool) {
	arch := strings.ToLower(claimedArch)
	switch {
	case strings.Contains(arch, "g4"):
		return ArchProfiles["g4"], true
	case strings.Contains(arch, "g5"):
		return ArchProfiles["g5"], true
	case strings.Contains(arch, "g3"):
		return ArchProfiles["g3"], true
	case strings.Contains(arch, "apple"), strings.Contains(arch, "m1"), strings.Contains(arch, "m2"), strings.Contains(arch, "m3"):
		return ArchProfiles["apple_silicon"], true
	case strings.Contains(arch, "x86_64"), strings.Contains(arch, "amd64"):
		return ArchProfiles["modern_x86"], true
	case strings.Contains(arch, "i386"), strings.Contains(arch, "i686"), strings.Contains(arch, "pentium"):
		return ArchProfiles["retro_x86"], true
	default:
		return ArchProfile{}, false
	}
}

// cpuGeneration is one entry of the device-age oracle table (spec.md
// §4.3 rule 7), grounded on cpu_architecture_detection.py /
// cpu_vintage_architectures.py's brand-string-to-year research tables.
type cpuGeneration struct {
	substr    string
	yearStart int
	yearEnd   int
}

var cpuGenerations = []cpuGeneration{
	{"68000", 1979, 1996},
	{"68020", 1984, 1996},
	{"68030", 1987, 1996},
	{"68040", 1990, 1996},
	{"power pc 750", 1997, 2003}, // G3
	{"powerpc 750", 1997, 2003},
	{"powerpc g3", 1997, 2003},
	{"powerpc g4", 1999, 2006},
	{"powerpc g5", 2003, 2006},
	{"pentium 4", 2000, 2008},
	{"pentium iii", 1999, 2003},
	{"pentium ii", 1997, 1999},
	{"pentium pro", 1995, 1998},
	{"k6", 1997, 2001},
	{"k5", 1996, 1997},
	{"athlon", 1999, 2005},
	{"core 2", 2006, 2011},
	{"core i3", 2010, 2025},
	{"core i5", 2009, 2025},
	{"core i7", 2008, 2025},
	{"core i9", 2017, 2025},
	{"ryzen", 2017, 2025},
	{"apple m1", 2020, 2021},
	{"apple m2", 2022, 2023},
	{"apple m3", 2023, 2025},
}

// deviceAgeOracle parses a CPU brand string against the static
// generation table and returns the manufacture year range of the first
// match, or ok=false if the brand string matches no known generation.
func deviceAgeOracle(cpuBrand string) (yearStart, yearEnd int, ok bool) {
	brand := strings.ToLower(cpuBrand)
	for _, g := range cpuGenerations {
		if strings.Contains(brand, g.substr) {
			return g.yearStart, g.yearEnd, true
		}
	}
	return 0, 0, false
}
