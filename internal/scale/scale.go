// Package scale maps point-scale presets to their ordered vote tokens and
// validates candidate votes against a scale.
package scale

// Preset names
const (
	PresetFibonacci   = "fibonacci"
	PresetPowersOfTwo = "powers-of-two"
	PresetLinear      = "linear"
	PresetHybrid      = "hybrid"
	PresetTShirt      = "t-shirt"
	PresetCustom      = "custom"
)

// UnsureToken is the conventional "I don't know" card. Every built-in
// preset ends with it; custom scales may omit it, in which case unsure
// statistics are vacuously zero.
const UnsureToken = "?"

var presets = map[string][]string{
	PresetFibonacci:   {"0", "1", "2", "3", "5", "8", "13", "21", UnsureToken},
	PresetPowersOfTwo: {"1", "2", "4", "8", "16", "32", UnsureToken},
	PresetLinear:      {"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", UnsureToken},
	PresetHybrid:      {"0.5", "1", "2", "3", "5", "8", "13", "20", "40", "100", UnsureToken},
	PresetTShirt:      {"XS", "S", "M", "L", "XL", UnsureToken},
}

// ScaleFor resolves a preset name to its token sequence. For the custom
// preset a non-empty caller-supplied scale is used as-is; an unknown preset
// or an empty custom scale falls back to fibonacci.
func ScaleFor(preset string, custom []string) []string {
	if preset == PresetCustom {
		if len(custom) > 0 {
			return custom
		}
		return presets[PresetFibonacci]
	}
	if tokens, ok := presets[preset]; ok {
		return tokens
	}
	return presets[PresetFibonacci]
}

// IsValidToken reports whether token is a member of scale.
func IsValidToken(token string, scale []string) bool {
	for _, t := range scale {
		if t == token {
			return true
		}
	}
	return false
}

// IsPreset reports whether name denotes a built-in preset (not custom).
func IsPreset(name string) bool {
	_, ok := presets[name]
	return ok
}
