package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

const maxSearchQueryLength = 100

var (
	reKeepLettersDigits = regexp.MustCompile(`[^0-9\p{L}]+`)
	reTrimUnderscores   = regexp.MustCompile(`_+`)
)

func trimAndLower(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return s
}

func collapseUnderscores(s string) string {
	s = reTrimUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

func truncateRunes(limit int) Strategy {
	return func(s string) string {
		r := []rune(s)
		if len(r) <= limit {
			return s
		}
		return strings.TrimSpace(string(r[:limit]))
	}
}

// SanitizeTitle normalizes free text shown to users, such as booking
// titles and room names.
func SanitizeTitle(input string) string {
	return TrimAndNormalize(input)
}

// SanitizeEquipment turns an equipment label into a stable lookup key.
func SanitizeEquipment(input string) string {
	p := Pipeline{
		trimAndLower,
		func(s string) string { return reKeepLettersDigits.ReplaceAllString(s, "_") },
		collapseUnderscores,
	}
	return p.Apply(input)
}

func SanitizeSearchQuery(input string) string {
	p := Pipeline{
		TrimAndNormalize,
		strings.ToLower,
		truncateRunes(maxSearchQueryLength),
	}
	return p.Apply(input)
}

func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}
