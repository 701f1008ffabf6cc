package providers

import (
	"strings"
	"unicode"
)

// duplicateThreshold is the word-overlap fraction above which two items are duplicates.
const duplicateThreshold = 0.4

// stopWords never count toward overlap.
var stopWords = map[string]bool{
	"all": true, "and": true, "any": true, "are": true, "each": true,
	"for": true, "from": true, "into": true, "its": true, "per": true,
	"that": true, "the": true, "their": true, "this": true, "via": true,
	"with": true,
}

// DedupMerge concatenates lists in order, dropping blank items and items
// that duplicate one already kept, and stops once limit items are kept.
func DedupMerge(limit int, lists ...[]string) []string {
	merged := []string{}
	kept := [][]string{}

	for _, list := range lists {
		for _, item := range list {
			if len(merged) == limit {
				return merged
			}
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			w := words(item)
			if duplicatesAny(w, kept) {
				continue
			}
			merged = append(merged, item)
			kept = append(kept, w)
		}
	}

	return merged
}

// Overlap is the fraction of items in the longer list that have a duplicate
// in the other. Two empty lists fully overlap; one empty list does not.
func Overlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	bw := make([][]string, len(b))
	for i, item := range b {
		bw[i] = words(item)
	}

	matched := 0
	for _, item := range a {
		if duplicatesAny(words(item), bw) {
			matched++
		}
	}

	return float64(matched) / float64(max(len(a), len(b)))
}

// Similarity is the fraction of words shared between a and b, where a word
// matches when equal to, or a substring of, a word on the other side.
func Similarity(a, b string) float64 {
	return wordSimilarity(words(a), words(b))
}

func duplicatesAny(w []string, kept [][]string) bool {
	for _, k := range kept {
		if wordSimilarity(w, k) > duplicateThreshold {
			return true
		}
	}
	return false
}

func wordSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	matched := 0
	for _, x := range a {
		for _, y := range b {
			if x == y || strings.Contains(x, y) || strings.Contains(y, x) {
				matched++
				break
			}
		}
	}

	return float64(matched) / float64(max(len(a), len(b)))
}

// words lowercases s and splits it into alphanumeric words of three or more
// runes, skipping stop words.
func words(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 3 && !stopWords[f] {
			out = append(out, f)
		}
	}
	return out
}
