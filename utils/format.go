package utils

import (
	"fmt"
	"strings"
	"unicode"
)

const fallbackFilePrefix = "PM"

// FormatFileNumber renders a file number such as "SDS-000123".
func FormatFileNumber(prefix string, sequence int) string {
	return fmt.Sprintf("%s-%06d", prefix, sequence)
}

// DefaultFilePrefix derives a file number prefix from a practice name:
// the initials of a multi-word name, or the first three letters of a
// single word.
func DefaultFilePrefix(name string) string {
	var words []string
	for _, w := range strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words = append(words, strings.ToUpper(w))
	}
	switch {
	case len(words) == 0:
		return fallbackFilePrefix
	case len(words) == 1:
		w := []rune(words[0])
		if len(w) > 3 {
			w = w[:3]
		}
		return asciiOnly(string(w))
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteRune([]rune(w)[0])
		if b.Len() >= 4 {
			break
		}
	}
	return asciiOnly(b.String())
}

func asciiOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallbackFilePrefix
	}
	return b.String()
}

// DedupeBy drops items with a repeated key. The last item with a key
// wins but keeps the position of the first one.
func DedupeBy[T any](items []T, key func(T) string) []T {
	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			out[i] = item
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}

// UniqueStrings drops empty and repeated values, keeping order.
func UniqueStrings(values []string) []string {
	return DedupeBy(nonEmpty(values), func(s string) string { return s })
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// NormalizeEmail lower cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LikePattern escapes a search term for a SQL ILIKE contains match.
func LikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}
