package chunk

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOverlap is returned when the requested overlap cannot fit inside a
// single window. Configuration problem, never retried.
var ErrInvalidOverlap = errors.New("chunk overlap must be smaller than chunk size")

// separators are tried in priority order; the empty string is the
// character-level fallback.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Split cuts text into windows of at most maxSize characters, preferring to
// break on high-priority separators. Consecutive windows share the trailing
// overlap characters of the previous window. Empty input yields no windows.
func Split(text string, maxSize, overlap int) ([]string, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", maxSize, ErrInvalidOverlap)
	}
	if overlap >= maxSize {
		return nil, fmt.Errorf("overlap %d >= chunk size %d: %w", overlap, maxSize, ErrInvalidOverlap)
	}
	if text == "" {
		return nil, nil
	}
	return splitRecursive(text, maxSize, overlap, 0), nil
}

func splitRecursive(text string, maxSize, overlap int, sepIdx int) []string {
	if len(text) <= maxSize {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	sep := separators[sepIdx]
	if sep == "" {
		return splitByCharacters(text, maxSize, overlap)
	}

	units := splitKeepingSeparator(text, sep)

	var out []string
	var window strings.Builder
	for _, unit := range units {
		if len(unit) > maxSize {
			// flush the packed window before recursing into the oversized unit
			if window.Len() > 0 {
				out = append(out, window.String())
				window.Reset()
			}
			sub := splitRecursive(unit, maxSize, overlap, sepIdx+1)
			out = append(out, sub...)
			continue
		}
		if window.Len()+len(unit) > maxSize {
			prev := window.String()
			out = append(out, prev)
			window.Reset()
			if overlap > 0 {
				window.WriteString(tail(prev, overlap))
			}
			// the carried overlap plus the next unit may still exceed the
			// window; drop the overlap rather than produce an oversized chunk
			if window.Len()+len(unit) > maxSize {
				window.Reset()
			}
		}
		window.WriteString(unit)
	}
	if window.Len() > 0 {
		out = append(out, window.String())
	}
	return out
}

// splitKeepingSeparator breaks text on sep, keeping the separator attached to
// the end of the unit that precedes it so no characters are lost.
func splitKeepingSeparator(text, sep string) []string {
	parts := strings.Split(text, sep)
	units := make([]string, 0, len(parts))
	for i, p := range parts {
		if i < len(parts)-1 {
			p += sep
		}
		if p != "" {
			units = append(units, p)
		}
	}
	return units
}

func splitByCharacters(text string, maxSize, overlap int) []string {
	step := maxSize - overlap
	var out []string
	for start := 0; start < len(text); start += step {
		end := start + maxSize
		if end >= len(text) {
			out = append(out, text[start:])
			break
		}
		out = append(out, text[start:end])
	}
	return out
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
