// Package token finds {{NAME}} placeholders in paragraph text. Scanning
// always runs over the concatenation of a paragraph's runs, never run by
// run, because formatting splits routinely fragment a single placeholder
// across two or more runs.
package token

import "regexp"

// Match is one well-formed placeholder occurrence. Start and End are byte
// offsets into the scanned text; End is exclusive and sits just past the
// closing delimiter.
type Match struct {
	Start int
	End   int
	Name  string
}

// Name characters are uppercase-snake only; anything else after an opener
// makes the opener literal text.
var tokenRe = regexp.MustCompile(`\{\{([A-Z0-9_]+)\}\}`)

// Scan returns every well-formed token in text in ascending order. Matches
// never overlap and never nest: scanning resumes immediately after a
// closing delimiter. Scan is pure, so callers may rescan mutated text at
// any time.
func Scan(text string) []Match {
	idx := tokenRe.FindAllStringSubmatchIndex(text, -1)
	if len(idx) == 0 {
		return nil
	}
	out := make([]Match, 0, len(idx))
	for _, m := range idx {
		out = append(out, Match{Start: m[0], End: m[1], Name: text[m[2]:m[3]]})
	}
	return out
}

// ScanUnterminated returns the offsets of opening delimiters that start
// a placeholder name but have no matching close before the end of the
// text or the next token. Braces not followed by a name character are
// plain prose ("use {{ braces }}", "{{lower}}") and are never reported.
// The renderer leaves all of these as literal text; the offsets only
// feed anomaly reporting.
func ScanUnterminated(text string) []int {
	matches := Scan(text)
	var out []int
	for i := 0; i+1 < len(text); i++ {
		if text[i] != '{' || text[i+1] != '{' {
			continue
		}
		if within(matches, i) || within(matches, i+1) {
			continue
		}
		if i+2 >= len(text) || !isNameByte(text[i+2]) {
			continue
		}
		// A well-formed token starting here was already excluded, so this
		// opener's name run dead-ends before any closing delimiter.
		out = append(out, i)
		i++ // skip the second brace so "{{{A" reports once
	}
	return out
}

func isNameByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

func within(matches []Match, off int) bool {
	for _, m := range matches {
		if off >= m.Start && off < m.End {
			return true
		}
	}
	return false
}
