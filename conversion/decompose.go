// Package conversion turns source code written in one language into another
// by prompting a conversation.Client for a three-part answer, and splits
// that answer back into its parts.
package conversion

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Section identifies one part of a conversion reply.
type Section int

const (
	sectionNone Section = iota
	SectionLogic
	SectionUnitTests
	SectionCode
)

// Decomposed is a conversion reply split into its sections. A section the
// reply did not contain is left empty.
type Decomposed struct {
	Logic         string `json:"logic"`
	UnitTests     string `json:"unit_tests"`
	ConvertedCode string `json:"python_code"`
}

// Convention is the set of heading names that open each section. Names are
// matched case-insensitively as a whole-word prefix of the heading text.
type Convention struct {
	Logic     []string
	UnitTests []string
	Code      []string
}

// DefaultConvention is the heading set requested by the Ada to Python prompt.
var DefaultConvention = NewConvention("Python")

// NewConvention returns the heading set for replies whose code section is
// written in targetLanguage.
func NewConvention(targetLanguage string) Convention {
	return Convention{
		Logic:     []string{"Logic"},
		UnitTests: []string{"Unit Test", "Unit Tests"},
		Code:      []string{targetLanguage + " Code"},
	}
}

// Decompose splits raw using DefaultConvention.
func Decompose(raw string) Decomposed {
	return DefaultConvention.Decompose(raw)
}

// Decompose splits raw into sections in a single pass over its lines.
//
// A heading is a line made of one or more '#' characters, whitespace, and a
// name from the convention. Whatever follows the name on that line, minus an
// optional ':', opens the section body. Each heading starts a section that
// runs until the next heading or the end of raw. Text before the first heading
// is dropped. A '#' line that does not start with a name from the convention
// is ordinary text and stays in the current section. When a section appears more
// than once the last occurrence wins. Decompose never fails; a reply without
// headings yields an empty Decomposed.
func (c Convention) Decompose(raw string) Decomposed {
	var (
		out     Decomposed
		current = sectionNone
		body    strings.Builder
	)

	flush := func() {
		text := strings.TrimSpace(body.String())
		switch current {
		case SectionLogic:
			out.Logic = text
		case SectionUnitTests:
			out.UnitTests = text
		case SectionCode:
			out.ConvertedCode = text
		}
		body.Reset()
	}

	for _, line := range strings.SplitAfter(raw, "\n") {
		if section, rest, ok := c.heading(line); ok {
			flush()
			current = section
			if rest != "" {
				body.WriteString(rest + "\n")
			}
			continue
		}
		if current != sectionNone {
			body.WriteString(line)
		}
	}
	flush()

	return out
}

// heading reports whether line is a recognized section heading and returns
// the text that follows the section name.
func (c Convention) heading(line string) (Section, string, bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "#") {
		return sectionNone, "", false
	}
	text := strings.TrimLeft(s, "#")
	if text == "" || (text[0] != ' ' && text[0] != '\t') {
		return sectionNone, "", false
	}
	text = strings.TrimSpace(text)

	best, size := sectionNone, 0
	for _, group := range []struct {
		section Section
		names   []string
	}{
		{SectionLogic, c.Logic},
		{SectionUnitTests, c.UnitTests},
		{SectionCode, c.Code},
	} {
		for _, name := range group.names {
			if len(name) > size && hasWordPrefix(text, name) {
				best, size = group.section, len(name)
			}
		}
	}
	if best == sectionNone {
		return sectionNone, "", false
	}

	rest := strings.TrimSpace(text[size:])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	return best, rest, true
}

// hasWordPrefix reports whether text starts with name, ignoring case, and the
// name is not followed by more of the same word.
func hasWordPrefix(text, name string) bool {
	if name == "" || len(text) < len(name) || !strings.EqualFold(text[:len(name)], name) {
		return false
	}
	r, n := utf8.DecodeRuneInString(text[len(name):])
	if n == 0 {
		return true
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}
