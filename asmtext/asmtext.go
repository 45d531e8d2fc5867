// Package asmtext is the ad-hoc assembly-text parser (spec.md §6): a
// line-oriented reader that strips comments, directives, and labels and
// decodes each remaining line through asmdec, for comparing a pasted or
// hand-written sequence against a search result without going through a
// real assembler.
package asmtext

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gostoke/gostoke/asmdec"
	"github.com/gostoke/gostoke/isa"
)

// LineError reports the 1-indexed source line a parse failure came
// from, alongside the line's (comment-stripped) text.
type LineError struct {
	Line    int
	Text    string
	Wrapped error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("asmtext: line %d: %v\n  | %s", e.Line, e.Wrapped, e.Text)
}

func (e *LineError) Unwrap() error { return e.Wrapped }

// stripComment removes a trailing "//", ";", or "@" comment.
func stripComment(line string) string {
	end := len(line)
	for _, marker := range []string{"//", ";", "@"} {
		if i := strings.Index(line, marker); i >= 0 && i < end {
			end = i
		}
	}
	return line[:end]
}

func isLabel(trimmed string) bool {
	return trimmed != "" && strings.HasSuffix(trimmed, ":")
}

func isDirective(trimmed string) bool {
	return strings.HasPrefix(trimmed, ".")
}

// ParseLine decodes one line of assembly text, reporting ok=false (with
// no error) for blank lines, comments, directives, and labels, which the
// caller should simply skip.
func ParseLine(address uint64, line string) (instr isa.Instruction, ok bool, err error) {
	stripped := stripComment(line)
	trimmed := strings.TrimSpace(stripped)
	if trimmed == "" || isLabel(trimmed) || isDirective(trimmed) {
		return isa.Instruction{}, false, nil
	}

	mnemonic, operandText := trimmed, ""
	if i := strings.IndexFunc(trimmed, unicode.IsSpace); i >= 0 {
		mnemonic, operandText = trimmed[:i], strings.TrimSpace(trimmed[i:])
	}
	if mnemonic == "" {
		return isa.Instruction{}, false, nil
	}

	instr, err = asmdec.Decode(address, mnemonic, operandText)
	if err != nil {
		return isa.Instruction{}, false, err
	}
	return instr, true, nil
}

// Parse decodes every non-skippable line of source into a Sequence, in
// order, stopping at the first line that fails to decode.
func Parse(source string) (isa.Sequence, error) {
	var seq isa.Sequence
	for i, line := range strings.Split(source, "\n") {
		lineNum := i + 1
		instr, ok, err := ParseLine(uint64(lineNum), line)
		if err != nil {
			return nil, &LineError{Line: lineNum, Text: stripComment(line), Wrapped: err}
		}
		if ok {
			seq = append(seq, instr)
		}
	}
	return seq, nil
}
