package snapshot

import (
	"io"
	"strings"
	"unicode"

	"github.com/teranos/tsapi/errors"
)

// SplitLines splits on "\r\n", "\n" and "\r". A trailing terminator
// yields a final empty line, so "a\n" is ["a", ""].
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// readLines splits like a line reader: a trailing terminator does not
// start another line and empty text has no lines
func readLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := SplitLines(text)
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Normalize reads declaration text and returns its canonical form:
// "\n" line endings, no trailing whitespace on any line, and exactly one
// final newline. Empty input stays empty.
func Normalize(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "failed to read declarations")
	}
	return NormalizeString(string(raw)), nil
}

// NormalizeString is Normalize over a string
func NormalizeString(text string) string {
	lines := readLines(text)

	trailingEmpty := 0
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
		if lines[i] == "" {
			trailingEmpty++
		} else {
			trailingEmpty = 0
		}
	}

	switch {
	case trailingEmpty == 0:
		lines = append(lines, "")
	case trailingEmpty > 1:
		lines = lines[:len(lines)-(trailingEmpty-1)]
	}
	return strings.Join(lines, "\n")
}
