/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: message.go
Description: Message tokenizer for the Kestrel inference engine. Splits raw HL7-style
interchange text into typed segments with delimiter-aware field and component access.
Tolerant of noisy input: lines too short to carry a segment type are skipped.
*/

package message

import (
	"strings"
)

// MinSegmentLength is the shortest line that can carry a 3-character segment
// type plus a delimiter.
const MinSegmentLength = 4

// SegmentTypeLength is the fixed width of an HL7 segment type code.
const SegmentTypeLength = 3

// Delimiters holds the separator characters used by a message.
// HL7 v2 defaults are pipe for fields and caret for components.
type Delimiters struct {
	Field     string `json:"field"`
	Component string `json:"component"`
}

// DefaultDelimiters returns the standard HL7 v2 separators.
func DefaultDelimiters() Delimiters {
	return Delimiters{Field: "|", Component: "^"}
}

// Segment is one typed line of a message. Fields preserves the raw split of
// the line content on the field delimiter: index 0 is the residue left of the
// first delimiter and is never a data field.
type Segment struct {
	Type   string
	Fields []string
}

// Field returns the field at a 1-based position, or empty string if absent.
func (s *Segment) Field(position int) string {
	if position < 1 || position >= len(s.Fields) {
		return ""
	}
	return s.Fields[position]
}

// FieldCount returns the highest populated 1-based field position.
func (s *Segment) FieldCount() int {
	if len(s.Fields) == 0 {
		return 0
	}
	return len(s.Fields) - 1
}

// Tokenize splits a raw message into typed segments. Lines are separated by
// \r or \n (HL7 traditionally uses \r). Lines shorter than MinSegmentLength
// are skipped silently: partial and noisy samples are expected input.
func Tokenize(raw string, delims Delimiters) []Segment {
	lines := SplitLines(raw)
	segments := make([]Segment, 0, len(lines))

	for _, line := range lines {
		if len(line) < MinSegmentLength {
			continue
		}
		segType := line[:SegmentTypeLength]
		fields := strings.Split(line[SegmentTypeLength:], delims.Field)
		segments = append(segments, Segment{Type: segType, Fields: fields})
	}

	return segments
}

// SplitLines splits raw message text on \r\n, \r, or \n.
func SplitLines(raw string) []string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.Split(normalized, "\n")
}

// Components splits a composite field value on the component delimiter.
// A value without the delimiter returns a single-element slice.
func Components(value string, delims Delimiters) []string {
	return strings.Split(value, delims.Component)
}

// IsComposite reports whether a field value contains the component delimiter.
func IsComposite(value string, delims Delimiters) bool {
	return strings.Contains(value, delims.Component)
}
