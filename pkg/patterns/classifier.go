/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classifier.go
Description: Pattern classifier for the Kestrel inference engine. Maps a raw field or
component value to a set of categorical shape tags (numeric, date, fixed-length id,
name-shaped, etc.). Rules are evaluated independently and all matches are collected.
Pure function: no side effects, cannot fail, never returns an empty tag set.
*/

package patterns

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern tags produced by Classify. A value may carry several at once.
const (
	TagNumeric       = "numeric"
	TagDecimal       = "decimal"
	TagDateYYYYMMDD  = "date_yyyymmdd"
	TagTimestamp     = "timestamp_yyyymmddhhmmss"
	TagISODate       = "iso_date"
	TagAlphaPrefixID = "alpha_prefix_id"
	TagSevenDigitID  = "seven_digit_id"
	TagTenDigitID    = "ten_digit_id"
	TagNamePattern   = "name_pattern"
	TagUppercase     = "uppercase_alpha"
	TagLowercase     = "lowercase_alpha"
	TagAlphanumeric  = "alphanumeric"

	// LengthTagPrefix prefixes the unconditional length tag, e.g. "length_7".
	LengthTagPrefix = "length_"
)

var (
	reNumeric       = regexp.MustCompile(`^\d+$`)
	reDecimal       = regexp.MustCompile(`^\d+\.\d+$`)
	reDate          = regexp.MustCompile(`^\d{8}$`)
	reTimestamp     = regexp.MustCompile(`^\d{14}$`)
	reISODate       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reAlphaPrefixID = regexp.MustCompile(`^[A-Za-z]{2,3}\d+$`)
	reSevenDigitID  = regexp.MustCompile(`^\d{7}$`)
	reTenDigitID    = regexp.MustCompile(`^\d{10}$`)
	reUppercase     = regexp.MustCompile(`^[A-Z]+$`)
	reLowercase     = regexp.MustCompile(`^[a-z]+$`)
	reAlphanumeric  = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	reAlphabetic    = regexp.MustCompile(`^[A-Za-z]+$`)
)

// LengthTag returns the unconditional length tag for a value of length n.
func LengthTag(n int) string {
	return fmt.Sprintf("%s%d", LengthTagPrefix, n)
}

// IsLengthTag reports whether a tag is a length_<N> tag.
func IsLengthTag(tag string) bool {
	return strings.HasPrefix(tag, LengthTagPrefix)
}

// Classify maps one delimiter-stripped value to its set of shape tags.
// The componentDelim parameter is used only for the name-shaped rule, which
// requires an alphabetic part on each side of the delimiter.
func Classify(value string, componentDelim string) []string {
	var tags []string

	if reNumeric.MatchString(value) {
		tags = append(tags, TagNumeric)
	}
	if reDecimal.MatchString(value) {
		tags = append(tags, TagDecimal)
	}
	if reDate.MatchString(value) {
		tags = append(tags, TagDateYYYYMMDD)
	}
	if reTimestamp.MatchString(value) {
		tags = append(tags, TagTimestamp)
	}
	if reISODate.MatchString(value) {
		tags = append(tags, TagISODate)
	}
	if reAlphaPrefixID.MatchString(value) {
		tags = append(tags, TagAlphaPrefixID)
	}
	if reSevenDigitID.MatchString(value) {
		tags = append(tags, TagSevenDigitID)
	}
	if reTenDigitID.MatchString(value) {
		tags = append(tags, TagTenDigitID)
	}
	if isNameShaped(value, componentDelim) {
		tags = append(tags, TagNamePattern)
	}
	if reUppercase.MatchString(value) {
		tags = append(tags, TagUppercase)
	}
	if reLowercase.MatchString(value) {
		tags = append(tags, TagLowercase)
	}
	if reAlphanumeric.MatchString(value) {
		tags = append(tags, TagAlphanumeric)
	}

	// Every value carries its length tag, so no value classifies to nothing.
	tags = append(tags, LengthTag(len(value)))

	return tags
}

// isNameShaped matches component-separated values whose first two parts are
// both purely alphabetic, e.g. "SMITH^JOHN".
func isNameShaped(value, componentDelim string) bool {
	if componentDelim == "" || !strings.Contains(value, componentDelim) {
		return false
	}
	parts := strings.SplitN(value, componentDelim, 3)
	if len(parts) < 2 {
		return false
	}
	return reAlphabetic.MatchString(parts[0]) && reAlphabetic.MatchString(parts[1])
}
