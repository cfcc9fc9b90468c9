/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classifier_test.go
Description: Tests for the pattern classifier. Covers every tag rule, independent
rule evaluation (values carrying several tags at once), and the unconditional
length tag guaranteeing a non-empty tag set.
*/

package patterns_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kleascm/kestrel-hl7/pkg/patterns"
)

func TestClassifyNumericShapes(t *testing.T) {
	tags := patterns.Classify("12345", "^")
	assert.Contains(t, tags, patterns.TagNumeric)
	assert.Contains(t, tags, patterns.TagAlphanumeric)
	assert.Contains(t, tags, "length_5")
	assert.NotContains(t, tags, patterns.TagDecimal)

	tags = patterns.Classify("3.14", "^")
	assert.Contains(t, tags, patterns.TagDecimal)
	assert.NotContains(t, tags, patterns.TagNumeric)
}

func TestClassifyDateShapes(t *testing.T) {
	tags := patterns.Classify("20240115", "^")
	assert.Contains(t, tags, patterns.TagDateYYYYMMDD)
	assert.Contains(t, tags, patterns.TagNumeric)

	tags = patterns.Classify("20240115093000", "^")
	assert.Contains(t, tags, patterns.TagTimestamp)
	assert.NotContains(t, tags, patterns.TagDateYYYYMMDD)

	tags = patterns.Classify("2024-01-15", "^")
	assert.Contains(t, tags, patterns.TagISODate)
	assert.NotContains(t, tags, patterns.TagNumeric)
}

func TestClassifyIdentifierShapes(t *testing.T) {
	tags := patterns.Classify("1234567", "^")
	assert.Contains(t, tags, patterns.TagSevenDigitID)
	assert.NotContains(t, tags, patterns.TagTenDigitID)

	tags = patterns.Classify("1234567890", "^")
	assert.Contains(t, tags, patterns.TagTenDigitID)
	assert.Contains(t, tags, "length_10")

	tags = patterns.Classify("MR123456", "^")
	assert.Contains(t, tags, patterns.TagAlphaPrefixID)
	assert.Contains(t, tags, patterns.TagAlphanumeric)
}

func TestClassifyNameShape(t *testing.T) {
	tags := patterns.Classify("SMITH^JOHN", "^")
	assert.Contains(t, tags, patterns.TagNamePattern)
	assert.NotContains(t, tags, patterns.TagAlphanumeric)

	// Digits on one side break the name shape.
	tags = patterns.Classify("SMITH^123", "^")
	assert.NotContains(t, tags, patterns.TagNamePattern)

	// Without the component delimiter there is no name shape.
	tags = patterns.Classify("SMITH", "^")
	assert.NotContains(t, tags, patterns.TagNamePattern)
	assert.Contains(t, tags, patterns.TagUppercase)
}

func TestClassifyCaseShapes(t *testing.T) {
	assert.Contains(t, patterns.Classify("ADMIT", "^"), patterns.TagUppercase)
	assert.Contains(t, patterns.Classify("admit", "^"), patterns.TagLowercase)

	mixed := patterns.Classify("Admit", "^")
	assert.NotContains(t, mixed, patterns.TagUppercase)
	assert.NotContains(t, mixed, patterns.TagLowercase)
	assert.Contains(t, mixed, patterns.TagAlphanumeric)
}

func TestClassifyNeverReturnsEmptyTagSet(t *testing.T) {
	for _, value := range []string{"", "x", "!!!", "a b c", "||^^"} {
		tags := patterns.Classify(value, "^")
		assert.NotEmpty(t, tags, "value %q must carry at least the length tag", value)
		assert.Contains(t, tags, patterns.LengthTag(len(value)))
	}
}

func TestLengthTagHelpers(t *testing.T) {
	assert.Equal(t, "length_7", patterns.LengthTag(7))
	assert.True(t, patterns.IsLengthTag("length_7"))
	assert.False(t, patterns.IsLengthTag(patterns.TagNumeric))
}
