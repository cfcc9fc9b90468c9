/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: compare_test.go
Description: Tests for configuration comparison and merging. Covers self-comparison
identity, typed differences, similarity scoring, conflict-resolution policies,
rule unioning, and metadata combination.
*/

package compare_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/kestrel-hl7/pkg/compare"
	"github.com/kleascm/kestrel-hl7/pkg/patterns"
	"github.com/kleascm/kestrel-hl7/pkg/vendorcfg"
)

func configWith(fields map[string]map[int]vendorcfg.FieldConfigValue) *vendorcfg.VendorConfiguration {
	return &vendorcfg.VendorConfiguration{
		Vendor:          "ACME",
		MessageType:     "ADT",
		Segments:        fields,
		Patterns:        map[string]string{},
		ConfigurationID: "cfg-a",
		CreatedAt:       time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
	}
}

func baseConfig() *vendorcfg.VendorConfiguration {
	return configWith(map[string]map[int]vendorcfg.FieldConfigValue{
		"PID": {
			3: vendorcfg.ScalarValue(patterns.TagSevenDigitID),
			5: vendorcfg.ScalarValue(patterns.TagNamePattern),
		},
		"MSH": {
			7: vendorcfg.ScalarValue(patterns.TagTimestamp),
		},
	})
}

func TestCompareIdenticalConfigurations(t *testing.T) {
	a := baseConfig()

	result := compare.Compare(a, a.Clone())

	assert.Equal(t, 1.0, result.SimilarityScore)
	assert.Empty(t, result.Differences)
}

func TestCompareSingleModifiedField(t *testing.T) {
	a := baseConfig()
	b := baseConfig()
	b.Segments["PID"][3] = vendorcfg.ScalarValue(patterns.TagTenDigitID)

	result := compare.Compare(a, b)

	require.Len(t, result.Differences, 1)
	diff := result.Differences[0]
	assert.Equal(t, compare.DiffModified, diff.Type)
	assert.Equal(t, "PID.3", diff.FieldPath)
	assert.Equal(t, patterns.TagSevenDigitID, diff.OldValue)
	assert.Equal(t, patterns.TagTenDigitID, diff.NewValue)
	assert.InDelta(t, 2.0/3.0, result.SimilarityScore, 1e-9)
}

func TestCompareAddedAndRemovedFields(t *testing.T) {
	a := baseConfig()
	b := baseConfig()
	delete(b.Segments["MSH"], 7)
	b.Segments["PID"][18] = vendorcfg.ScalarValue(patterns.TagNumeric)

	result := compare.Compare(a, b)

	require.Len(t, result.Differences, 2)

	var added, removed *compare.Difference
	for i := range result.Differences {
		switch result.Differences[i].Type {
		case compare.DiffAdded:
			added = &result.Differences[i]
		case compare.DiffRemoved:
			removed = &result.Differences[i]
		}
	}
	require.NotNil(t, added)
	require.NotNil(t, removed)
	assert.Equal(t, "PID.18", added.FieldPath)
	assert.Equal(t, "MSH.7", removed.FieldPath)
	assert.InDelta(t, 0.5, result.SimilarityScore, 1e-9)
}

func TestCompareEmptyConfigurations(t *testing.T) {
	a := configWith(map[string]map[int]vendorcfg.FieldConfigValue{})
	b := configWith(map[string]map[int]vendorcfg.FieldConfigValue{})

	result := compare.Compare(a, b)

	assert.Equal(t, 1.0, result.SimilarityScore)
	assert.Empty(t, result.Differences)
}

func TestMergeLastWriterWinsByDefault(t *testing.T) {
	existing := baseConfig()
	incoming := baseConfig()
	incoming.Segments["PID"][3] = vendorcfg.ScalarValue(patterns.TagTenDigitID)

	merged := compare.NewMerger(nil).Merge(existing, incoming)

	value, ok := merged.ValueAt("PID.3")
	require.True(t, ok)
	assert.Equal(t, patterns.TagTenDigitID, value.Scalar())
}

func TestMergePreferExisting(t *testing.T) {
	existing := baseConfig()
	incoming := baseConfig()
	incoming.Segments["PID"][3] = vendorcfg.ScalarValue(patterns.TagTenDigitID)

	merged := compare.NewMerger(compare.PreferExisting{}).Merge(existing, incoming)

	value, ok := merged.ValueAt("PID.3")
	require.True(t, ok)
	assert.Equal(t, patterns.TagSevenDigitID, value.Scalar())
}

func TestMergeIsOrderSensitive(t *testing.T) {
	a := baseConfig()
	b := baseConfig()
	b.Segments["PID"][3] = vendorcfg.ScalarValue(patterns.TagTenDigitID)
	merger := compare.NewMerger(nil)

	ab, _ := merger.Merge(a, b).ValueAt("PID.3")
	ba, _ := merger.Merge(b, a).ValueAt("PID.3")

	assert.False(t, ab.Equal(ba), "last-writer-wins depends on argument order")
}

func TestMergeUnionsDisjointFields(t *testing.T) {
	existing := baseConfig()
	incoming := configWith(map[string]map[int]vendorcfg.FieldConfigValue{
		"PV1": {2: vendorcfg.ScalarValue(patterns.TagUppercase)},
	})

	merged := compare.NewMerger(nil).Merge(existing, incoming)

	_, hasOld := merged.ValueAt("PID.3")
	_, hasNew := merged.ValueAt("PV1.2")
	assert.True(t, hasOld)
	assert.True(t, hasNew)
}

func TestMergeRulesReplaceByPathAndKind(t *testing.T) {
	existing := baseConfig()
	existing.ValidationRules = []vendorcfg.ValidationRule{
		{FieldPath: "PID.3", Kind: vendorcfg.RuleExactLength, Length: 7, Confidence: 0.8},
		{FieldPath: "MSH.7", Kind: vendorcfg.RuleExactLength, Length: 14, Confidence: 0.9},
	}
	incoming := baseConfig()
	incoming.ValidationRules = []vendorcfg.ValidationRule{
		{FieldPath: "PID.3", Kind: vendorcfg.RuleExactLength, Length: 10, Confidence: 0.85},
		{FieldPath: "PID.3", Kind: vendorcfg.RuleNumericLength, Length: 10, Confidence: 0.85},
	}

	merged := compare.NewMerger(nil).Merge(existing, incoming)

	require.Len(t, merged.ValidationRules, 3)
	for _, rule := range merged.ValidationRules {
		if rule.FieldPath == "PID.3" && rule.Kind == vendorcfg.RuleExactLength {
			assert.Equal(t, 10, rule.Length, "incoming rule replaces the matching existing one")
		}
	}
}

func TestMergeMetadata(t *testing.T) {
	existing := baseConfig()
	existing.InferredFrom = vendorcfg.InferenceMetadata{
		SampleCount: 10,
		DateRange:   "2024-01-01T00:00:00Z - 2024-01-10T00:00:00Z",
		Confidence:  0.9,
	}
	incoming := baseConfig()
	incoming.ConfigurationID = "cfg-b"
	incoming.InferredFrom = vendorcfg.InferenceMetadata{
		SampleCount: 5,
		DateRange:   "2024-02-01T00:00:00Z - 2024-02-05T00:00:00Z",
		Confidence:  0.6,
	}

	merged := compare.NewMerger(nil).Merge(existing, incoming)

	assert.Equal(t, 15, merged.InferredFrom.SampleCount)
	assert.Equal(t, "2024-01-01T00:00:00Z - 2024-02-05T00:00:00Z", merged.InferredFrom.DateRange)
	assert.Equal(t, 0.9, merged.InferredFrom.Confidence, "confidence is carried from existing")
	assert.Equal(t, "cfg-a", merged.ConfigurationID, "merged configuration keeps the existing identity")
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	existing := baseConfig()
	incoming := baseConfig()
	incoming.Segments["PID"][3] = vendorcfg.ScalarValue(patterns.TagTenDigitID)

	_ = compare.NewMerger(nil).Merge(existing, incoming)

	value, _ := existing.ValueAt("PID.3")
	assert.Equal(t, patterns.TagSevenDigitID, value.Scalar())
}
