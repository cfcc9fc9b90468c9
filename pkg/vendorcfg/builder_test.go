/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: builder_test.go
Description: Tests for the configuration builder. Covers evidence gates, dominant-tag
selection with tie-breaking, composite field handling and collapse, message-level
pattern voting, validation rule generation, and inference metadata.
*/

package vendorcfg_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/kestrel-hl7/pkg/message"
	"github.com/kleascm/kestrel-hl7/pkg/patterns"
	"github.com/kleascm/kestrel-hl7/pkg/vendorcfg"
)

func adtSample(patientID, sex string) string {
	return strings.Join([]string{
		"MSH|^~\\&|ACME|FAC1|DEST|DFAC|20240115093000||ADT^A01|MSG0001|P|2.5",
		"PID|1||" + patientID + "||SMITH^JOHN|||" + sex,
	}, "\r")
}

func accumulate(t *testing.T, messages []string) *patterns.Accumulator {
	t.Helper()
	acc := patterns.NewAccumulator(message.DefaultDelimiters())
	_, err := acc.Analyze(context.Background(), messages)
	require.NoError(t, err)
	return acc
}

func tenSamples() []string {
	messages := make([]string, 10)
	for i := range messages {
		messages[i] = adtSample(fmt.Sprintf("%07d", 1000000+i), "M")
	}
	return messages
}

func TestBuildTagsSevenDigitIdentifier(t *testing.T) {
	acc := accumulate(t, tenSamples())
	cfg := vendorcfg.NewBuilder(0.7).Build(acc, "ACME", "ADT")

	value, ok := cfg.ValueAt("PID.3")
	require.True(t, ok, "PID.3 must clear the evidence gates")
	assert.Equal(t, patterns.TagSevenDigitID, value.Scalar())

	assert.Equal(t, 10, cfg.InferredFrom.SampleCount)
	assert.GreaterOrEqual(t, cfg.InferredFrom.Confidence, 0.6)
	assert.Equal(t, 10, acc.Signatures()["ACME"])
	assert.NotEmpty(t, cfg.ConfigurationID)
}

func TestBuildIncludesConsistentFieldAtClearedThreshold(t *testing.T) {
	messages := make([]string, 5)
	for i := range messages {
		messages[i] = adtSample(fmt.Sprintf("%07d", 2000000+i), "F")
	}
	acc := accumulate(t, messages)
	cfg := vendorcfg.NewBuilder(0.55).Build(acc, "ACME", "ADT")

	_, ok := cfg.ValueAt("PID.3")
	assert.True(t, ok, "a consistent field with 5 samples clears a threshold below its score")
}

func TestBuildOmitsSparseFields(t *testing.T) {
	// PID.18 appears only once across the batch.
	messages := tenSamples()
	messages[0] += "\rPV1|1|I"
	acc := accumulate(t, messages)
	cfg := vendorcfg.NewBuilder(0.7).Build(acc, "ACME", "ADT")

	_, ok := cfg.ValueAt("PV1.1")
	assert.False(t, ok, "fields below the occurrence gate must be omitted")
}

func TestBuildCompositeFieldKeepsFrequentComponents(t *testing.T) {
	acc := accumulate(t, tenSamples())
	cfg := vendorcfg.NewBuilder(0.7).Build(acc, "ACME", "ADT")

	value, ok := cfg.ValueAt("PID.5")
	require.True(t, ok)
	require.True(t, value.IsComposite())
	assert.Equal(t, patterns.TagUppercase, value.Components()[1].Scalar())
	assert.Equal(t, patterns.TagUppercase, value.Components()[2].Scalar())
}

func TestBuildMessageLevelPatterns(t *testing.T) {
	acc := accumulate(t, tenSamples())
	cfg := vendorcfg.NewBuilder(0.7).Build(acc, "ACME", "ADT")

	assert.Equal(t, patterns.TagTimestamp, cfg.Patterns[vendorcfg.PatternTimestampFormat])
	assert.Equal(t, patterns.TagSevenDigitID, cfg.Patterns[vendorcfg.PatternIdentifierFormat])
}

func TestBuildGeneratesLengthAndNumericRules(t *testing.T) {
	acc := accumulate(t, tenSamples())
	cfg := vendorcfg.NewBuilder(0.7).Build(acc, "ACME", "ADT")

	var kinds []vendorcfg.RuleKind
	for _, rule := range cfg.ValidationRules {
		if rule.FieldPath == "PID.3" {
			kinds = append(kinds, rule.Kind)
			assert.Equal(t, 7, rule.Length)
		}
	}
	assert.Contains(t, kinds, vendorcfg.RuleExactLength)
	assert.Contains(t, kinds, vendorcfg.RuleNumericLength)
}

func TestBuildGeneratesAllowedValuesRule(t *testing.T) {
	messages := []string{
		adtSample("1000001", "M"), adtSample("1000002", "F"),
		adtSample("1000003", "M"), adtSample("1000004", "U"),
		adtSample("1000005", "F"), adtSample("1000006", "M"),
	}
	acc := accumulate(t, messages)
	cfg := vendorcfg.NewBuilder(0.6).Build(acc, "ACME", "ADT")

	var found *vendorcfg.ValidationRule
	for i, rule := range cfg.ValidationRules {
		if rule.FieldPath == "PID.8" && rule.Kind == vendorcfg.RuleAllowedValues {
			found = &cfg.ValidationRules[i]
		}
	}
	require.NotNil(t, found, "low-cardinality coded field must produce an allowed-values rule")
	assert.Equal(t, []string{"F", "M", "U"}, found.AllowedValues)
}

func TestBuildNeverFailsOnThinEvidence(t *testing.T) {
	acc := accumulate(t, []string{adtSample("1234567", "M")})
	cfg := vendorcfg.NewBuilder(0.9).Build(acc, "ACME", "ADT")

	assert.Empty(t, cfg.Segments, "nothing clears a 0.9 threshold on one sample")
	assert.Empty(t, cfg.ValidationRules)
	assert.Equal(t, 1, cfg.InferredFrom.SampleCount)
}
