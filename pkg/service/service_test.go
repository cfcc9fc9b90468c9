/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: service_test.go
Description: Tests for the public service surface. Covers inference from sample
batches, empty-batch rejection, sharded accumulation, validation against stored
configurations, comparison, similarity search, and sample folding under both
conflict policies.
*/

package service_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/kestrel-hl7/pkg/compare"
	"github.com/kleascm/kestrel-hl7/pkg/message"
	"github.com/kleascm/kestrel-hl7/pkg/patterns"
	"github.com/kleascm/kestrel-hl7/pkg/service"
	"github.com/kleascm/kestrel-hl7/pkg/storage"
)

func newTestService(t *testing.T) *service.Service {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := storage.NewFileStore(t.TempDir(), logger)
	require.NoError(t, err)
	return service.NewService(store, logger, message.DefaultDelimiters())
}

func adtMessage(patientID string) string {
	return strings.Join([]string{
		"MSH|^~\\&|ACME|FAC1|DEST|DFAC|20240115093000||ADT^A01|MSG0001|P|2.5",
		"PID|1||" + patientID + "||SMITH^JOHN|||M",
	}, "\r")
}

func sampleBatch(n, width int) []string {
	messages := make([]string, n)
	for i := range messages {
		messages[i] = adtMessage(fmt.Sprintf("%0*d", width, 1000000+i))
	}
	return messages
}

func TestInferFromSamplesRejectsEmptyBatch(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.InferFromSamples(context.Background(), nil, "ACME", "ADT", 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no messages")
	assert.Contains(t, err.Error(), "ACME")
}

func TestInferFromSamplesPersistsConfiguration(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cfg, err := svc.InferFromSamples(ctx, sampleBatch(10, 7), "ACME", "ADT", 0)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.ConfigurationID)

	value, ok := cfg.ValueAt("PID.3")
	require.True(t, ok)
	assert.Equal(t, patterns.TagSevenDigitID, value.Scalar())
	assert.Equal(t, 10, cfg.InferredFrom.SampleCount)

	loaded, err := svc.LoadConfiguration(ctx, cfg.ConfigurationID)
	require.NoError(t, err)
	assert.Equal(t, cfg.Segments, loaded.Segments)
}

func TestValidateAgainstInferredConfiguration(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	batch := sampleBatch(10, 7)

	cfg, err := svc.InferFromSamples(ctx, batch, "ACME", "ADT", 0)
	require.NoError(t, err)

	score, devs, err := svc.ValidateAgainstConfig(ctx, cfg.ConfigurationID, batch[0])
	require.NoError(t, err)
	assert.Equal(t, 1.0, score, "a sample message conforms to the configuration inferred from it")
	assert.Empty(t, devs)

	// Same structure, wrong identifier shape.
	score, devs, err = svc.ValidateAgainstConfig(ctx, cfg.ConfigurationID, adtMessage("12345"))
	require.NoError(t, err)
	assert.Less(t, score, 1.0)
	assert.NotEmpty(t, devs)
}

func TestValidateAgainstUnknownConfiguration(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.ValidateAgainstConfig(context.Background(), "no-such-id", adtMessage("1234567"))

	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, err.Error(), "no-such-id")
}

func TestCompareConfigurations(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.InferFromSamples(ctx, sampleBatch(10, 7), "ACME", "ADT", 0)
	require.NoError(t, err)
	b, err := svc.InferFromSamples(ctx, sampleBatch(10, 10), "Globex", "ADT", 0)
	require.NoError(t, err)

	result, err := svc.CompareConfigurations(ctx, a.ConfigurationID, b.ConfigurationID)
	require.NoError(t, err)

	assert.Less(t, result.SimilarityScore, 1.0)
	var modified *compare.Difference
	for i := range result.Differences {
		if result.Differences[i].FieldPath == "PID.3" {
			modified = &result.Differences[i]
		}
	}
	require.NotNil(t, modified)
	assert.Equal(t, compare.DiffModified, modified.Type)
}

func TestFindSimilarConfigurations(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	target, err := svc.InferFromSamples(ctx, sampleBatch(10, 7), "ACME", "ADT", 0)
	require.NoError(t, err)
	twin, err := svc.InferFromSamples(ctx, sampleBatch(10, 7), "AcmeClone", "ADT", 0)
	require.NoError(t, err)
	_, err = svc.InferFromSamples(ctx, sampleBatch(10, 10), "Globex", "ADT", 0)
	require.NoError(t, err)

	similar, err := svc.FindSimilarConfigurations(ctx, target, 0.99)
	require.NoError(t, err)

	require.Len(t, similar, 1, "only the structurally identical configuration clears 0.99")
	assert.Equal(t, twin.ConfigurationID, similar[0].Configuration.ConfigurationID)
	assert.Equal(t, 1.0, similar[0].Similarity)

	for _, match := range similar {
		assert.NotEqual(t, target.ConfigurationID, match.Configuration.ConfigurationID)
	}
}

func TestUpdateConfigurationFromSamples(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cfg, err := svc.InferFromSamples(ctx, sampleBatch(10, 7), "ACME", "ADT", 0)
	require.NoError(t, err)

	merged, err := svc.UpdateConfigurationFromSamples(ctx, cfg.ConfigurationID, sampleBatch(10, 10))
	require.NoError(t, err)

	value, ok := merged.ValueAt("PID.3")
	require.True(t, ok)
	assert.Equal(t, patterns.TagTenDigitID, value.Scalar(), "fresh samples win under last-writer-wins")
	assert.Equal(t, 20, merged.InferredFrom.SampleCount)
	assert.Equal(t, cfg.ConfigurationID, merged.ConfigurationID)

	loaded, err := svc.LoadConfiguration(ctx, cfg.ConfigurationID)
	require.NoError(t, err)
	assert.Equal(t, merged.Segments, loaded.Segments)
}

func TestUpdateWithPreferExistingResolver(t *testing.T) {
	svc := newTestService(t)
	svc.SetConflictResolver(compare.PreferExisting{})
	ctx := context.Background()

	cfg, err := svc.InferFromSamples(ctx, sampleBatch(10, 7), "ACME", "ADT", 0)
	require.NoError(t, err)

	merged, err := svc.UpdateConfigurationFromSamples(ctx, cfg.ConfigurationID, sampleBatch(10, 10))
	require.NoError(t, err)

	value, ok := merged.ValueAt("PID.3")
	require.True(t, ok)
	assert.Equal(t, patterns.TagSevenDigitID, value.Scalar(), "curated values survive under prefer-existing")
}

func TestUpdateRejectsEmptyBatch(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.UpdateConfigurationFromSamples(context.Background(), "some-id", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no messages")
}

func TestAnalyzeSamplesShardedMatchesBatch(t *testing.T) {
	svc := newTestService(t)
	svc.SetWorkers(4)

	// Large enough to trigger sharded accumulation.
	summary, err := svc.AnalyzeSamples(context.Background(), sampleBatch(200, 7))
	require.NoError(t, err)

	assert.Equal(t, 200, summary.MessageCount)
	assert.Equal(t, 200, summary.VendorSignatures["ACME"])
	assert.Equal(t, 2, summary.SegmentPatterns)
}

func TestInferShardedAndSequentialAgree(t *testing.T) {
	ctx := context.Background()
	batch := sampleBatch(200, 7)

	sharded := newTestService(t)
	sharded.SetWorkers(4)
	sequential := newTestService(t)
	sequential.SetWorkers(1)

	a, err := sharded.InferFromSamples(ctx, batch, "ACME", "ADT", 0)
	require.NoError(t, err)
	b, err := sequential.InferFromSamples(ctx, batch, "ACME", "ADT", 0)
	require.NoError(t, err)

	assert.Equal(t, a.Segments, b.Segments)
	assert.Equal(t, a.Patterns, b.Patterns)
	assert.Equal(t, a.InferredFrom.SampleCount, b.InferredFrom.SampleCount)
}

func TestInferCancelledContext(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.InferFromSamples(ctx, sampleBatch(10, 7), "ACME", "ADT", 0)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeleteConfiguration(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cfg, err := svc.InferFromSamples(ctx, sampleBatch(10, 7), "ACME", "ADT", 0)
	require.NoError(t, err)

	deleted, err := svc.DeleteConfiguration(ctx, cfg.ConfigurationID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = svc.LoadConfiguration(ctx, cfg.ConfigurationID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	configs, err := svc.ListConfigurations(ctx, "ACME", "")
	require.NoError(t, err)
	assert.Empty(t, configs)
}
