/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: service.go
Description: Public operation surface for the Kestrel inference engine. Wires the
pattern accumulator, confidence calculator, configuration builder, validator,
comparator, merger, and store into the operations callers use: inference from sample
batches, validation, comparison, similarity search, sample folding, and persistence.
All operations are context-threaded and cancellable.
*/

package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kleascm/kestrel-hl7/pkg/compare"
	"github.com/kleascm/kestrel-hl7/pkg/interfaces"
	"github.com/kleascm/kestrel-hl7/pkg/message"
	"github.com/kleascm/kestrel-hl7/pkg/patterns"
	"github.com/kleascm/kestrel-hl7/pkg/validation"
	"github.com/kleascm/kestrel-hl7/pkg/vendorcfg"
)

// Default thresholds for the public operations.
const (
	DefaultConfidenceThreshold = 0.7
	DefaultSimilarityThreshold = 0.8
)

// shardingMinimum is the batch size below which sharded analysis is not
// worth the recombination cost.
const shardingMinimum = 64

// Store is the persistence contract the service depends on.
type Store interface {
	Save(ctx context.Context, cfg *vendorcfg.VendorConfiguration) error
	Load(ctx context.Context, id string) (*vendorcfg.VendorConfiguration, error)
	List(ctx context.Context, vendor, messageType string) ([]*vendorcfg.VendorConfiguration, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// SimilarConfiguration pairs a stored configuration with its similarity to
// a search target.
type SimilarConfiguration struct {
	Configuration *vendorcfg.VendorConfiguration `json:"configuration"`
	Similarity    float64                        `json:"similarity"`
}

// Service exposes the vendor configuration inference operations.
type Service struct {
	store   Store
	logger  *logrus.Logger
	delims  message.Delimiters
	merger  *compare.Merger
	workers int
}

// NewService creates a service over a store. A nil logger falls back to the
// logrus standard logger.
func NewService(store Store, logger *logrus.Logger, delims message.Delimiters) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		store:   store,
		logger:  logger,
		delims:  delims,
		merger:  compare.NewMerger(nil),
		workers: runtime.NumCPU(),
	}
}

// SetConflictResolver swaps the merge conflict policy (default last-writer-wins).
func (s *Service) SetConflictResolver(resolver compare.ConflictResolver) {
	s.merger = compare.NewMerger(resolver)
}

// SetWorkers bounds the goroutines used for sharded analysis and parallel
// similarity search.
func (s *Service) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// InferFromSamples analyzes a batch of raw messages and persists the inferred
// vendor configuration. A threshold <= 0 uses the default. Fails on an empty
// sample set; partial or noisy samples within the batch are tolerated.
func (s *Service) InferFromSamples(ctx context.Context, messages []string, vendor, messageType string, threshold float64) (*vendorcfg.VendorConfiguration, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages provided for inference (vendor=%s, type=%s)", vendor, messageType)
	}
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	acc, err := s.accumulate(ctx, messages)
	if err != nil {
		return nil, err
	}

	cfg := vendorcfg.NewBuilder(threshold).Build(acc, vendor, messageType)
	if err := s.store.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to persist inferred configuration: %w", err)
	}

	summary := acc.Summary()
	s.logger.WithFields(logrus.Fields{
		"configuration_id": cfg.ConfigurationID,
		"vendor":           vendor,
		"message_type":     messageType,
		"messages":         summary.MessageCount,
		"segment_patterns": summary.SegmentPatterns,
		"field_patterns":   summary.FieldPatterns,
		"confidence":       cfg.InferredFrom.Confidence,
	}).Info("Vendor configuration inferred")

	return cfg, nil
}

// AnalyzeSamples runs accumulation without building or persisting anything,
// returning the analysis summary. Useful for previewing a batch.
func (s *Service) AnalyzeSamples(ctx context.Context, messages []string) (*interfaces.AnalysisSummary, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages provided for analysis")
	}
	acc, err := s.accumulate(ctx, messages)
	if err != nil {
		return nil, err
	}
	return acc.Summary(), nil
}

// accumulate builds the pattern tree for a batch. Large batches are sharded
// across workers, each with a private accumulator, then recombined; analysis
// per message is independent so sharding cannot change the result.
func (s *Service) accumulate(ctx context.Context, messages []string) (*patterns.Accumulator, error) {
	if len(messages) < shardingMinimum || s.workers < 2 {
		acc := patterns.NewAccumulator(s.delims)
		if _, err := acc.Analyze(ctx, messages); err != nil {
			return nil, err
		}
		return acc, nil
	}

	shards := s.workers
	if shards > len(messages) {
		shards = len(messages)
	}
	accumulators := make([]*patterns.Accumulator, shards)

	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(messages) + shards - 1) / shards
	for i := 0; i < shards; i++ {
		lo := i * chunk
		hi := lo + chunk
		if hi > len(messages) {
			hi = len(messages)
		}
		if lo >= hi {
			accumulators[i] = patterns.NewAccumulator(s.delims)
			continue
		}
		i, lo, hi := i, lo, hi
		g.Go(func() error {
			acc := patterns.NewAccumulator(s.delims)
			if _, err := acc.Analyze(gctx, messages[lo:hi]); err != nil {
				return err
			}
			accumulators[i] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := accumulators[0]
	for _, acc := range accumulators[1:] {
		if acc != nil {
			merged.Merge(acc)
		}
	}
	return merged, nil
}

// ValidateAgainstConfig scores a message's conformance against a stored
// configuration and returns the itemized deviations.
func (s *Service) ValidateAgainstConfig(ctx context.Context, configID, rawMessage string) (float64, []interfaces.FormatDeviation, error) {
	cfg, err := s.store.Load(ctx, configID)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load configuration %s: %w", configID, err)
	}

	score, deviations := validation.NewValidator(s.delims).Validate(cfg, rawMessage)

	s.logger.WithFields(logrus.Fields{
		"configuration_id": configID,
		"conformance":      score,
		"deviations":       len(deviations),
	}).Info("Message validated against configuration")

	return score, deviations, nil
}

// CompareConfigurations computes the similarity and itemized differences
// between two stored configurations.
func (s *Service) CompareConfigurations(ctx context.Context, idA, idB string) (*compare.ConfigurationComparison, error) {
	a, err := s.store.Load(ctx, idA)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration %s: %w", idA, err)
	}
	b, err := s.store.Load(ctx, idB)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration %s: %w", idB, err)
	}
	return compare.Compare(a, b), nil
}

// FindSimilarConfigurations compares every stored configuration against the
// target in parallel and returns those clearing the similarity threshold,
// most similar first. A threshold <= 0 uses the default.
func (s *Service) FindSimilarConfigurations(ctx context.Context, target *vendorcfg.VendorConfiguration, similarityThreshold float64) ([]SimilarConfiguration, error) {
	if target == nil {
		return nil, fmt.Errorf("no target configuration provided")
	}
	if similarityThreshold <= 0 {
		similarityThreshold = DefaultSimilarityThreshold
	}

	candidates, err := s.store.List(ctx, "", "")
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		similar []SimilarConfiguration
	)
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, candidate := range candidates {
		if candidate.ConfigurationID == target.ConfigurationID {
			continue
		}
		candidate := candidate
		g.Go(func() error {
			comparison := compare.Compare(target, candidate)
			if comparison.SimilarityScore < similarityThreshold {
				return nil
			}
			mu.Lock()
			similar = append(similar, SimilarConfiguration{
				Configuration: candidate,
				Similarity:    comparison.SimilarityScore,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(similar, func(i, j int) bool {
		if similar[i].Similarity != similar[j].Similarity {
			return similar[i].Similarity > similar[j].Similarity
		}
		return similar[i].Configuration.ConfigurationID < similar[j].Configuration.ConfigurationID
	})

	return similar, nil
}

// UpdateConfigurationFromSamples folds a batch of new samples into a stored
// configuration: a fresh configuration is inferred from the samples and
// merged over the existing one under the active conflict policy, then saved.
func (s *Service) UpdateConfigurationFromSamples(ctx context.Context, configID string, newSamples []string) (*vendorcfg.VendorConfiguration, error) {
	if len(newSamples) == 0 {
		return nil, fmt.Errorf("no messages provided for configuration update %s", configID)
	}

	existing, err := s.store.Load(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration %s: %w", configID, err)
	}

	acc, err := s.accumulate(ctx, newSamples)
	if err != nil {
		return nil, err
	}
	incoming := vendorcfg.NewBuilder(DefaultConfidenceThreshold).Build(acc, existing.Vendor, existing.MessageType)

	merged := s.merger.Merge(existing, incoming)
	if err := s.store.Save(ctx, merged); err != nil {
		return nil, fmt.Errorf("failed to persist updated configuration: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"configuration_id": merged.ConfigurationID,
		"new_samples":      len(newSamples),
		"sample_count":     merged.InferredFrom.SampleCount,
	}).Info("Configuration updated from new samples")

	return merged, nil
}

// SaveConfiguration persists a configuration directly.
func (s *Service) SaveConfiguration(ctx context.Context, cfg *vendorcfg.VendorConfiguration) error {
	return s.store.Save(ctx, cfg)
}

// LoadConfiguration fetches a stored configuration by id.
func (s *Service) LoadConfiguration(ctx context.Context, configID string) (*vendorcfg.VendorConfiguration, error) {
	return s.store.Load(ctx, configID)
}

// ListConfigurations lists stored configurations, optionally filtered by
// vendor and message type (empty filters match everything).
func (s *Service) ListConfigurations(ctx context.Context, vendor, messageType string) ([]*vendorcfg.VendorConfiguration, error) {
	return s.store.List(ctx, vendor, messageType)
}

// DeleteConfiguration removes a stored configuration, reporting whether
// anything was deleted.
func (s *Service) DeleteConfiguration(ctx context.Context, configID string) (bool, error) {
	return s.store.Delete(ctx, configID)
}
