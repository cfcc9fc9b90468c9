/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: calculator.go
Description: Confidence calculator for the Kestrel inference engine. Derives [0,1]
scores for fields, segments, and whole configurations from occurrence counts and
tag-set diversity. All functions are deterministic and side-effect free.
*/

package confidence

import (
	"github.com/kleascm/kestrel-hl7/pkg/patterns"
)

// Scoring constants. Sparse evidence gets a flat penalty score; consistent
// tag sets score higher than diverse ones.
const (
	sparseFieldScore    = 0.4
	lowFieldScore       = 0.6
	consistentTagScore  = 0.9
	diverseTagScore     = 0.7
	fullOccurrenceCount = 10.0

	sparseSegmentScore = 0.5
	thinSegmentScore   = 0.6

	minFieldOccurrences   = 2
	lowFieldOccurrences   = 5
	minSegmentOccurrences = 3
	consistentTagLimit    = 3
)

// FieldScore derives a confidence for a field or component pattern from its
// occurrence count and tag diversity.
func FieldScore(occurrences, distinctTags int) float64 {
	if occurrences < minFieldOccurrences {
		return sparseFieldScore
	}
	if occurrences < lowFieldOccurrences {
		return lowFieldScore
	}

	consistency := consistentTagScore
	if distinctTags > consistentTagLimit {
		consistency = diverseTagScore
	}

	occurrence := float64(occurrences) / fullOccurrenceCount
	if occurrence > 1.0 {
		occurrence = 1.0
	}

	return (consistency + occurrence) / 2.0
}

// FieldPatternScore scores an accumulated field pattern.
func FieldPatternScore(fp *patterns.FieldPattern) float64 {
	return FieldScore(fp.Occurrences(), len(fp.TagCounts()))
}

// ComponentScore scores an accumulated component pattern.
func ComponentScore(cp *patterns.ComponentPattern) float64 {
	return FieldScore(cp.Occurrences(), len(cp.TagCounts()))
}

// SegmentScore derives an aggregate confidence for a segment pattern. Thin
// evidence (few occurrences or few field patterns) gets flat scores;
// otherwise the mean of the contained field confidences.
func SegmentScore(sp *patterns.SegmentPattern) float64 {
	if sp.Occurrences < minSegmentOccurrences {
		return sparseSegmentScore
	}
	if len(sp.Fields) < 2 {
		return thinSegmentScore
	}

	sum := 0.0
	for _, fp := range sp.Fields {
		sum += FieldPatternScore(fp)
	}
	return sum / float64(len(sp.Fields))
}

// OverallScore derives a whole-configuration confidence: the mean of every
// field confidence seen during the run. Returns 0 for an empty run.
func OverallScore(acc *patterns.Accumulator) float64 {
	sum, count := 0.0, 0
	for _, sp := range acc.Segments() {
		for _, fp := range sp.Fields {
			sum += FieldPatternScore(fp)
			count++
		}
	}
	if count == 0 {
		return 0.0
	}
	return sum / float64(count)
}
