/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: builder.go
Description: Configuration builder for the Kestrel inference engine. Turns an
accumulated pattern tree whose confidence clears a threshold into a persistable
vendor configuration: dominant-tag field configs, collapsed composite fields,
message-level patterns chosen by plurality vote, and generated validation rules.
The builder never fails; entries lacking sufficient evidence are simply omitted.
*/

package vendorcfg

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kleascm/kestrel-hl7/pkg/confidence"
	"github.com/kleascm/kestrel-hl7/pkg/patterns"
)

// Evidence gates. Fields below these bounds are omitted rather than guessed.
const (
	minFieldOccurrences = 3
	minRuleOccurrences  = 5

	// componentPresenceRatio is the share of parent occurrences a component
	// must reach to earn its own config entry.
	componentPresenceRatio = 0.5

	// maxAllowedValues bounds value enumeration: fields with more distinct
	// values are treated as free-form.
	maxAllowedValues = 10
)

// fieldConvention marks a (segment, position) known to carry a particular
// kind of content, used for message-level pattern voting.
type fieldConvention struct {
	segmentType string
	position    int
}

var (
	timestampConventions  = []fieldConvention{{"MSH", 7}, {"EVN", 2}}
	identifierConventions = []fieldConvention{{"PID", 3}, {"PID", 18}, {"PV1", 19}}
)

// Builder turns accumulated patterns into vendor configurations.
type Builder struct {
	threshold float64
}

// NewBuilder creates a builder with the given confidence threshold.
func NewBuilder(threshold float64) *Builder {
	return &Builder{threshold: threshold}
}

// Build emits a configuration from an accumulated pattern tree. Segments and
// fields whose confidence or occurrence count misses the gates are omitted.
func (b *Builder) Build(acc *patterns.Accumulator, vendor, messageType string) *VendorConfiguration {
	cfg := &VendorConfiguration{
		Vendor:          vendor,
		MessageType:     messageType,
		Segments:        make(map[string]map[int]FieldConfigValue),
		Patterns:        make(map[string]string),
		ConfigurationID: uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
	}

	for segType, sp := range acc.Segments() {
		if confidence.SegmentScore(sp) < b.threshold {
			continue
		}

		fields := make(map[int]FieldConfigValue)
		for pos, fp := range sp.Fields {
			if fp.Occurrences() < minFieldOccurrences {
				continue
			}
			if confidence.FieldPatternScore(fp) < b.threshold {
				continue
			}
			fields[pos] = b.fieldValue(fp)
		}
		if len(fields) > 0 {
			cfg.Segments[segType] = fields
		}
	}

	b.buildMessagePatterns(acc, cfg)
	cfg.ValidationRules = b.buildRules(acc)
	cfg.InferredFrom = b.buildMetadata(acc)

	return cfg
}

// fieldValue computes the config value for one field pattern: a component
// map for composite fields, otherwise the dominant tag.
func (b *Builder) fieldValue(fp *patterns.FieldPattern) FieldConfigValue {
	if len(fp.Components) == 0 {
		return ScalarValue(dominantTag(fp.TagCounts()))
	}

	parentOccurrences := float64(fp.Occurrences())
	components := make(map[int]FieldConfigValue)
	for pos, cp := range fp.Components {
		if float64(cp.Occurrences()) < componentPresenceRatio*parentOccurrences {
			continue
		}
		components[pos] = ScalarValue(dominantTag(cp.TagCounts()))
	}

	// No component carried enough evidence; collapse the whole field.
	if len(components) == 0 {
		return ScalarValue(TagCompositePopulated)
	}
	return CompositeValue(components)
}

// dominantTag picks the tag with the highest cumulative occurrence. Ties are
// broken in favor of non-length tags, then more specific shapes, then
// lexicographically for determinism.
func dominantTag(tagCounts map[string]int) string {
	best, bestCount := "", 0
	for tag, n := range tagCounts {
		switch {
		case n > bestCount:
			best, bestCount = tag, n
		case n == bestCount && betterTieBreak(tag, best):
			best = tag
		}
	}
	if best == "" {
		return TagPopulated
	}
	return best
}

func betterTieBreak(candidate, current string) bool {
	candLen := patterns.IsLengthTag(candidate)
	currLen := patterns.IsLengthTag(current)
	if candLen != currLen {
		return currLen
	}
	candSpec := tagSpecificity(candidate)
	currSpec := tagSpecificity(current)
	if candSpec != currSpec {
		return candSpec > currSpec
	}
	return candidate < current
}

// tagSpecificity ranks tags so fixed-shape identifiers win ties over broad
// character-class tags. A value tagged both seven_digit_id and alphanumeric
// is far better described by the former.
func tagSpecificity(tag string) int {
	switch tag {
	case patterns.TagSevenDigitID, patterns.TagTenDigitID,
		patterns.TagTimestamp, patterns.TagDateYYYYMMDD, patterns.TagISODate:
		return 4
	case patterns.TagAlphaPrefixID, patterns.TagNamePattern, patterns.TagDecimal:
		return 3
	case patterns.TagNumeric, patterns.TagUppercase, patterns.TagLowercase:
		return 2
	case patterns.TagAlphanumeric:
		return 1
	default:
		return 0
	}
}

// buildMessagePatterns derives dominant timestamp and identifier shapes by a
// plurality vote over the tags observed at conventional field positions.
func (b *Builder) buildMessagePatterns(acc *patterns.Accumulator, cfg *VendorConfiguration) {
	if tag := pluralityVote(acc, timestampConventions); tag != "" {
		cfg.Patterns[PatternTimestampFormat] = tag
	}
	if tag := pluralityVote(acc, identifierConventions); tag != "" {
		cfg.Patterns[PatternIdentifierFormat] = tag
	}
}

// pluralityVote sums tag counts across the conventional positions and picks
// the winner. Length tags never win the vote outright when a shape tag ties.
func pluralityVote(acc *patterns.Accumulator, conventions []fieldConvention) string {
	votes := make(map[string]int)
	for _, conv := range conventions {
		sp, ok := acc.Segments()[conv.segmentType]
		if !ok {
			continue
		}
		fp, ok := sp.Fields[conv.position]
		if !ok {
			continue
		}
		for tag, n := range fp.TagCounts() {
			votes[tag] += n
		}
	}
	if len(votes) == 0 {
		return ""
	}
	return dominantTag(votes)
}

// buildRules generates validation rules for fields with strong evidence:
// exact length when every observed value has identical length, numeric
// length for digit-only fixed-width fields, and allowed-values enumerations
// for low-cardinality coded fields.
func (b *Builder) buildRules(acc *patterns.Accumulator) []ValidationRule {
	var rules []ValidationRule

	for _, segType := range sortedSegmentTypes(acc) {
		sp := acc.Segments()[segType]
		positions := make([]int, 0, len(sp.Fields))
		for pos := range sp.Fields {
			positions = append(positions, pos)
		}
		sort.Ints(positions)

		for _, pos := range positions {
			fp := sp.Fields[pos]
			if fp.Occurrences() < minRuleOccurrences {
				continue
			}
			score := confidence.FieldPatternScore(fp)
			if score < b.threshold {
				continue
			}
			path := FieldPath(segType, pos)

			if length, uniform := fp.UniformLength(); uniform {
				rules = append(rules, ValidationRule{
					FieldPath:  path,
					Kind:       RuleExactLength,
					Length:     length,
					Message:    fmt.Sprintf("%s is always %d characters", path, length),
					Confidence: score,
				})
			}

			if length, ok := numericLength(fp.TagCounts()); ok {
				rules = append(rules, ValidationRule{
					FieldPath:  path,
					Kind:       RuleNumericLength,
					Length:     length,
					Message:    fmt.Sprintf("%s is always numeric with %d digits", path, length),
					Confidence: score,
				})
			}

			if values, ok := fp.DistinctValues(); ok && len(values) <= maxAllowedValues && len(values) < fp.Occurrences() {
				rules = append(rules, ValidationRule{
					FieldPath:     path,
					Kind:          RuleAllowedValues,
					AllowedValues: values,
					Message:       fmt.Sprintf("%s draws from %d observed values", path, len(values)),
					Confidence:    score,
				})
			}
		}
	}

	return rules
}

// numericLength reports the fixed width of a digits-only field: the field
// must carry the numeric tag and exactly one length tag.
func numericLength(tagCounts map[string]int) (int, bool) {
	if _, numeric := tagCounts[patterns.TagNumeric]; !numeric {
		return 0, false
	}
	length, lengthTags := 0, 0
	for tag := range tagCounts {
		if patterns.IsLengthTag(tag) {
			lengthTags++
			fmt.Sscanf(tag, patterns.LengthTagPrefix+"%d", &length)
		}
	}
	if lengthTags != 1 {
		return 0, false
	}
	return length, true
}

// buildMetadata records the evidence behind the configuration.
func (b *Builder) buildMetadata(acc *patterns.Accumulator) InferenceMetadata {
	start, end := acc.DateRange()
	annotations := map[string]string{
		"segmentPatterns": fmt.Sprintf("%d", acc.Summary().SegmentPatterns),
		"fieldPatterns":   fmt.Sprintf("%d", acc.Summary().FieldPatterns),
	}
	if sig, n := acc.DominantSignature(); sig != "" {
		annotations["dominantSignature"] = fmt.Sprintf("%s (%d messages)", sig, n)
	}
	return InferenceMetadata{
		SampleCount: acc.MessageCount(),
		DateRange:   start.UTC().Format(time.RFC3339) + " - " + end.UTC().Format(time.RFC3339),
		Confidence:  confidence.OverallScore(acc),
		Annotations: annotations,
	}
}

func sortedSegmentTypes(acc *patterns.Accumulator) []string {
	types := make([]string, 0, len(acc.Segments()))
	for segType := range acc.Segments() {
		types = append(types, segType)
	}
	sort.Strings(types)
	return types
}
