/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: validator.go
Description: Configuration validator for the Kestrel inference engine. Scores a
message's conformance against a stored vendor configuration and reports typed,
severity-ranked format deviations: shape mismatches, missing or extra fields,
unknown segments, and allowed-value violations.
*/

package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kleascm/kestrel-hl7/pkg/interfaces"
	"github.com/kleascm/kestrel-hl7/pkg/message"
	"github.com/kleascm/kestrel-hl7/pkg/patterns"
	"github.com/kleascm/kestrel-hl7/pkg/vendorcfg"
)

// defaultSeverity is the static per-deviation-type severity table. Missing
// fields escalate further with the configuration's stored confidence.
var defaultSeverity = map[interfaces.DeviationType]interfaces.DeviationSeverity{
	interfaces.DeviationEncodingVariation:   interfaces.SeverityWarning,
	interfaces.DeviationExtraFields:         interfaces.SeverityInfo,
	interfaces.DeviationMissingFields:       interfaces.SeverityError,
	interfaces.DeviationSegmentOrdering:     interfaces.SeverityWarning,
	interfaces.DeviationCustomSegments:      interfaces.SeverityInfo,
	interfaces.DeviationDataFormatVariation: interfaces.SeverityWarning,
	interfaces.DeviationMessageStructure:    interfaces.SeverityWarning,
}

// severityWeight converts severities into score penalties.
var severityWeight = map[interfaces.DeviationSeverity]float64{
	interfaces.SeverityInfo:     0.1,
	interfaces.SeverityWarning:  0.5,
	interfaces.SeverityError:    1.0,
	interfaces.SeverityCritical: 2.0,
}

// Validator scores messages against stored vendor configurations.
type Validator struct {
	delims message.Delimiters
}

// NewValidator creates a validator using the given delimiters.
func NewValidator(delims message.Delimiters) *Validator {
	return &Validator{delims: delims}
}

// Validate tokenizes the message with the same rules as the accumulator and
// checks every configured field. Returns the conformance score in [0,1] and
// the itemized deviations.
func (v *Validator) Validate(cfg *vendorcfg.VendorConfiguration, raw string) (float64, []interfaces.FormatDeviation) {
	segments := message.Tokenize(raw, v.delims)
	collector := newDeviationCollector()

	observed := make(map[string]*message.Segment)
	for i := range segments {
		seg := &segments[i]
		if _, seen := observed[seg.Type]; !seen {
			observed[seg.Type] = seg
		}
		if _, configured := cfg.Segments[seg.Type]; !configured {
			collector.add(interfaces.FormatDeviation{
				Type:          interfaces.DeviationCustomSegments,
				Severity:      defaultSeverity[interfaces.DeviationCustomSegments],
				DetectedValue: seg.Type,
				ExpectedValue: "configured segment type",
				Location:      seg.Type,
			})
		}
	}

	checked := 0
	for _, segType := range sortedKeys(cfg.Segments) {
		fields := cfg.Segments[segType]
		seg := observed[segType]

		positions := make([]int, 0, len(fields))
		for pos := range fields {
			positions = append(positions, pos)
		}
		sort.Ints(positions)

		for _, pos := range positions {
			expected := fields[pos]
			path := vendorcfg.FieldPath(segType, pos)
			checked++

			var value string
			if seg != nil {
				value = seg.Field(pos)
			}
			if value == "" {
				collector.add(interfaces.FormatDeviation{
					Type:          interfaces.DeviationMissingFields,
					Severity:      missingSeverity(cfg, path),
					DetectedValue: "",
					ExpectedValue: expected.String(),
					Location:      path,
				})
				continue
			}

			v.checkValue(collector, path, value, expected)
		}

		// Fields the message populates beyond what the configuration knows.
		if seg != nil {
			for pos := 1; pos < len(seg.Fields); pos++ {
				if seg.Fields[pos] == "" {
					continue
				}
				if _, configured := fields[pos]; !configured {
					collector.add(interfaces.FormatDeviation{
						Type:          interfaces.DeviationExtraFields,
						Severity:      defaultSeverity[interfaces.DeviationExtraFields],
						DetectedValue: seg.Fields[pos],
						ExpectedValue: "",
						Location:      vendorcfg.FieldPath(segType, pos),
					})
				}
			}
		}
	}

	v.checkRules(collector, cfg, observed)

	return conformanceScore(collector.deviations, checked), collector.deviations
}

// checkValue tests one observed value against its expected config value.
func (v *Validator) checkValue(collector *deviationCollector, path, value string, expected vendorcfg.FieldConfigValue) {
	if expected.IsComposite() {
		components := message.Components(value, v.delims)
		for pos, compExpected := range expected.Components() {
			var compValue string
			if pos >= 1 && pos <= len(components) {
				compValue = components[pos-1]
			}
			compPath := fmt.Sprintf("%s.%d", path, pos)
			if compValue == "" {
				collector.add(interfaces.FormatDeviation{
					Type:          interfaces.DeviationMessageStructure,
					Severity:      defaultSeverity[interfaces.DeviationMessageStructure],
					DetectedValue: value,
					ExpectedValue: compExpected.String(),
					Location:      compPath,
				})
				continue
			}
			if !v.matchesTag(compValue, compExpected.Scalar()) {
				collector.add(interfaces.FormatDeviation{
					Type:          interfaces.DeviationDataFormatVariation,
					Severity:      defaultSeverity[interfaces.DeviationDataFormatVariation],
					DetectedValue: compValue,
					ExpectedValue: compExpected.Scalar(),
					Location:      compPath,
				})
			}
		}
		return
	}

	if !v.matchesTag(value, expected.Scalar()) {
		collector.add(interfaces.FormatDeviation{
			Type:          interfaces.DeviationDataFormatVariation,
			Severity:      defaultSeverity[interfaces.DeviationDataFormatVariation],
			DetectedValue: value,
			ExpectedValue: expected.Scalar(),
			Location:      path,
		})
	}
}

// matchesTag re-derives the expected tag as a predicate over the observed
// value. The classifier is the single source of truth for tag semantics, so
// the predicate is tag membership in the value's classification.
func (v *Validator) matchesTag(value, tag string) bool {
	switch tag {
	case vendorcfg.TagPopulated:
		return value != ""
	case vendorcfg.TagCompositePopulated:
		return value != ""
	}
	for _, observed := range patterns.Classify(value, v.delims.Component) {
		if observed == tag {
			return true
		}
	}
	return false
}

// checkRules applies the generated validation rules to the observed fields.
// A value passing its tag check can still violate an allowed-values rule:
// same length, same shape, value outside the evidence set.
func (v *Validator) checkRules(collector *deviationCollector, cfg *vendorcfg.VendorConfiguration, observed map[string]*message.Segment) {
	for _, rule := range cfg.ValidationRules {
		segType, pos, err := vendorcfg.SplitFieldPath(rule.FieldPath)
		if err != nil {
			continue
		}
		seg := observed[segType]
		if seg == nil {
			continue
		}
		value := seg.Field(pos)
		if value == "" {
			continue
		}

		switch rule.Kind {
		case vendorcfg.RuleExactLength:
			if len(value) != rule.Length {
				collector.add(interfaces.FormatDeviation{
					Type:          interfaces.DeviationDataFormatVariation,
					Severity:      defaultSeverity[interfaces.DeviationDataFormatVariation],
					DetectedValue: value,
					ExpectedValue: fmt.Sprintf("%d characters", rule.Length),
					Location:      rule.FieldPath,
				})
			}
		case vendorcfg.RuleNumericLength:
			if !v.matchesTag(value, patterns.TagNumeric) || len(value) != rule.Length {
				collector.add(interfaces.FormatDeviation{
					Type:          interfaces.DeviationDataFormatVariation,
					Severity:      defaultSeverity[interfaces.DeviationDataFormatVariation],
					DetectedValue: value,
					ExpectedValue: fmt.Sprintf("%d digits", rule.Length),
					Location:      rule.FieldPath,
				})
			}
		case vendorcfg.RuleAllowedValues:
			if !contains(rule.AllowedValues, value) {
				collector.add(interfaces.FormatDeviation{
					Type:          interfaces.DeviationDataFormatVariation,
					Severity:      defaultSeverity[interfaces.DeviationDataFormatVariation],
					DetectedValue: value,
					ExpectedValue: "one of [" + strings.Join(rule.AllowedValues, " ") + "]",
					Location:      rule.FieldPath,
				})
			}
		}
	}
}

// missingSeverity escalates with the confidence backing the missing field:
// the stronger the evidence that the vendor always sends it, the worse its
// absence. Rule confidence for the path wins over overall confidence.
func missingSeverity(cfg *vendorcfg.VendorConfiguration, path string) interfaces.DeviationSeverity {
	conf := cfg.InferredFrom.Confidence
	for _, rule := range cfg.ValidationRules {
		if rule.FieldPath == path && rule.Confidence > conf {
			conf = rule.Confidence
		}
	}
	switch {
	case conf >= 0.95:
		return interfaces.SeverityCritical
	case conf >= 0.7:
		return interfaces.SeverityError
	default:
		return interfaces.SeverityWarning
	}
}

// conformanceScore computes 1 - (severity-weighted deviations / checked),
// clamped to [0,1]. A message with nothing to check scores 1 when clean.
func conformanceScore(deviations []interfaces.FormatDeviation, checked int) float64 {
	if checked == 0 {
		if len(deviations) == 0 {
			return 1.0
		}
		return 0.0
	}

	weighted := 0.0
	for _, dev := range deviations {
		weighted += severityWeight[dev.Severity] * float64(dev.Frequency)
	}

	score := 1.0 - weighted/float64(checked)
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

// deviationCollector aggregates duplicate deviations by (type, location),
// tracking how often each one fired.
type deviationCollector struct {
	deviations []interfaces.FormatDeviation
	index      map[string]int
}

func newDeviationCollector() *deviationCollector {
	return &deviationCollector{index: make(map[string]int)}
}

func (c *deviationCollector) add(dev interfaces.FormatDeviation) {
	key := string(dev.Type) + "|" + dev.Location
	if i, seen := c.index[key]; seen {
		c.deviations[i].Frequency++
		return
	}
	dev.Frequency = 1
	c.index[key] = len(c.deviations)
	c.deviations = append(c.deviations, dev)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]map[int]vendorcfg.FieldConfigValue) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
