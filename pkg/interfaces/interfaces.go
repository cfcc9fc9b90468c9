/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Shared interfaces and types for the Kestrel inference engine. Defines the
core contracts used across all packages to break import cycles and enable proper
modular design: pattern accumulation, format deviations, and analysis summaries.
*/

package interfaces

// PatternBearer is the common contract of field- and component-level pattern
// containers. Accumulation logic operates against this interface so the same
// code path handles both levels of the pattern tree.
type PatternBearer interface {
	// AddValue records one observed value: increments the occurrence count,
	// stores a bounded sample, and folds the value's tags into the tag counts.
	AddValue(value string)

	// Tags returns the distinct pattern tags observed so far.
	Tags() []string

	// Occurrences returns how many values have been recorded.
	Occurrences() int
}

// DeviationType classifies a mismatch between an observed message and a
// stored vendor configuration.
type DeviationType string

const (
	DeviationEncodingVariation   DeviationType = "encoding_variation"
	DeviationExtraFields         DeviationType = "extra_fields"
	DeviationMissingFields       DeviationType = "missing_fields"
	DeviationSegmentOrdering     DeviationType = "segment_ordering"
	DeviationCustomSegments      DeviationType = "custom_segments"
	DeviationDataFormatVariation DeviationType = "data_format_variation"
	DeviationMessageStructure    DeviationType = "message_structure"
)

// DeviationSeverity ranks how serious a deviation is.
type DeviationSeverity string

const (
	SeverityInfo     DeviationSeverity = "info"
	SeverityWarning  DeviationSeverity = "warning"
	SeverityError    DeviationSeverity = "error"
	SeverityCritical DeviationSeverity = "critical"
)

// FormatDeviation is a single typed, severity-ranked mismatch found while
// validating a message against a vendor configuration.
type FormatDeviation struct {
	Type          DeviationType     `json:"type"`
	Severity      DeviationSeverity `json:"severity"`
	DetectedValue string            `json:"detectedValue"`
	ExpectedValue string            `json:"expectedValue"`
	Location      string            `json:"location"`
	Frequency     int               `json:"frequency"`
}

// AnalysisSummary reports what one accumulation run observed.
type AnalysisSummary struct {
	MessageCount     int            `json:"messageCount"`
	SegmentPatterns  int            `json:"segmentPatterns"`
	FieldPatterns    int            `json:"fieldPatterns"`
	VendorSignatures map[string]int `json:"vendorSignatures"`
}
