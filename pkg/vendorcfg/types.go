/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Vendor configuration model for the Kestrel inference engine. Defines the
persistable configuration document: per-segment field config values (a tagged union of
scalar tag or nested component map), generated validation rules, message-level patterns,
and inference metadata. Serialization keys match the on-disk document contract.
*/

package vendorcfg

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sentinel config values emitted when no stronger evidence exists.
const (
	TagPopulated          = "populated"
	TagCompositePopulated = "composite_populated"
)

// Message-level pattern keys.
const (
	PatternTimestampFormat  = "timestamp_format"
	PatternIdentifierFormat = "identifier_format"
)

// FieldConfigValue is a tagged union: either a scalar pattern tag or a
// nested map of component configs. Exactly one side is set.
type FieldConfigValue struct {
	scalar    string
	composite map[int]FieldConfigValue
}

// ScalarValue wraps a pattern tag as a field config value.
func ScalarValue(tag string) FieldConfigValue {
	return FieldConfigValue{scalar: tag}
}

// CompositeValue wraps a component-position map as a field config value.
func CompositeValue(components map[int]FieldConfigValue) FieldConfigValue {
	return FieldConfigValue{composite: components}
}

// IsComposite reports which arm of the union is set.
func (v FieldConfigValue) IsComposite() bool {
	return v.composite != nil
}

// Scalar returns the scalar tag, or empty string for composite values.
func (v FieldConfigValue) Scalar() string {
	return v.scalar
}

// Components returns the component map, or nil for scalar values.
func (v FieldConfigValue) Components() map[int]FieldConfigValue {
	return v.composite
}

// Equal compares two config values structurally.
func (v FieldConfigValue) Equal(other FieldConfigValue) bool {
	if v.IsComposite() != other.IsComposite() {
		return false
	}
	if !v.IsComposite() {
		return v.scalar == other.scalar
	}
	if len(v.composite) != len(other.composite) {
		return false
	}
	for pos, cv := range v.composite {
		ov, ok := other.composite[pos]
		if !ok || !cv.Equal(ov) {
			return false
		}
	}
	return true
}

// String renders the value for human-readable difference reports.
func (v FieldConfigValue) String() string {
	if !v.IsComposite() {
		return v.scalar
	}
	positions := make([]int, 0, len(v.composite))
	for pos := range v.composite {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	parts := make([]string, 0, len(positions))
	for _, pos := range positions {
		parts = append(parts, fmt.Sprintf("%d:%s", pos, v.composite[pos].String()))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// MarshalJSON encodes scalar values as JSON strings and composite values as
// JSON objects keyed by component position.
func (v FieldConfigValue) MarshalJSON() ([]byte, error) {
	if v.IsComposite() {
		return json.Marshal(v.composite)
	}
	return json.Marshal(v.scalar)
}

// UnmarshalJSON decodes either union arm based on the JSON shape.
func (v *FieldConfigValue) UnmarshalJSON(data []byte) error {
	var scalar string
	if err := json.Unmarshal(data, &scalar); err == nil {
		*v = ScalarValue(scalar)
		return nil
	}
	var composite map[int]FieldConfigValue
	if err := json.Unmarshal(data, &composite); err != nil {
		return fmt.Errorf("field config value is neither tag nor component map: %w", err)
	}
	*v = CompositeValue(composite)
	return nil
}

// RuleKind identifies what a generated validation rule checks.
type RuleKind string

const (
	RuleExactLength   RuleKind = "exact_length"
	RuleNumericLength RuleKind = "numeric_length"
	RuleAllowedValues RuleKind = "allowed_values"
)

// ValidationRule is a statistically-derived constraint on one field.
type ValidationRule struct {
	FieldPath     string   `json:"fieldPath"`
	Kind          RuleKind `json:"kind"`
	Length        int      `json:"length,omitempty"`
	AllowedValues []string `json:"allowedValues,omitempty"`
	Message       string   `json:"message"`
	Confidence    float64  `json:"confidence"`
}

// InferenceMetadata records the evidence behind a configuration.
type InferenceMetadata struct {
	SampleCount int               `json:"sampleCount"`
	DateRange   string            `json:"dateRange"`
	Confidence  float64           `json:"confidence"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// VendorConfiguration is the persistable, confidence-scored description of
// how one sending system populates a message type.
type VendorConfiguration struct {
	Vendor          string                              `json:"vendor"`
	MessageType     string                              `json:"messageType"`
	Segments        map[string]map[int]FieldConfigValue `json:"segments"`
	Patterns        map[string]string                   `json:"patterns"`
	ValidationRules []ValidationRule                    `json:"validationRules"`
	InferredFrom    InferenceMetadata                   `json:"inferredFrom"`
	ConfigurationID string                              `json:"configurationId"`
	CreatedAt       time.Time                           `json:"createdAt"`
}

// FieldPath renders the canonical "SEG.position" path string.
func FieldPath(segmentType string, position int) string {
	return segmentType + "." + strconv.Itoa(position)
}

// SplitFieldPath parses a "SEG.position" path back into its parts.
func SplitFieldPath(path string) (segmentType string, position int, err error) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "", 0, fmt.Errorf("malformed field path %q", path)
	}
	position, err = strconv.Atoi(path[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("malformed field path %q: %w", path, err)
	}
	return path[:idx], position, nil
}

// FieldPaths returns every configured field path, sorted.
func (c *VendorConfiguration) FieldPaths() []string {
	var paths []string
	for segType, fields := range c.Segments {
		for pos := range fields {
			paths = append(paths, FieldPath(segType, pos))
		}
	}
	sort.Strings(paths)
	return paths
}

// ValueAt looks up the config value for a field path.
func (c *VendorConfiguration) ValueAt(path string) (FieldConfigValue, bool) {
	segType, pos, err := SplitFieldPath(path)
	if err != nil {
		return FieldConfigValue{}, false
	}
	fields, ok := c.Segments[segType]
	if !ok {
		return FieldConfigValue{}, false
	}
	v, ok := fields[pos]
	return v, ok
}

// Clone returns a deep copy. Merging mutates maps, so the merger clones the
// inputs first to keep stored configurations immutable.
func (c *VendorConfiguration) Clone() *VendorConfiguration {
	out := *c
	out.Segments = make(map[string]map[int]FieldConfigValue, len(c.Segments))
	for segType, fields := range c.Segments {
		cp := make(map[int]FieldConfigValue, len(fields))
		for pos, v := range fields {
			cp[pos] = v.clone()
		}
		out.Segments[segType] = cp
	}
	out.Patterns = make(map[string]string, len(c.Patterns))
	for k, v := range c.Patterns {
		out.Patterns[k] = v
	}
	out.ValidationRules = make([]ValidationRule, len(c.ValidationRules))
	copy(out.ValidationRules, c.ValidationRules)
	for i := range out.ValidationRules {
		if src := c.ValidationRules[i].AllowedValues; src != nil {
			out.ValidationRules[i].AllowedValues = append([]string(nil), src...)
		}
	}
	if c.InferredFrom.Annotations != nil {
		out.InferredFrom.Annotations = make(map[string]string, len(c.InferredFrom.Annotations))
		for k, v := range c.InferredFrom.Annotations {
			out.InferredFrom.Annotations[k] = v
		}
	}
	return &out
}

func (v FieldConfigValue) clone() FieldConfigValue {
	if !v.IsComposite() {
		return v
	}
	cp := make(map[int]FieldConfigValue, len(v.composite))
	for pos, cv := range v.composite {
		cp[pos] = cv.clone()
	}
	return CompositeValue(cp)
}
