/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: comparator.go
Description: Configuration comparator for the Kestrel inference engine. Computes a
similarity score and an itemized list of Added/Removed/Modified differences between
two vendor configurations over the union of their field paths.
*/

package compare

import (
	"sort"

	"github.com/kleascm/kestrel-hl7/pkg/vendorcfg"
)

// DifferenceType tags how a field path differs between two configurations.
type DifferenceType string

const (
	DiffAdded    DifferenceType = "added"
	DiffRemoved  DifferenceType = "removed"
	DiffModified DifferenceType = "modified"
)

// Difference is one itemized change between two configurations.
type Difference struct {
	Type      DifferenceType `json:"type"`
	FieldPath string         `json:"fieldPath"`
	OldValue  string         `json:"oldValue,omitempty"`
	NewValue  string         `json:"newValue,omitempty"`
}

// ConfigurationComparison is the result of comparing two configurations.
type ConfigurationComparison struct {
	SimilarityScore float64      `json:"similarityScore"`
	Differences     []Difference `json:"differences"`
}

// Compare walks the union of field paths across both configurations and
// classifies each one: Added (in b only), Removed (in a only), or Modified
// (present in both with differing values). Similarity is the share of the
// union left untouched; two empty configurations are identical.
func Compare(a, b *vendorcfg.VendorConfiguration) *ConfigurationComparison {
	union := make(map[string]struct{})
	for _, path := range a.FieldPaths() {
		union[path] = struct{}{}
	}
	for _, path := range b.FieldPaths() {
		union[path] = struct{}{}
	}

	paths := make([]string, 0, len(union))
	for path := range union {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var differences []Difference
	for _, path := range paths {
		oldValue, inA := a.ValueAt(path)
		newValue, inB := b.ValueAt(path)

		switch {
		case inA && !inB:
			differences = append(differences, Difference{
				Type:      DiffRemoved,
				FieldPath: path,
				OldValue:  oldValue.String(),
			})
		case !inA && inB:
			differences = append(differences, Difference{
				Type:      DiffAdded,
				FieldPath: path,
				NewValue:  newValue.String(),
			})
		case !oldValue.Equal(newValue):
			differences = append(differences, Difference{
				Type:      DiffModified,
				FieldPath: path,
				OldValue:  oldValue.String(),
				NewValue:  newValue.String(),
			})
		}
	}

	similarity := 1.0
	if len(union) > 0 {
		similarity = 1.0 - float64(len(differences))/float64(len(union))
	}

	return &ConfigurationComparison{
		SimilarityScore: similarity,
		Differences:     differences,
	}
}
