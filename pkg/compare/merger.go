/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: merger.go
Description: Configuration merger for the Kestrel inference engine. Combines two vendor
configurations (e.g. to fold new samples into a stored configuration) by unioning
segment and field maps under a pluggable conflict-resolution strategy. The default
policy is last-writer-wins: the incoming value replaces the existing one.
*/

package compare

import (
	"strings"

	"github.com/kleascm/kestrel-hl7/pkg/vendorcfg"
)

// ConflictResolver decides the surviving value when a field path is present
// in both configurations being merged.
type ConflictResolver interface {
	Resolve(path string, existing, incoming vendorcfg.FieldConfigValue) vendorcfg.FieldConfigValue
}

// LastWriterWins keeps the incoming value on conflict. This is the default
// policy: fresh samples describe the vendor's current behavior.
type LastWriterWins struct{}

// Resolve returns the incoming value.
func (LastWriterWins) Resolve(path string, existing, incoming vendorcfg.FieldConfigValue) vendorcfg.FieldConfigValue {
	return incoming
}

// PreferExisting keeps the existing value on conflict. Useful when folding
// low-trust samples into a curated configuration.
type PreferExisting struct{}

// Resolve returns the existing value.
func (PreferExisting) Resolve(path string, existing, incoming vendorcfg.FieldConfigValue) vendorcfg.FieldConfigValue {
	return existing
}

// Merger combines vendor configurations under a conflict policy.
type Merger struct {
	resolver ConflictResolver
}

// NewMerger creates a merger. A nil resolver defaults to last-writer-wins.
func NewMerger(resolver ConflictResolver) *Merger {
	if resolver == nil {
		resolver = LastWriterWins{}
	}
	return &Merger{resolver: resolver}
}

// Merge combines two configurations. Segment and field maps are unioned with
// conflicts settled by the resolver; validation rules are unioned by (field
// path, rule kind) with incoming rules replacing matching existing ones;
// sample counts are summed. Confidence is carried from existing — callers
// wanting a fresh score must recompute from a new accumulation. The merged
// configuration keeps the existing identity (id, creation time); inputs are
// not mutated.
func (m *Merger) Merge(existing, incoming *vendorcfg.VendorConfiguration) *vendorcfg.VendorConfiguration {
	out := existing.Clone()

	for segType, fields := range incoming.Segments {
		target, ok := out.Segments[segType]
		if !ok {
			target = make(map[int]vendorcfg.FieldConfigValue, len(fields))
			out.Segments[segType] = target
		}
		for pos, incomingValue := range fields {
			if existingValue, conflict := target[pos]; conflict {
				target[pos] = m.resolver.Resolve(vendorcfg.FieldPath(segType, pos), existingValue, incomingValue)
			} else {
				target[pos] = incomingValue
			}
		}
	}

	for key, value := range incoming.Patterns {
		out.Patterns[key] = value
	}

	out.ValidationRules = mergeRules(out.ValidationRules, incoming.ValidationRules)

	out.InferredFrom.SampleCount += incoming.InferredFrom.SampleCount
	out.InferredFrom.DateRange = mergeDateRange(existing.InferredFrom.DateRange, incoming.InferredFrom.DateRange)

	return out
}

// mergeRules unions rule lists by (field path, kind). An incoming rule for a
// pair already present replaces the existing one.
func mergeRules(existing, incoming []vendorcfg.ValidationRule) []vendorcfg.ValidationRule {
	index := make(map[string]int, len(existing))
	out := append([]vendorcfg.ValidationRule(nil), existing...)
	for i, rule := range out {
		index[rule.FieldPath+"|"+string(rule.Kind)] = i
	}
	for _, rule := range incoming {
		key := rule.FieldPath + "|" + string(rule.Kind)
		if i, seen := index[key]; seen {
			out[i] = rule
			continue
		}
		index[key] = len(out)
		out = append(out, rule)
	}
	return out
}

// mergeDateRange widens "start - end" ranges across both inputs: existing
// start, incoming end. Falls back to whichever side is populated.
func mergeDateRange(existing, incoming string) string {
	if existing == "" {
		return incoming
	}
	if incoming == "" {
		return existing
	}
	existingParts := strings.SplitN(existing, " - ", 2)
	incomingParts := strings.SplitN(incoming, " - ", 2)
	if len(existingParts) == 2 && len(incomingParts) == 2 {
		return existingParts[0] + " - " + incomingParts[1]
	}
	return incoming
}
