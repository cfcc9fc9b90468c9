/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: accumulator.go
Description: Pattern accumulator for the Kestrel inference engine. Builds a per-run
hierarchy from a batch of raw messages: message -> segment type -> field position ->
(occurrence count, bounded value samples, tag counts, nested component patterns).
Accumulators are call-scoped and discarded once a configuration is built.
*/

package patterns

import (
	"context"
	"sort"
	"time"

	"github.com/kleascm/kestrel-hl7/pkg/interfaces"
	"github.com/kleascm/kestrel-hl7/pkg/message"
)

const (
	// MaxSamples bounds the number of raw values kept per pattern.
	MaxSamples = 10

	// MaxDistinctValues bounds distinct-value tracking per pattern. Fields
	// exceeding the bound are treated as free-form (no value enumeration).
	MaxDistinctValues = 16
)

// PatternStats is the shared mutable core of field- and component-level
// patterns. It implements interfaces.PatternBearer.
type PatternStats struct {
	occurrences   int
	samples       []string
	tagCounts     map[string]int
	valueCounts   map[string]int
	valueOverflow bool
	firstLength   int
	uniformLength bool
	componentSep  string
}

func newPatternStats(componentSep string) PatternStats {
	return PatternStats{
		tagCounts:     make(map[string]int),
		valueCounts:   make(map[string]int),
		uniformLength: true,
		componentSep:  componentSep,
	}
}

// AddValue records one observed value.
func (p *PatternStats) AddValue(value string) {
	if p.occurrences == 0 {
		p.firstLength = len(value)
	} else if len(value) != p.firstLength {
		p.uniformLength = false
	}
	p.occurrences++

	if len(p.samples) < MaxSamples {
		p.samples = append(p.samples, value)
	}

	for _, tag := range Classify(value, p.componentSep) {
		p.tagCounts[tag]++
	}

	if p.valueOverflow {
		return
	}
	if _, seen := p.valueCounts[value]; !seen && len(p.valueCounts) >= MaxDistinctValues {
		p.valueOverflow = true
		p.valueCounts = nil
		return
	}
	p.valueCounts[value]++
}

// Occurrences returns how many values have been recorded.
func (p *PatternStats) Occurrences() int {
	return p.occurrences
}

// Tags returns the distinct tags observed, sorted for determinism.
func (p *PatternStats) Tags() []string {
	tags := make([]string, 0, len(p.tagCounts))
	for tag := range p.tagCounts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// TagCounts returns the cumulative observation count per tag.
func (p *PatternStats) TagCounts() map[string]int {
	return p.tagCounts
}

// Samples returns the bounded list of raw observed values.
func (p *PatternStats) Samples() []string {
	return p.samples
}

// DistinctValues returns the sorted distinct observed values. ok is false
// when the field overflowed the tracking bound and enumeration is unreliable.
func (p *PatternStats) DistinctValues() (values []string, ok bool) {
	if p.valueOverflow {
		return nil, false
	}
	for v := range p.valueCounts {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, true
}

// UniformLength reports whether every observed value had the same length,
// and that length. Meaningless before the first observation.
func (p *PatternStats) UniformLength() (int, bool) {
	return p.firstLength, p.uniformLength && p.occurrences > 0
}

// merge folds another stats container into this one (shard recombination).
func (p *PatternStats) merge(other *PatternStats) {
	if other.occurrences == 0 {
		return
	}
	if p.occurrences == 0 {
		p.firstLength = other.firstLength
		p.uniformLength = other.uniformLength
	} else {
		if p.firstLength != other.firstLength || !other.uniformLength {
			p.uniformLength = false
		}
	}
	p.occurrences += other.occurrences

	for _, s := range other.samples {
		if len(p.samples) >= MaxSamples {
			break
		}
		p.samples = append(p.samples, s)
	}
	for tag, n := range other.tagCounts {
		p.tagCounts[tag] += n
	}

	if p.valueOverflow || other.valueOverflow {
		p.valueOverflow = true
		p.valueCounts = nil
		return
	}
	for v, n := range other.valueCounts {
		if _, seen := p.valueCounts[v]; !seen && len(p.valueCounts) >= MaxDistinctValues {
			p.valueOverflow = true
			p.valueCounts = nil
			return
		}
		p.valueCounts[v] += n
	}
}

// FieldPattern accumulates observations for one (segment type, position).
type FieldPattern struct {
	SegmentType string
	Position    int
	PatternStats
	Components map[int]*ComponentPattern
}

// ComponentPattern accumulates observations for one sub-position of a
// composite field. Identical shape to FieldPattern, scoped one level down.
type ComponentPattern struct {
	Position int
	PatternStats
}

// Component returns the nested pattern for a 1-based component position,
// creating it on first use.
func (f *FieldPattern) Component(position int) *ComponentPattern {
	if f.Components == nil {
		f.Components = make(map[int]*ComponentPattern)
	}
	cp, ok := f.Components[position]
	if !ok {
		cp = &ComponentPattern{Position: position, PatternStats: newPatternStats(f.componentSep)}
		f.Components[position] = cp
	}
	return cp
}

// SegmentPattern groups the field patterns observed for one segment type.
type SegmentPattern struct {
	Type        string
	Occurrences int
	Fields      map[int]*FieldPattern
}

// Field returns the pattern for a 1-based field position, creating it on
// first use.
func (s *SegmentPattern) Field(position int, componentSep string) *FieldPattern {
	fp, ok := s.Fields[position]
	if !ok {
		fp = &FieldPattern{
			SegmentType:  s.Type,
			Position:     position,
			PatternStats: newPatternStats(componentSep),
		}
		s.Fields[position] = fp
	}
	return fp
}

// Accumulator builds the pattern tree for one inference run. It is not safe
// for concurrent use; shard across instances and recombine with Merge.
type Accumulator struct {
	delims       message.Delimiters
	segments     map[string]*SegmentPattern
	signatures   map[string]int
	messageCount int
	startedAt    time.Time
	endedAt      time.Time
}

// NewAccumulator creates an empty accumulator for the given delimiters.
func NewAccumulator(delims message.Delimiters) *Accumulator {
	return &Accumulator{
		delims:     delims,
		segments:   make(map[string]*SegmentPattern),
		signatures: make(map[string]int),
		startedAt:  time.Now(),
	}
}

// Analyze folds a batch of raw messages into the pattern tree. Cancellation
// is checked once per message so large batches stay interruptible.
func (a *Accumulator) Analyze(ctx context.Context, messages []string) (*interfaces.AnalysisSummary, error) {
	for _, raw := range messages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a.AnalyzeMessage(raw)
	}
	a.endedAt = time.Now()
	return a.Summary(), nil
}

// AnalyzeMessage folds a single raw message into the pattern tree.
func (a *Accumulator) AnalyzeMessage(raw string) {
	segments := message.Tokenize(raw, a.delims)
	a.messageCount++

	a.recordSignature(segments)

	for i := range segments {
		a.analyzeSegment(&segments[i])
	}
}

// analyzeSegment updates the field patterns for one tokenized segment.
// Position 0 of the field slice sits left of the first delimiter and is
// skipped; empty fields are skipped silently.
func (a *Accumulator) analyzeSegment(seg *message.Segment) {
	sp, ok := a.segments[seg.Type]
	if !ok {
		sp = &SegmentPattern{Type: seg.Type, Fields: make(map[int]*FieldPattern)}
		a.segments[seg.Type] = sp
	}
	sp.Occurrences++

	for i := 1; i < len(seg.Fields); i++ {
		value := seg.Fields[i]
		if value == "" {
			continue
		}

		fp := sp.Field(i, a.delims.Component)
		fp.AddValue(value)

		if message.IsComposite(value, a.delims) {
			components := message.Components(value, a.delims)
			for j, comp := range components {
				if comp == "" {
					continue
				}
				fp.Component(j + 1).AddValue(comp)
			}
		}
	}
}

// Summary reports counts of distinct patterns and the signature tally.
func (a *Accumulator) Summary() *interfaces.AnalysisSummary {
	fieldCount := 0
	for _, sp := range a.segments {
		fieldCount += len(sp.Fields)
	}
	return &interfaces.AnalysisSummary{
		MessageCount:     a.messageCount,
		SegmentPatterns:  len(a.segments),
		FieldPatterns:    fieldCount,
		VendorSignatures: a.signatures,
	}
}

// Segments exposes the accumulated segment patterns.
func (a *Accumulator) Segments() map[string]*SegmentPattern {
	return a.segments
}

// Signatures exposes the vendor signature tally.
func (a *Accumulator) Signatures() map[string]int {
	return a.signatures
}

// MessageCount returns how many messages this accumulator has seen.
func (a *Accumulator) MessageCount() int {
	return a.messageCount
}

// DateRange describes the wall-clock span of the accumulation run.
func (a *Accumulator) DateRange() (start, end time.Time) {
	end = a.endedAt
	if end.IsZero() {
		end = time.Now()
	}
	return a.startedAt, end
}

// Merge folds another accumulator into this one. Used to recombine shards
// after parallel analysis of independent message subsets.
func (a *Accumulator) Merge(other *Accumulator) {
	a.messageCount += other.messageCount
	for sig, n := range other.signatures {
		a.signatures[sig] += n
	}
	if a.startedAt.After(other.startedAt) {
		a.startedAt = other.startedAt
	}
	if other.endedAt.After(a.endedAt) {
		a.endedAt = other.endedAt
	}

	for segType, osp := range other.segments {
		sp, ok := a.segments[segType]
		if !ok {
			a.segments[segType] = osp
			continue
		}
		sp.Occurrences += osp.Occurrences

		for pos, ofp := range osp.Fields {
			fp, ok := sp.Fields[pos]
			if !ok {
				sp.Fields[pos] = ofp
				continue
			}
			fp.PatternStats.merge(&ofp.PatternStats)
			for cpos, ocp := range ofp.Components {
				cp := fp.Component(cpos)
				cp.PatternStats.merge(&ocp.PatternStats)
			}
		}
	}
}
