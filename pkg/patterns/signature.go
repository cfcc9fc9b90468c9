/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: signature.go
Description: Vendor signature extraction for the Kestrel inference engine. Pulls the
two identity fields from a message's header segment (sending application and sending
facility) and tallies their frequency to support vendor identity inference.
*/

package patterns

import (
	"strings"

	"github.com/kleascm/kestrel-hl7/pkg/message"
)

// HeaderSegmentType is the segment type carrying vendor identity fields.
const HeaderSegmentType = "MSH"

// Fixed offsets of the identity fields within the header's field slice.
// Offset 1 holds the encoding characters, so identity starts at 2.
const (
	sendingApplicationOffset = 2
	sendingFacilityOffset    = 3
)

// recordSignature tallies the identity fields of the first header-bearing
// segment. Messages without a header contribute nothing.
func (a *Accumulator) recordSignature(segments []message.Segment) {
	for i := range segments {
		seg := &segments[i]
		if seg.Type != HeaderSegmentType {
			continue
		}
		for _, offset := range []int{sendingApplicationOffset, sendingFacilityOffset} {
			if offset >= len(seg.Fields) {
				continue
			}
			identity := strings.ToUpper(strings.TrimSpace(seg.Fields[offset]))
			if identity == "" {
				continue
			}
			a.signatures[identity]++
		}
		return
	}
}

// DominantSignature returns the most frequent vendor signature and its
// tally, or empty when nothing has been observed.
func (a *Accumulator) DominantSignature() (string, int) {
	best, bestCount := "", 0
	for sig, n := range a.signatures {
		if n > bestCount || (n == bestCount && sig < best) {
			best, bestCount = sig, n
		}
	}
	return best, bestCount
}
