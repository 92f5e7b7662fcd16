package job

import "github.com/quantumgrade/entropyval/internal/domain/model"

// PackBitstream converts a chunk of entropy events into the bit-stream
// representation the assessment service expects: the least significant bit of
// each inter-event hardware timing delta, packed MSB-first into bytes.
//
// Decay timing LSBs are where the physical randomness lives; everything above
// them is dominated by the source's mean rate. n events yield n−1 bits.
func PackBitstream(events []*model.EntropyEvent) model.AssessmentRequest {
	if len(events) < 2 {
		return model.AssessmentRequest{}
	}

	bitCount := len(events) - 1
	bits := make([]byte, (bitCount+7)/8)
	for i := 1; i < len(events); i++ {
		delta := events[i].HwTimestampNs - events[i-1].HwTimestampNs
		if delta&1 == 1 {
			pos := i - 1
			bits[pos/8] |= 1 << (7 - pos%8)
		}
	}

	return model.AssessmentRequest{
		Bits:     bits,
		BitCount: bitCount,
	}
}
