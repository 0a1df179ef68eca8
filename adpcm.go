package gbam

// ChannelState is the per-channel ADPCM decoder state from spec.md §3:
// a running predictor and an adaptive step index, re-seeded from every
// block header (§4.2) and otherwise updated sample-by-sample by the
// primitives below.
type ChannelState struct {
	Predictor int32
	StepIndex int32
}

// stepTable is the standard 89-entry IMA ADPCM step-size table shared by
// the 4-bit and 3-bit primitives, and (via stepTable[stepIndex>>2]) by the
// 2-bit primitive's delta table.
var stepTable = [89]int32{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17, 19, 21, 23, 25, 28,
	31, 34, 37, 41, 45, 50, 55, 60, 66, 73, 80, 88, 97, 107,
	118, 130, 143, 157, 173, 190, 209, 230, 253, 279, 307, 337, 371,
	408, 449, 494, 544, 598, 658, 724, 796, 876, 963, 1060, 1166,
	1282, 1411, 1552, 1707, 1878, 2066, 2272, 2499, 2749, 3024, 3327,
	3660, 4026, 4428, 4871, 5358, 5894, 6484, 7132, 7845, 8630, 9493,
	10442, 11487, 12635, 13899, 15289, 16818, 18500, 20350, 22385, 24623,
	27086, 29794, 32767,
}

// indexTable4Bit is the standard IMA adjustment table for a 4-bit code
// SMMM (sign bit 3, magnitude bits 2..0), doubled across the two sign
// halves as spec.md §4.1 describes.
var indexTable4Bit = [16]int32{
	-1, -1, -1, -1, 2, 4, 6, 8,
	-1, -1, -1, -1, 2, 4, 6, 8,
}

// indexTable3Bit is the adjustment table for a 3-bit code SMM.
var indexTable3Bit = [8]int32{-1, -1, 2, 6, -1, -1, 2, 6}

// deltaTable2Bit is the flat 356-entry (89 step levels × 4 codes) signed
// delta table for the 2-bit primitive, built once from the same stepTable
// the 4-bit/3-bit primitives use. Entry deltaTable2Bit[level*4+code] is the
// signed delta applied for that step level and 2-bit code; the ±4
// adjustment keeps a step_index that starts as a multiple of 4 aligned, so
// that step_index+code indexes this table directly. The block header's step
// index is clamped to [0, 0x160] but not rounded to a multiple of 4.
var deltaTable2Bit = buildDeltaTable2Bit()

func buildDeltaTable2Bit() [356]int16 {
	var t [356]int16
	for level := 0; level < 89; level++ {
		step := stepTable[level]
		for code := 0; code < 4; code++ {
			mag := step >> 1
			if code&1 != 0 {
				mag += step >> 2
			}
			if code&2 != 0 {
				mag = -mag
			}
			t[level*4+code] = int16(mag)
		}
	}

	return t
}

func clamp16(v int32) int32 {
	if v < -32768 {
		return -32768
	}
	if v > 32767 {
		return 32767
	}

	return v
}

func clampU16(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}

	return v
}

func clampRange(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}

// decodeIMA4 decodes one 4-bit IMA code (modes 0 and 2) and returns the
// updated predictor as a signed 16-bit PCM value. code is the low 4 bits
// SMMM: sign in bit 3, magnitude in bits 2..0.
func decodeIMA4(s *ChannelState, code byte) int16 {
	step := stepTable[s.StepIndex]

	diff := step >> 3
	if code&4 != 0 {
		diff += step
	}
	if code&2 != 0 {
		diff += step >> 1
	}
	if code&1 != 0 {
		diff += step >> 2
	}

	if code&8 != 0 {
		s.Predictor -= diff
	} else {
		s.Predictor += diff
	}
	s.Predictor = clamp16(s.Predictor)

	s.StepIndex = clampRange(s.StepIndex+indexTable4Bit[code&15], 0, 88)

	return int16(s.Predictor)
}

// decode3Bit decodes one 3-bit code (mode 1) and returns the centered
// (predictor - 0x8000) sample. code is the low 3 bits SMM: sign in bit 2,
// magnitude in bits 1..0. The internal predictor is kept unsigned, in
// [0, 65535].
func decode3Bit(s *ChannelState, code byte) int16 {
	step := stepTable[s.StepIndex]

	diff := step >> 2
	if code&2 != 0 {
		diff += step
	}
	if code&1 != 0 {
		diff += step >> 1
	}

	if code&4 != 0 {
		s.Predictor -= diff
	} else {
		s.Predictor += diff
	}
	s.Predictor = clampU16(s.Predictor)

	s.StepIndex = clampRange(s.StepIndex+indexTable3Bit[code&7], 0, 88)

	return int16(s.Predictor - 0x8000)
}

// decode2Bit decodes one 2-bit code (modes 3 and 4) and returns the
// centered (predictor - 0x8000) sample. The internal predictor is kept
// unsigned, in [0, 65535]; step_index moves by ±4 per code and is clamped
// to [0, 0x160].
func decode2Bit(s *ChannelState, code byte) int16 {
	idx := s.StepIndex + int32(code&3)
	diff := int32(deltaTable2Bit[idx])

	s.Predictor = clampU16(s.Predictor + diff)

	if code&1 != 0 {
		s.StepIndex += 4
	} else {
		s.StepIndex -= 4
	}
	s.StepIndex = clampRange(s.StepIndex, 0, 0x160)

	return int16(s.Predictor - 0x8000)
}
