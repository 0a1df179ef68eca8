package gbam

import "testing"

func TestDeltaTable2BitFirstEntry(t *testing.T) {
	// stepTable[0] == 7, so the level-0 code-0 delta must be 7>>1 == 3.
	if got := deltaTable2Bit[0]; got != 3 {
		t.Errorf("deltaTable2Bit[0]: got %d, want 3", got)
	}
}

func TestDecode2BitMatchesDeltaTable(t *testing.T) {
	s := &ChannelState{Predictor: 0x8000, StepIndex: 0}

	want := int16(clampU16(0x8000+int32(deltaTable2Bit[0])) - 0x8000)

	got := decode2Bit(s, 0)
	if got != want {
		t.Errorf("decode2Bit(pred=0x8000, step=0, code=0): got %d, want %d", got, want)
	}

	if s.StepIndex != 0 {
		t.Errorf("StepIndex after code 0 (bit0 clear, clamped at floor): got %d, want 0", s.StepIndex)
	}
}

func TestDecodeIMA4StereoPair(t *testing.T) {
	left := &ChannelState{Predictor: 0x8000, StepIndex: 10}
	right := &ChannelState{Predictor: 0x8000, StepIndex: 20}

	body := byte(0x2F)
	lSample := decodeIMA4(left, body&0x0F)
	rSample := decodeIMA4(right, (body>>4)&0x0F)

	if left.Predictor < -32768 || left.Predictor > 32767 {
		t.Errorf("left predictor out of 16-bit range: %d", left.Predictor)
	}
	if right.Predictor < -32768 || right.Predictor > 32767 {
		t.Errorf("right predictor out of 16-bit range: %d", right.Predictor)
	}

	// code 0xF: sign bit set, magnitude bits 111 -> diff = step + step>>1 + step>>2 + step>>3
	wantStepL := stepTable[10]
	wantDiffL := wantStepL + wantStepL>>1 + wantStepL>>2 + wantStepL>>3
	wantL := clamp16(0x8000 - wantDiffL)
	if int32(lSample) != wantL {
		t.Errorf("left sample: got %d, want %d", lSample, wantL)
	}

	// code 0x2: sign bit clear, magnitude bits 010 -> diff = step>>3 + step>>1
	wantStepR := stepTable[20]
	wantDiffR := wantStepR>>3 + wantStepR>>1
	wantR := clamp16(0x8000 + wantDiffR)
	if int32(rSample) != wantR {
		t.Errorf("right sample: got %d, want %d", rSample, wantR)
	}
}

func TestStepIndexClampedToTableBounds(t *testing.T) {
	s := &ChannelState{Predictor: 0, StepIndex: 88}
	decodeIMA4(s, 0x07) // largest positive adjustment, +8

	if s.StepIndex != 88 {
		t.Errorf("StepIndex after clamp: got %d, want 88", s.StepIndex)
	}

	s = &ChannelState{Predictor: 0, StepIndex: 0}
	decodeIMA4(s, 0x00) // adjustment -1

	if s.StepIndex != 0 {
		t.Errorf("StepIndex after clamp: got %d, want 0", s.StepIndex)
	}
}

func TestDecode3BitCentering(t *testing.T) {
	s := &ChannelState{Predictor: 0x8000, StepIndex: 0}

	step := stepTable[0]
	wantDiff := step >> 2
	want := int16(clampU16(0x8000+wantDiff) - 0x8000)

	got := decode3Bit(s, 0)
	if got != want {
		t.Errorf("decode3Bit(pred=0x8000, step=0, code=0): got %d, want %d", got, want)
	}
}
