package simtemp

import "testing"

func TestConfigStoreSetSamplingMsRejectsZero(t *testing.T) {
	c := newConfigStore(500, 10000)
	before := c.getSamplingMs()

	if err := c.setSamplingMs(0); err != ErrInvalidArgument {
		t.Fatalf("setSamplingMs(0) error = %v, want ErrInvalidArgument", err)
	}
	if c.getSamplingMs() != before {
		t.Fatalf("samplingMs changed after a rejected write: got %d, want %d", c.getSamplingMs(), before)
	}
}

func TestConfigStoreSnapshotIsConsistent(t *testing.T) {
	c := newConfigStore(250, -5000)
	c.setMode(ModeNoisy)
	c.setDebug(true)

	snap := c.snapshot()
	if snap.SamplingMs != 250 || snap.ThresholdMC != -5000 || snap.Mode != ModeNoisy || !snap.Debug {
		t.Fatalf("snapshot = %+v, want {SamplingMs:250 ThresholdMC:-5000 Mode:ModeNoisy Debug:true}", snap)
	}
}

func TestParseModeRoundTrip(t *testing.T) {
	for _, m := range []Mode{ModeNormal, ModeRamp, ModeNoisy} {
		parsed, ok := ParseMode(m.String())
		if !ok {
			t.Fatalf("ParseMode(%q) ok = false", m.String())
		}
		if parsed != m {
			t.Fatalf("ParseMode(%q) = %v, want %v", m.String(), parsed, m)
		}
	}
}

func TestParseModeRejectsUnknown(t *testing.T) {
	if _, ok := ParseMode("scorching"); ok {
		t.Fatalf("ParseMode accepted an unknown mode name")
	}
}

func TestConfigStoreDefaultsAppliedOnZeroSamplingMs(t *testing.T) {
	c := newConfigStore(0, 1000)
	if c.getSamplingMs() != defaultSamplingMs {
		t.Fatalf("getSamplingMs() = %d, want default %d", c.getSamplingMs(), defaultSamplingMs)
	}
}
