package classifier

import (
	"testing"

	"tally/pkg/protocol"
)

func testConfig() Config {
	return Config{
		IdleThreshold:          60,
		EffectiveIdleThreshold: 10,
		SleepGap:               300,
	}
}

func TestClassify_DecisionOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		sample        protocol.RawSample
		wantState     protocol.EngagementState
		wantEffective int64
		wantPassive   int64
	}{
		{
			name:          "effective active",
			sample:        protocol.RawSample{IdleSeconds: 3, GapSeconds: 2},
			wantState:     protocol.StateActive,
			wantEffective: 2,
		},
		{
			name:        "passive active",
			sample:      protocol.RawSample{IdleSeconds: 30, GapSeconds: 2},
			wantState:   protocol.StateActive,
			wantPassive: 2,
		},
		{
			name:      "afk at threshold",
			sample:    protocol.RawSample{IdleSeconds: 60, GapSeconds: 2},
			wantState: protocol.StateAfk,
		},
		{
			name:      "afk above threshold",
			sample:    protocol.RawSample{IdleSeconds: 3600, GapSeconds: 2},
			wantState: protocol.StateAfk,
		},
		{
			name:      "sleep gap wins over idle",
			sample:    protocol.RawSample{IdleSeconds: 7200, GapSeconds: 7200},
			wantState: protocol.StateSuspended,
		},
		{
			name:          "gap at threshold is not sleep",
			sample:        protocol.RawSample{IdleSeconds: 0, GapSeconds: 300},
			wantState:     protocol.StateActive,
			wantEffective: 300,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(testConfig(), tc.sample)
			if got.State != tc.wantState {
				t.Errorf("state = %s, want %s", got.State, tc.wantState)
			}
			if got.EffectiveDelta != tc.wantEffective {
				t.Errorf("effective = %d, want %d", got.EffectiveDelta, tc.wantEffective)
			}
			if got.PassiveDelta != tc.wantPassive {
				t.Errorf("passive = %d, want %d", got.PassiveDelta, tc.wantPassive)
			}
		})
	}
}

func TestClassify_SuspendedCarriesNoActiveTime(t *testing.T) {
	t.Parallel()

	got := Classify(testConfig(), protocol.RawSample{IdleSeconds: 2, GapSeconds: 10000})
	if got.State != protocol.StateSuspended {
		t.Fatalf("state = %s, want suspended", got.State)
	}
	if got.EffectiveDelta != 0 || got.PassiveDelta != 0 {
		t.Errorf("suspended interval must carry no active deltas, got eff=%d pass=%d",
			got.EffectiveDelta, got.PassiveDelta)
	}
}

func TestClassify_ResumeState(t *testing.T) {
	t.Parallel()

	// Awake with recent input: the fresh session after the gap is active.
	got := Classify(testConfig(), protocol.RawSample{IdleSeconds: 2, GapSeconds: 10000})
	if got.Resume != protocol.StateActive {
		t.Errorf("resume = %s, want active", got.Resume)
	}

	// Awake but already idle past the threshold: resumes straight into AFK.
	got = Classify(testConfig(), protocol.RawSample{IdleSeconds: 90, GapSeconds: 10000})
	if got.Resume != protocol.StateAfk {
		t.Errorf("resume = %s, want afk", got.Resume)
	}
}

func TestClassify_NegativeGapClamped(t *testing.T) {
	t.Parallel()

	got := Classify(testConfig(), protocol.RawSample{IdleSeconds: 0, GapSeconds: -5})
	if got.EffectiveDelta != 0 {
		t.Errorf("effective = %d, want 0 for clamped gap", got.EffectiveDelta)
	}
}
