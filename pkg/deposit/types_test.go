package deposit

import "testing"

func TestCanTransitionForwardOnly(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPendingTreeInclusion, StatusPendingProofGeneration, true},
		{StatusPendingProofGeneration, StatusReadyForRelay, true},
		{StatusReadyForRelay, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusReadyForRelay, false},
		{StatusCompleted, StatusPendingTreeInclusion, false},
		{StatusPendingProofGeneration, StatusPendingTreeInclusion, false},
		{StatusCompleted, StatusCompleted, false},
		{StatusFailed, StatusCompleted, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
