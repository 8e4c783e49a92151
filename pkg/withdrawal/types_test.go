package withdrawal

import "testing"

func TestStatusConstants(t *testing.T) {
	if StatusPending == StatusFailed {
		t.Fatal("pending and failed statuses must be distinct")
	}
}
