package domain

import "testing"

func TestMovementTransitions(t *testing.T) {
	cases := []struct {
		from, to MovementStatus
		want     bool
	}{
		{MovementStatusUnmatched, MovementStatusProposed, true},
		{MovementStatusUnmatched, MovementStatusAllocated, true},
		{MovementStatusUnmatched, MovementStatusRejected, true},
		{MovementStatusUnmatched, MovementStatusPosted, false},
		{MovementStatusProposed, MovementStatusAllocated, true},
		{MovementStatusProposed, MovementStatusPosted, false},
		{MovementStatusAllocated, MovementStatusPosted, true},
		// A failed post re-enters Allocated.
		{MovementStatusAllocated, MovementStatusAllocated, true},
		{MovementStatusPosted, MovementStatusAllocated, false},
		{MovementStatusRejected, MovementStatusProposed, false},
	}
	for _, tc := range cases {
		m := BankMovement{Status: tc.from}
		if got := m.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
