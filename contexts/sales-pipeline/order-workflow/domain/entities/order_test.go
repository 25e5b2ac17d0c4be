package entities

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderStatusDraft, OrderStatusPendingApproval, true},
		{OrderStatusDraft, OrderStatusCancelled, true},
		{OrderStatusDraft, OrderStatusApproved, false},
		{OrderStatusPendingApproval, OrderStatusApproved, true},
		{OrderStatusPendingApproval, OrderStatusDraft, true},
		{OrderStatusApproved, OrderStatusBooked, true},
		{OrderStatusApproved, OrderStatusConfirmed, false},
		{OrderStatusBooked, OrderStatusConfirmed, true},
		{OrderStatusConfirmed, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusDraft, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusConfirmed, OrderStatusCancelled} {
		if !IsTerminal(status) {
			t.Fatalf("%s should be terminal", status)
		}
	}
	for _, status := range []OrderStatus{OrderStatusDraft, OrderStatusPendingApproval, OrderStatusApproved, OrderStatusBooked} {
		if IsTerminal(status) {
			t.Fatalf("%s should not be terminal", status)
		}
	}
	if IsSupportedStatus("shipped") {
		t.Fatalf("unknown status should not be supported")
	}
}

func TestRolePermitted(t *testing.T) {
	if !RolePermitted(OrderStatusBooked, "sales") {
		t.Fatalf("sales can book")
	}
	if RolePermitted(OrderStatusApproved, "sales") {
		t.Fatalf("approval is admin only")
	}
	if !RolePermitted(OrderStatusApproved, " Admin ") {
		t.Fatalf("role check should normalize case and whitespace")
	}
	if RolePermitted(OrderStatusCancelled, "viewer") {
		t.Fatalf("viewer cannot cancel")
	}
}

func TestSlotConsistent(t *testing.T) {
	ok := SlotCounter{Total: 5, Available: 2, Reserved: 1, Booked: 2}
	if !ok.Consistent() {
		t.Fatalf("balanced counters should be consistent")
	}
	bad := SlotCounter{Total: 5, Available: 3, Reserved: 1, Booked: 2}
	if bad.Consistent() {
		t.Fatalf("counters exceeding total should be inconsistent")
	}
	negative := SlotCounter{Total: 1, Available: -1, Reserved: 1, Booked: 1}
	if negative.Consistent() {
		t.Fatalf("negative counters should be inconsistent")
	}
}
