package entities

import "testing"

func TestSnapToRung(t *testing.T) {
	cases := []struct {
		name  string
		input int
		want  int
	}{
		{"below floor clamps to draft", -40, RungDraft},
		{"zero clamps to draft", 0, RungDraft},
		{"exact rung stays", RungQualified, RungQualified},
		{"between rungs snaps nearest", 60, RungProposal},
		{"tie breaks toward lower rung", 50, RungQualified},
		{"near verbal snaps up", 87, RungVerbal},
		{"above ceiling clamps to signed", 120, RungSigned},
		{"add past ceiling clamps", RungVerbal + 30, RungSigned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SnapToRung(tc.input); got != tc.want {
				t.Fatalf("SnapToRung(%d) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestRungStatusRoundTrip(t *testing.T) {
	for _, rung := range Rungs {
		status, ok := RungForProbability(rung)
		if !ok {
			t.Fatalf("rung %d has no status", rung)
		}
		back, ok := ProbabilityForStatus(status)
		if !ok || back != rung {
			t.Fatalf("status %s maps back to %d, want %d", status, back, rung)
		}
	}
	if _, ok := RungForProbability(50); ok {
		t.Fatalf("50 is not a rung")
	}
	if _, ok := ProbabilityForStatus(CampaignStatusPendingApproval); ok {
		t.Fatalf("side states are outside the ladder")
	}
}

func TestFallbackRung(t *testing.T) {
	if got := (PipelineSettings{}).FallbackRung(); got != DefaultApprovalFallbackRung {
		t.Fatalf("default fallback = %d, want %d", got, DefaultApprovalFallbackRung)
	}
	if got := (PipelineSettings{ApprovalFallbackRung: RungQualified}).FallbackRung(); got != RungQualified {
		t.Fatalf("configured fallback = %d, want %d", got, RungQualified)
	}
	if got := (PipelineSettings{ApprovalFallbackRung: 42}).FallbackRung(); got != DefaultApprovalFallbackRung {
		t.Fatalf("invalid fallback = %d, want default %d", got, DefaultApprovalFallbackRung)
	}
}

func TestValidateBasics(t *testing.T) {
	valid := Campaign{Name: "Q3 Push", AdvertiserID: "adv-1", Budget: 1000}
	if !valid.ValidateBasics() {
		t.Fatalf("expected valid campaign")
	}
	if (Campaign{AdvertiserID: "adv-1"}).ValidateBasics() {
		t.Fatalf("empty name should fail")
	}
	if (Campaign{Name: "x", AdvertiserID: "adv-1", Budget: -1}).ValidateBasics() {
		t.Fatalf("negative budget should fail")
	}
}
