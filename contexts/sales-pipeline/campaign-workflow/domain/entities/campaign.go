package entities

import (
	"strings"
	"time"
)

type CampaignStatus string

const (
	// Pipeline rungs. Status and probability move together, always through
	// RungForProbability.
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusQualified CampaignStatus = "qualified"
	CampaignStatusProposal  CampaignStatus = "proposal"
	CampaignStatusVerbal    CampaignStatus = "verbal"
	CampaignStatusSigned    CampaignStatus = "signed"

	// Side states outside the probability ladder.
	CampaignStatusPendingApproval CampaignStatus = "pending_approval"
	CampaignStatusApproved        CampaignStatus = "approved"
	CampaignStatusActive          CampaignStatus = "active"
	CampaignStatusBooked          CampaignStatus = "booked"
	CampaignStatusLost            CampaignStatus = "lost"
)

const (
	RungDraft     = 10
	RungQualified = 35
	RungProposal  = 65
	RungVerbal    = 90
	RungSigned    = 100

	DefaultApprovalFallbackRung = RungProposal
)

// Rungs lists the five pipeline probabilities in ascending order.
var Rungs = []int{RungDraft, RungQualified, RungProposal, RungVerbal, RungSigned}

type Campaign struct {
	CampaignID    string
	OrgID         string
	Name          string
	Status        CampaignStatus
	Probability   int
	Budget        float64
	AdvertiserID  string
	AgencyID      string
	ReservationID string
	ApprovalID    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

type Approval struct {
	ApprovalID    string
	OrgID         string
	CampaignID    string
	RequiredRoles []string
	Status        ApprovalStatus
	Reason        string
	RequestedBy   string
	ResolvedBy    string
	CreatedAt     time.Time
	ResolvedAt    *time.Time
}

// ActivityLog rows are append-only audit records, one per pipeline mutation.
type ActivityLog struct {
	ActivityID  string
	OrgID       string
	CampaignID  string
	Kind        string
	FromStatus  CampaignStatus
	ToStatus    CampaignStatus
	Probability int
	ActorID     string
	Note        string
	CreatedAt   time.Time
}

// PipelineSettings is per-tenant workflow configuration.
type PipelineSettings struct {
	OrgID                string
	ApprovalFallbackRung int
}

func (s PipelineSettings) FallbackRung() int {
	if IsRung(s.ApprovalFallbackRung) {
		return s.ApprovalFallbackRung
	}
	return DefaultApprovalFallbackRung
}

func IsRung(probability int) bool {
	for _, rung := range Rungs {
		if probability == rung {
			return true
		}
	}
	return false
}

// RungForProbability maps a rung value to its pipeline status.
func RungForProbability(probability int) (CampaignStatus, bool) {
	switch probability {
	case RungDraft:
		return CampaignStatusDraft, true
	case RungQualified:
		return CampaignStatusQualified, true
	case RungProposal:
		return CampaignStatusProposal, true
	case RungVerbal:
		return CampaignStatusVerbal, true
	case RungSigned:
		return CampaignStatusSigned, true
	default:
		return "", false
	}
}

// ProbabilityForStatus is the inverse of RungForProbability.
func ProbabilityForStatus(status CampaignStatus) (int, bool) {
	for _, rung := range Rungs {
		if mapped, ok := RungForProbability(rung); ok && mapped == status {
			return rung, true
		}
	}
	return 0, false
}

// SnapToRung clamps a computed probability into [0,100] and snaps it to the
// nearest rung, breaking ties toward the lower rung. Arithmetic actions go
// through this so the rung invariant survives arbitrary deltas.
func SnapToRung(probability int) int {
	if probability <= Rungs[0] {
		return Rungs[0]
	}
	if probability >= Rungs[len(Rungs)-1] {
		return Rungs[len(Rungs)-1]
	}
	nearest := Rungs[0]
	for _, rung := range Rungs {
		dn := abs(probability - nearest)
		dr := abs(probability - rung)
		if dr < dn {
			nearest = rung
		}
	}
	return nearest
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (c Campaign) IsOnRung() bool {
	status, ok := RungForProbability(c.Probability)
	return ok && status == c.Status
}

func (c Campaign) IsTerminal() bool {
	return c.Status == CampaignStatusLost
}

func (c Campaign) ValidateBasics() bool {
	name := strings.TrimSpace(c.Name)
	return name != "" &&
		len(name) <= 200 &&
		strings.TrimSpace(c.AdvertiserID) != "" &&
		c.Budget >= 0
}
