package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/campaign-workflow/domain/errors"
	"adops/contexts/sales-pipeline/campaign-workflow/ports"
	"adops/internal/shared/tenant"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing the campaign workflow ports.
// Intended for tests and local development wiring.
type Store struct {
	mu sync.RWMutex

	campaigns map[string]entities.Campaign
	approvals map[string]entities.Approval
	activity  []entities.ActivityLog
	settings  map[string]entities.PipelineSettings

	outbox []outboxRow
}

type outboxRow struct {
	ports.OutboxMessage
	PublishedAt *time.Time
}

func NewStore(seed []entities.Campaign) *Store {
	campaigns := make(map[string]entities.Campaign, len(seed))
	for _, item := range seed {
		campaigns[item.CampaignID] = item
	}
	return &Store{
		campaigns: campaigns,
		approvals: make(map[string]entities.Approval),
		activity:  make([]entities.ActivityLog, 0),
		settings:  make(map[string]entities.PipelineSettings),
	}
}

func (s *Store) CreateCampaign(_ context.Context, tc tenant.Context, campaign entities.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.campaigns[campaign.CampaignID]; exists {
		return domainerrors.ErrInvalidCampaignInput
	}
	campaign.OrgID = tc.OrgID
	s.campaigns[campaign.CampaignID] = campaign
	return nil
}

func (s *Store) UpdateCampaign(_ context.Context, tc tenant.Context, campaign entities.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.campaigns[campaign.CampaignID]
	if !exists || existing.OrgID != tc.OrgID {
		return domainerrors.ErrCampaignNotFound
	}
	s.campaigns[campaign.CampaignID] = campaign
	return nil
}

func (s *Store) GetCampaign(_ context.Context, tc tenant.Context, campaignID string) (entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.campaigns[strings.TrimSpace(campaignID)]
	if !exists || item.OrgID != tc.OrgID {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	return item, nil
}

func (s *Store) ListCampaigns(_ context.Context, tc tenant.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Campaign, 0, len(s.campaigns))
	for _, campaign := range s.campaigns {
		if campaign.OrgID != tc.OrgID {
			continue
		}
		if filter.Status != "" && campaign.Status != filter.Status {
			continue
		}
		if strings.TrimSpace(filter.AdvertiserID) != "" && campaign.AdvertiserID != strings.TrimSpace(filter.AdvertiserID) {
			continue
		}
		items = append(items, campaign)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CreateApproval(_ context.Context, tc tenant.Context, approval entities.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.approvals[approval.ApprovalID]; exists {
		return domainerrors.ErrApprovalPending
	}
	approval.OrgID = tc.OrgID
	s.approvals[approval.ApprovalID] = approval
	return nil
}

func (s *Store) UpdateApproval(_ context.Context, tc tenant.Context, approval entities.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.approvals[approval.ApprovalID]
	if !exists || existing.OrgID != tc.OrgID {
		return domainerrors.ErrApprovalNotFound
	}
	s.approvals[approval.ApprovalID] = approval
	return nil
}

func (s *Store) GetApproval(_ context.Context, tc tenant.Context, approvalID string) (entities.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.approvals[strings.TrimSpace(approvalID)]
	if !exists || item.OrgID != tc.OrgID {
		return entities.Approval{}, domainerrors.ErrApprovalNotFound
	}
	return item, nil
}

func (s *Store) AppendActivity(_ context.Context, _ tenant.Context, item entities.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activity = append(s.activity, item)
	return nil
}

// ActivityForCampaign is a test helper over the append-only log.
func (s *Store) ActivityForCampaign(campaignID string) []entities.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.ActivityLog, 0)
	for _, item := range s.activity {
		if item.CampaignID == campaignID {
			items = append(items, item)
		}
	}
	return items
}

func (s *Store) GetPipelineSettings(_ context.Context, tc tenant.Context) (entities.PipelineSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if settings, exists := s.settings[tc.OrgID]; exists {
		return settings, nil
	}
	return entities.PipelineSettings{
		OrgID:                tc.OrgID,
		ApprovalFallbackRung: entities.DefaultApprovalFallbackRung,
	}, nil
}

func (s *Store) PutPipelineSettings(settings entities.PipelineSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[settings.OrgID] = settings
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, outboxRow{
		OutboxMessage: ports.OutboxMessage{
			OutboxID:  uuid.NewString(),
			EventType: envelope.EventType,
			Payload:   payload,
			CreatedAt: envelope.OccurredAt,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0, limit)
	for _, row := range s.outbox {
		if row.PublishedAt != nil {
			continue
		}
		items = append(items, row.OutboxMessage)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].OutboxID == outboxID {
			at := publishedAt
			s.outbox[i].PublishedAt = &at
			return nil
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
