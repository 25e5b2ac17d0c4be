package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"adops/contexts/sales-pipeline/trigger-engine/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/trigger-engine/domain/errors"
	"adops/internal/shared/tenant"
)

type executionKey struct {
	orgID      string
	triggerID  string
	entityType string
	entityID   string
	event      string
}

// Store is the in-memory implementation of the trigger-engine ports, used by
// tests and the dev profile.
type Store struct {
	mu         sync.RWMutex
	triggers   map[string]entities.Trigger
	executions []entities.Execution
	executed   map[executionKey]struct{}
	roles      map[string]map[string][]string
}

func NewStore() *Store {
	return &Store{
		triggers: make(map[string]entities.Trigger),
		executed: make(map[executionKey]struct{}),
		roles:    make(map[string]map[string][]string),
	}
}

func (s *Store) SaveTrigger(_ context.Context, tc tenant.Context, trigger entities.Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	trigger.OrgID = tc.OrgID
	s.triggers[trigger.TriggerID] = trigger
	return nil
}

func (s *Store) GetTrigger(_ context.Context, tc tenant.Context, triggerID string) (entities.Trigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trigger, exists := s.triggers[triggerID]
	if !exists || trigger.OrgID != tc.OrgID {
		return entities.Trigger{}, domainerrors.ErrTriggerNotFound
	}
	return trigger, nil
}

func (s *Store) ListTriggers(_ context.Context, tc tenant.Context) ([]entities.Trigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Trigger, 0)
	for _, trigger := range s.triggers {
		if trigger.OrgID == tc.OrgID {
			items = append(items, trigger)
		}
	}
	return items, nil
}

func (s *Store) ListEnabledByEvent(_ context.Context, tc tenant.Context, event string) ([]entities.Trigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Trigger, 0)
	for _, trigger := range s.triggers {
		if trigger.OrgID == tc.OrgID && trigger.Enabled && trigger.Event == event {
			items = append(items, trigger)
		}
	}
	return items, nil
}

func (s *Store) RecordExecution(_ context.Context, tc tenant.Context, triggerID string, executedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	trigger, exists := s.triggers[triggerID]
	if !exists || trigger.OrgID != tc.OrgID {
		return domainerrors.ErrTriggerNotFound
	}
	trigger.ExecutionCount++
	ts := executedAt.UTC()
	trigger.LastExecutedAt = &ts
	s.triggers[triggerID] = trigger
	return nil
}

func (s *Store) HasExecution(_ context.Context, tc tenant.Context, triggerID, entityType, entityID, event string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, seen := s.executed[executionKey{tc.OrgID, triggerID, entityType, entityID, event}]
	return seen, nil
}

func (s *Store) AppendExecution(_ context.Context, tc tenant.Context, execution entities.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := executionKey{tc.OrgID, execution.TriggerID, execution.EntityType, execution.EntityID, execution.Event}
	if _, seen := s.executed[key]; seen {
		return domainerrors.ErrExecutionExists
	}
	execution.OrgID = tc.OrgID
	s.executed[key] = struct{}{}
	s.executions = append(s.executions, execution)
	return nil
}

func (s *Store) ListExecutions(_ context.Context, tc tenant.Context, triggerID string) ([]entities.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Execution, 0)
	for _, execution := range s.executions {
		if execution.OrgID == tc.OrgID && (triggerID == "" || execution.TriggerID == triggerID) {
			items = append(items, execution)
		}
	}
	return items, nil
}

// SetRoleMembers is a test helper backing the Directory port.
func (s *Store) SetRoleMembers(orgID, role string, userIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byRole, exists := s.roles[orgID]
	if !exists {
		byRole = make(map[string][]string)
		s.roles[orgID] = byRole
	}
	byRole[role] = append([]string(nil), userIDs...)
}

func (s *Store) UsersByRole(_ context.Context, tc tenant.Context, role string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.roles[tc.OrgID][role]...), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
