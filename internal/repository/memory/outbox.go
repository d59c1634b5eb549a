package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/physiodoc/physiodoc-api/internal/model"
	"github.com/physiodoc/physiodoc-api/internal/repository"
	apperrors "github.com/physiodoc/physiodoc-api/pkg/errors"
)

type outboxRepository struct {
	mu     sync.RWMutex
	events map[uuid.UUID]model.OutboxEvent
}

func NewOutboxRepository() repository.OutboxRepository {
	return &outboxRepository{events: make(map[uuid.UUID]model.OutboxEvent)}
}

func (r *outboxRepository) Create(_ context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	event.ID = uuid.New()
	event.Status = model.OutboxStatusPending
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	r.events[event.ID] = *event
	return nil
}

func (r *outboxRepository) GetPendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []*model.OutboxEvent
	for _, event := range r.events {
		if event.Status != model.OutboxStatusPending {
			continue
		}
		e := event
		pending = append(pending, &e)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *outboxRepository) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, errMessage *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[id]
	if !ok {
		return apperrors.NotFound("outbox event", nil)
	}
	event.Status = status
	event.ErrorMessage = errMessage
	if status == model.OutboxStatusFailed {
		event.RetryCount++
	}
	event.UpdatedAt = time.Now()
	r.events[id] = event
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, event := range r.events {
		if event.Status == model.OutboxStatusProcessed && event.UpdatedAt.Before(before) {
			delete(r.events, id)
			deleted++
		}
	}
	return deleted, nil
}
