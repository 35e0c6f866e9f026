package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/repository"
)

type feedbackRepository struct {
	mu sync.RWMutex
	// byMatchRecord enforces the write-once rule: one event per match record
	byMatchRecord map[model.MatchRecordID]*model.FeedbackEvent
}

func newFeedbackRepository() *feedbackRepository {
	return &feedbackRepository{
		byMatchRecord: make(map[model.MatchRecordID]*model.FeedbackEvent),
	}
}

func (r *feedbackRepository) Create(ctx context.Context, event *model.FeedbackEvent) (*model.FeedbackEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byMatchRecord[event.MatchRecordID]; exists {
		return nil, goerr.Wrap(repository.ErrFeedbackExists, "duplicate feedback",
			goerr.V("matchRecordID", event.MatchRecordID))
	}

	created := event.Clone()
	if created.ID == "" {
		created.ID = model.NewFeedbackEventID()
	}
	created.CreatedAt = time.Now().UTC()

	r.byMatchRecord[created.MatchRecordID] = created
	return created.Clone(), nil
}

func (r *feedbackRepository) GetByMatchRecord(ctx context.Context, matchRecordID model.MatchRecordID) (*model.FeedbackEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, exists := r.byMatchRecord[matchRecordID]
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "feedback event not found",
			goerr.V("matchRecordID", matchRecordID))
	}

	return event.Clone(), nil
}
