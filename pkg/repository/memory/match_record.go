package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/repository"
)

type matchRecordRepository struct {
	mu      sync.RWMutex
	records map[model.MatchRecordID]*model.MatchRecord
}

func newMatchRecordRepository() *matchRecordRepository {
	return &matchRecordRepository{
		records: make(map[model.MatchRecordID]*model.MatchRecord),
	}
}

func (r *matchRecordRepository) Create(ctx context.Context, record *model.MatchRecord) (*model.MatchRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := record.Clone()
	if created.ID == "" {
		created.ID = model.NewMatchRecordID()
	}
	created.CreatedAt = time.Now().UTC()

	if _, exists := r.records[created.ID]; exists {
		return nil, goerr.New("match record already exists", goerr.V("id", created.ID))
	}

	r.records[created.ID] = created
	return created.Clone(), nil
}

func (r *matchRecordRepository) Get(ctx context.Context, id model.MatchRecordID) (*model.MatchRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[id]
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "match record not found", goerr.V("id", id))
	}

	return record.Clone(), nil
}
