package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/repository"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type matchRecordDoc struct {
	ID                 model.MatchRecordID  `firestore:"ID"`
	MessageID          string               `firestore:"MessageID"`
	PatternID          model.PatternID      `firestore:"PatternID"`
	SimilarityScore    float64              `firestore:"SimilarityScore"`
	CombinedConfidence float64              `firestore:"CombinedConfidence"`
	Decision           types.DecisionAction `firestore:"Decision"`
	CreatedAt          time.Time            `firestore:"CreatedAt"`
}

func toMatchRecordDoc(r *model.MatchRecord) *matchRecordDoc {
	return &matchRecordDoc{
		ID:                 r.ID,
		MessageID:          r.MessageID,
		PatternID:          r.PatternID,
		SimilarityScore:    r.SimilarityScore,
		CombinedConfidence: r.CombinedConfidence,
		Decision:           r.Decision,
		CreatedAt:          r.CreatedAt,
	}
}

func fromMatchRecordDoc(d *matchRecordDoc) *model.MatchRecord {
	return &model.MatchRecord{
		ID:                 d.ID,
		MessageID:          d.MessageID,
		PatternID:          d.PatternID,
		SimilarityScore:    d.SimilarityScore,
		CombinedConfidence: d.CombinedConfidence,
		Decision:           d.Decision,
		CreatedAt:          d.CreatedAt,
	}
}

type matchRecordRepository struct {
	client *firestore.Client
}

func newMatchRecordRepository(client *firestore.Client) *matchRecordRepository {
	return &matchRecordRepository{client: client}
}

func (r *matchRecordRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionMatchRecords)
}

func (r *matchRecordRepository) Create(ctx context.Context, record *model.MatchRecord) (*model.MatchRecord, error) {
	created := record.Clone()
	if created.ID == "" {
		created.ID = model.NewMatchRecordID()
	}
	created.CreatedAt = time.Now().UTC()

	// Create (not Set) keeps the log append-only
	docRef := r.collection().Doc(created.ID.String())
	if _, err := docRef.Create(ctx, toMatchRecordDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create match record", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *matchRecordRepository) Get(ctx context.Context, id model.MatchRecordID) (*model.MatchRecord, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(repository.ErrNotFound, "match record not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get match record", goerr.V("id", id))
	}

	var d matchRecordDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal match record", goerr.V("id", id))
	}

	return fromMatchRecordDoc(&d), nil
}
