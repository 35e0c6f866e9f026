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

type feedbackDoc struct {
	ID            model.FeedbackEventID `firestore:"ID"`
	MatchRecordID model.MatchRecordID   `firestore:"MatchRecordID"`
	Action        types.FeedbackAction  `firestore:"Action"`
	CreatedAt     time.Time             `firestore:"CreatedAt"`
}

type feedbackRepository struct {
	client *firestore.Client
}

func newFeedbackRepository(client *firestore.Client) *feedbackRepository {
	return &feedbackRepository{client: client}
}

func (r *feedbackRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionFeedback)
}

// Create appends a feedback event. Documents are keyed by match record id so
// Firestore itself enforces the write-once rule.
func (r *feedbackRepository) Create(ctx context.Context, event *model.FeedbackEvent) (*model.FeedbackEvent, error) {
	created := event.Clone()
	if created.ID == "" {
		created.ID = model.NewFeedbackEventID()
	}
	created.CreatedAt = time.Now().UTC()

	docRef := r.collection().Doc(created.MatchRecordID.String())
	if _, err := docRef.Create(ctx, &feedbackDoc{
		ID:            created.ID,
		MatchRecordID: created.MatchRecordID,
		Action:        created.Action,
		CreatedAt:     created.CreatedAt,
	}); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(repository.ErrFeedbackExists, "duplicate feedback",
				goerr.V("matchRecordID", created.MatchRecordID))
		}
		return nil, goerr.Wrap(err, "failed to create feedback event",
			goerr.V("matchRecordID", created.MatchRecordID))
	}

	return created, nil
}

func (r *feedbackRepository) GetByMatchRecord(ctx context.Context, matchRecordID model.MatchRecordID) (*model.FeedbackEvent, error) {
	doc, err := r.collection().Doc(matchRecordID.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(repository.ErrNotFound, "feedback event not found",
				goerr.V("matchRecordID", matchRecordID))
		}
		return nil, goerr.Wrap(err, "failed to get feedback event",
			goerr.V("matchRecordID", matchRecordID))
	}

	var d feedbackDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal feedback event",
			goerr.V("matchRecordID", matchRecordID))
	}

	return &model.FeedbackEvent{
		ID:            d.ID,
		MatchRecordID: d.MatchRecordID,
		Action:        d.Action,
		CreatedAt:     d.CreatedAt,
	}, nil
}
