package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/interfaces"
)

const (
	collectionPatterns     = "patterns"
	collectionMatchRecords = "match_records"
	collectionFeedback     = "feedback_events"
)

// Firestore is the durable repository backend
type Firestore struct {
	client      *firestore.Client
	pattern     *patternRepository
	matchRecord *matchRecordRepository
	feedback    *feedbackRepository
}

var _ interfaces.Repository = &Firestore{}

func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	return &Firestore{
		client:      client,
		pattern:     newPatternRepository(client),
		matchRecord: newMatchRecordRepository(client),
		feedback:    newFeedbackRepository(client),
	}, nil
}

func (f *Firestore) Pattern() interfaces.PatternRepository {
	return f.pattern
}

func (f *Firestore) MatchRecord() interfaces.MatchRecordRepository {
	return f.matchRecord
}

func (f *Firestore) Feedback() interfaces.FeedbackRepository {
	return f.feedback
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
