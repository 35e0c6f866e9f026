package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/repository"
	"github.com/replykit/replykit/pkg/utils/logging"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// patternDoc is the Firestore document representation of model.Pattern.
// Embedding is stored as firestore.Vector32 so vector indexes apply.
type patternDoc struct {
	ID                     model.PatternID    `firestore:"ID"`
	Category               types.Category     `firestore:"Category"`
	TriggerExamples        []string           `firestore:"TriggerExamples"`
	Embedding              firestore.Vector32 `firestore:"Embedding,omitempty"`
	ResponseTemplate       string             `firestore:"ResponseTemplate"`
	ConfidenceScore        float64            `firestore:"ConfidenceScore"`
	AutoExecuteEligible    bool               `firestore:"AutoExecuteEligible"`
	AutoExecuteEnabled     bool               `firestore:"AutoExecuteEnabled"`
	UsageCount             int                `firestore:"UsageCount"`
	SuccessCount           int                `firestore:"SuccessCount"`
	EditCount              int                `firestore:"EditCount"`
	RejectCount            int                `firestore:"RejectCount"`
	Active                 bool               `firestore:"Active"`
	CreatedAt              time.Time          `firestore:"CreatedAt"`
	UpdatedAt              time.Time          `firestore:"UpdatedAt"`
	LastUsedAt             time.Time          `firestore:"LastUsedAt"`
	LastConfidenceUpdateAt time.Time          `firestore:"LastConfidenceUpdateAt"`
}

func toPatternDoc(p *model.Pattern) *patternDoc {
	doc := &patternDoc{
		ID:                     p.ID,
		Category:               p.Category,
		TriggerExamples:        p.TriggerExamples,
		ResponseTemplate:       p.ResponseTemplate,
		ConfidenceScore:        p.ConfidenceScore,
		AutoExecuteEligible:    p.AutoExecuteEligible,
		AutoExecuteEnabled:     p.AutoExecuteEnabled,
		UsageCount:             p.UsageCount,
		SuccessCount:           p.SuccessCount,
		EditCount:              p.EditCount,
		RejectCount:            p.RejectCount,
		Active:                 p.Active,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
		LastUsedAt:             p.LastUsedAt,
		LastConfidenceUpdateAt: p.LastConfidenceUpdateAt,
	}
	if len(p.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(p.Embedding)
	}
	return doc
}

func fromPatternDoc(d *patternDoc) *model.Pattern {
	p := &model.Pattern{
		ID:                     d.ID,
		Category:               d.Category,
		TriggerExamples:        d.TriggerExamples,
		ResponseTemplate:       d.ResponseTemplate,
		ConfidenceScore:        d.ConfidenceScore,
		AutoExecuteEligible:    d.AutoExecuteEligible,
		AutoExecuteEnabled:     d.AutoExecuteEnabled,
		UsageCount:             d.UsageCount,
		SuccessCount:           d.SuccessCount,
		EditCount:              d.EditCount,
		RejectCount:            d.RejectCount,
		Active:                 d.Active,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
		LastUsedAt:             d.LastUsedAt,
		LastConfidenceUpdateAt: d.LastConfidenceUpdateAt,
	}
	if len(d.Embedding) > 0 {
		p.Embedding = []float32(d.Embedding)
	}
	return p
}

func docToPattern(doc *firestore.DocumentSnapshot) (*model.Pattern, error) {
	var d patternDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromPatternDoc(&d), nil
}

type patternRepository struct {
	client *firestore.Client
}

func newPatternRepository(client *firestore.Client) *patternRepository {
	return &patternRepository{client: client}
}

func (r *patternRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionPatterns)
}

// sanitize clamps an out-of-bounds confidence score found on read and flags
// the pattern inactive pending manual audit.
func (r *patternRepository) sanitize(ctx context.Context, p *model.Pattern) *model.Pattern {
	if p.ClampConfidence() {
		p.Active = false
		logging.From(ctx).Error("pattern confidence out of bounds, clamped and deactivated",
			"patternID", p.ID,
			"clampedConfidence", p.ConfidenceScore,
		)
		// Best effort persistence of the repair; the read result is already safe
		if _, err := r.collection().Doc(p.ID.String()).Update(ctx, []firestore.Update{
			{Path: "ConfidenceScore", Value: p.ConfidenceScore},
			{Path: "Active", Value: false},
			{Path: "UpdatedAt", Value: time.Now().UTC()},
		}); err != nil {
			logging.From(ctx).Error("failed to persist clamped pattern", "patternID", p.ID, "error", err.Error())
		}
	}
	return p
}

func (r *patternRepository) Insert(ctx context.Context, pattern *model.Pattern) (*model.Pattern, error) {
	now := time.Now().UTC()
	created := pattern.Clone()
	if created.ID == "" {
		created.ID = model.NewPatternID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	docRef := r.collection().Doc(created.ID.String())
	if _, err := docRef.Create(ctx, toPatternDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create pattern", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *patternRepository) Get(ctx context.Context, id model.PatternID) (*model.Pattern, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(repository.ErrNotFound, "pattern not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get pattern", goerr.V("id", id))
	}

	p, err := docToPattern(doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal pattern", goerr.V("id", id))
	}

	return r.sanitize(ctx, p), nil
}

func (r *patternRepository) ListActive(ctx context.Context, category types.Category) ([]*model.Pattern, error) {
	query := r.collection().Where("Active", "==", true)
	if category != "" {
		query = query.Where("Category", "==", category.String())
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	patterns := make([]*model.Pattern, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate patterns")
		}

		p, err := docToPattern(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal pattern", goerr.V("docID", doc.Ref.ID))
		}
		p = r.sanitize(ctx, p)
		if !p.Active {
			continue
		}
		patterns = append(patterns, p)
	}

	return patterns, nil
}

func (r *patternRepository) List(ctx context.Context, filter model.PatternFilter) ([]*model.Pattern, error) {
	query := r.collection().Query
	if filter.ActiveOnly {
		query = query.Where("Active", "==", true)
	}
	if filter.Category != "" {
		query = query.Where("Category", "==", filter.Category.String())
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	patterns := make([]*model.Pattern, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate patterns")
		}

		p, err := docToPattern(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal pattern", goerr.V("docID", doc.Ref.ID))
		}
		patterns = append(patterns, r.sanitize(ctx, p))
	}

	return patterns, nil
}

// ApplyOutcome serializes the read-modify-write through a Firestore
// transaction; contention on the same document retries, so concurrent
// feedback on one pattern cannot lose updates.
func (r *patternRepository) ApplyOutcome(ctx context.Context, id model.PatternID, mutate func(p *model.Pattern) error) (*model.Pattern, error) {
	docRef := r.collection().Doc(id.String())

	var updated *model.Pattern
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(repository.ErrNotFound, "pattern not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get pattern in transaction", goerr.V("id", id))
		}

		p, err := docToPattern(doc)
		if err != nil {
			return goerr.Wrap(err, "failed to unmarshal pattern", goerr.V("id", id))
		}
		if !p.Active {
			return goerr.Wrap(repository.ErrPatternInactive, "cannot apply outcome to inactive pattern", goerr.V("id", id))
		}

		// Same policy as the read paths: a corrupt stored confidence is
		// clamped and the pattern flagged inactive pending manual audit. The
		// transaction write persists the repair.
		if p.ClampConfidence() {
			p.Active = false
			logging.From(ctx).Error("pattern confidence out of bounds, clamped and deactivated",
				"patternID", p.ID,
				"clampedConfidence", p.ConfidenceScore,
			)
		}
		if err := mutate(p); err != nil {
			return err
		}
		p.ClampConfidence()
		p.UpdatedAt = time.Now().UTC()

		updated = p
		return tx.Set(docRef, toPatternDoc(p))
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *patternRepository) Deactivate(ctx context.Context, id model.PatternID) (*model.Pattern, error) {
	docRef := r.collection().Doc(id.String())

	var updated *model.Pattern
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(repository.ErrNotFound, "pattern not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get pattern in transaction", goerr.V("id", id))
		}

		p, err := docToPattern(doc)
		if err != nil {
			return goerr.Wrap(err, "failed to unmarshal pattern", goerr.V("id", id))
		}

		p.Active = false
		p.UpdatedAt = time.Now().UTC()

		updated = p
		return tx.Set(docRef, toPatternDoc(p))
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *patternRepository) SetAutoExecute(ctx context.Context, id model.PatternID, enabled bool) (*model.Pattern, error) {
	docRef := r.collection().Doc(id.String())

	var updated *model.Pattern
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(repository.ErrNotFound, "pattern not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get pattern in transaction", goerr.V("id", id))
		}

		p, err := docToPattern(doc)
		if err != nil {
			return goerr.Wrap(err, "failed to unmarshal pattern", goerr.V("id", id))
		}

		p.AutoExecuteEnabled = enabled
		p.UpdatedAt = time.Now().UTC()

		updated = p
		return tx.Set(docRef, toPatternDoc(p))
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *patternRepository) Merge(ctx context.Context, sourceID, targetID model.PatternID, mergedEmbedding []float32, finalize func(p *model.Pattern) error) (*model.Pattern, error) {
	if sourceID == targetID {
		return nil, goerr.New("cannot merge a pattern into itself", goerr.V("id", sourceID))
	}

	sourceRef := r.collection().Doc(sourceID.String())
	targetRef := r.collection().Doc(targetID.String())

	var merged *model.Pattern
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		sourceDoc, err := tx.Get(sourceRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(repository.ErrNotFound, "merge source not found", goerr.V("id", sourceID))
			}
			return goerr.Wrap(err, "failed to get merge source", goerr.V("id", sourceID))
		}
		targetDoc, err := tx.Get(targetRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(repository.ErrNotFound, "merge target not found", goerr.V("id", targetID))
			}
			return goerr.Wrap(err, "failed to get merge target", goerr.V("id", targetID))
		}

		source, err := docToPattern(sourceDoc)
		if err != nil {
			return goerr.Wrap(err, "failed to unmarshal merge source", goerr.V("id", sourceID))
		}
		target, err := docToPattern(targetDoc)
		if err != nil {
			return goerr.Wrap(err, "failed to unmarshal merge target", goerr.V("id", targetID))
		}

		now := time.Now().UTC()

		target.TriggerExamples = appendUniqueStrings(target.TriggerExamples, source.TriggerExamples)
		target.UsageCount += source.UsageCount
		target.SuccessCount += source.SuccessCount
		target.EditCount += source.EditCount
		target.RejectCount += source.RejectCount
		if len(mergedEmbedding) > 0 {
			target.Embedding = make([]float32, len(mergedEmbedding))
			copy(target.Embedding, mergedEmbedding)
		}
		target.UpdatedAt = now

		if finalize != nil {
			if err := finalize(target); err != nil {
				return goerr.Wrap(err, "merge finalize failed", goerr.V("targetID", targetID))
			}
		}

		source.Active = false
		source.UpdatedAt = now

		if err := tx.Set(targetRef, toPatternDoc(target)); err != nil {
			return goerr.Wrap(err, "failed to write merge target", goerr.V("id", targetID))
		}
		if err := tx.Set(sourceRef, toPatternDoc(source)); err != nil {
			return goerr.Wrap(err, "failed to write merge source", goerr.V("id", sourceID))
		}

		merged = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	return merged, nil
}

func appendUniqueStrings(dst []string, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if !seen[s] {
			dst = append(dst, s)
			seen[s] = true
		}
	}
	return dst
}
