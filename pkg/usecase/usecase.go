package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/interfaces"
	"github.com/replykit/replykit/pkg/domain/model/config"
	"github.com/replykit/replykit/pkg/service/embedding"
	"github.com/replykit/replykit/pkg/service/render"
	"github.com/replykit/replykit/pkg/service/safety"
)

// UseCases wires the matching, decision, feedback and pattern-lifecycle
// operations over a shared repository.
type UseCases struct {
	repo     interfaces.Repository
	tuning   *config.Tuning
	gate     *safety.Gate
	embedder embedding.Service
	renderer render.Service
	notifier interfaces.Notifier
}

type Option func(*UseCases)

// WithTuning overrides the default tuning values
func WithTuning(t *config.Tuning) Option {
	return func(uc *UseCases) {
		uc.tuning = t
	}
}

// WithGate overrides the default safety gate
func WithGate(g *safety.Gate) Option {
	return func(uc *UseCases) {
		uc.gate = g
	}
}

// WithEmbedder enables server-side embedding and trigger expansion
func WithEmbedder(e embedding.Service) Option {
	return func(uc *UseCases) {
		uc.embedder = e
	}
}

// WithNotifier enables escalation and deactivation notifications
func WithNotifier(n interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:     repo,
		tuning:   config.Default(),
		gate:     safety.NewDefault(),
		renderer: render.New(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Tuning returns the active tuning values
func (uc *UseCases) Tuning() *config.Tuning {
	return uc.tuning
}

// EmbedMessage computes an embedding for an inbound message text. It fails
// when no embedding service is configured; callers may supply a precomputed
// embedding instead.
func (uc *UseCases) EmbedMessage(ctx context.Context, text string) ([]float32, error) {
	if uc.embedder == nil {
		return nil, goerr.New("no embedding service configured")
	}
	return uc.embedder.Embed(ctx, text)
}
