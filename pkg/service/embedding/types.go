package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/types"
)

// ErrEmbeddingUnavailable indicates the external embedding dependency is
// down. It is propagated to the caller, who decides on a keyword fallback or
// deferred processing.
var ErrEmbeddingUnavailable = goerr.New("embedding service unavailable")

// Service generates embeddings and proposes additional trigger phrasings.
// Trigger expansion is used only at pattern-authoring time, never on the hot
// matching path.
type Service interface {
	// Embed generates an embedding vector for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedAll generates embedding vectors for each text
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)

	// ExpandTriggers proposes additional trigger examples for a draft pattern
	ExpandTriggers(ctx context.Context, category types.Category, examples []string) ([]string, error)
}
