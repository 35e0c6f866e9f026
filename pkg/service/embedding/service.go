package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
	"golang.org/x/sync/errgroup"
)

// embedConcurrency bounds parallel embedding calls during batch authoring
const embedConcurrency = 4

// client implements Service interface
type client struct {
	llmClient gollem.LLMClient
	dimension int
}

// Option is a functional option for client configuration
type Option func(*client)

// WithDimension overrides the embedding dimension
func WithDimension(dim int) Option {
	return func(c *client) {
		c.dimension = dim
	}
}

// New creates a new embedding service with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient: llmClient,
		dimension: model.EmbeddingDimension,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.llmClient.GenerateEmbedding(ctx, c.dimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(ErrEmbeddingUnavailable, "failed to generate embedding", goerr.V("cause", err.Error()))
	}
	if len(embeddings) == 0 {
		return nil, goerr.Wrap(ErrEmbeddingUnavailable, "no embedding returned")
	}

	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}

	return result, nil
}

func (c *client) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(embedConcurrency)
	for i, text := range texts {
		eg.Go(func() error {
			v, err := c.Embed(ctx, text)
			if err != nil {
				return goerr.Wrap(err, "failed to embed text", goerr.V("index", i))
			}
			results[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// ExpandTriggers asks the LLM for additional phrasings a customer might use
// to express the same intent as the given examples.
func (c *client) ExpandTriggers(ctx context.Context, category types.Category, examples []string) ([]string, error) {
	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(expansionSchema()),
		gollem.WithSessionSystemPrompt(expansionSystemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(expansionUserPrompt(category, examples)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate trigger expansions")
	}

	var parsed struct {
		Variants []string `json:"variants"`
	}
	if err := json.Unmarshal([]byte(resp.Texts[0]), &parsed); err != nil {
		return nil, goerr.Wrap(err, "failed to parse trigger expansion response", goerr.V("response", resp.Texts[0]))
	}

	// Drop duplicates of the author-supplied examples
	seen := make(map[string]bool, len(examples))
	for _, e := range examples {
		seen[strings.ToLower(strings.TrimSpace(e))] = true
	}
	var variants []string
	for _, v := range parsed.Variants {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		variants = append(variants, strings.TrimSpace(v))
	}

	return variants, nil
}

const expansionSystemPrompt = "You are a customer-support assistant. Given example customer messages that share one intent, propose alternative phrasings a customer might realistically use for the same request.\n\n## Instructions:\n\n1. Keep the same intent; vary wording, formality, and length.\n2. Return 3 to 8 variants.\n3. Do not repeat the provided examples.\n4. Answer in the same language as the examples."

func expansionUserPrompt(category types.Category, examples []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Intent category: %s\n\n", category)
	sb.WriteString("## Example messages:\n\n")
	for _, e := range examples {
		fmt.Fprintf(&sb, "- %s\n", e)
	}

	return sb.String()
}

func expansionSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "TriggerExpansionResponse",
		Description: "Alternative customer phrasings for the same intent",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"variants": {
				Type:        gollem.TypeArray,
				Description: "Proposed alternative phrasings",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
			},
		},
	}
}
