package http

import (
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/service/embedding"
	"github.com/replykit/replykit/pkg/usecase"
	"github.com/replykit/replykit/pkg/utils/errutil"
)

type decideRequest struct {
	MessageID   string `json:"message_id"`
	MessageText string `json:"message_text"`
	Category    string `json:"category,omitempty"`
	// Embedding is optional; when absent the server embeds MessageText itself.
	Embedding []float32         `json:"embedding,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
}

type decideResponse struct {
	Action             string  `json:"action"`
	PatternID          string  `json:"pattern_id,omitempty"`
	SimilarityScore    float64 `json:"similarity_score,omitempty"`
	CombinedConfidence float64 `json:"combined_confidence,omitempty"`
	MatchRecordID      string  `json:"match_record_id"`
	Blocked            bool    `json:"blocked"`
	Escalate           bool    `json:"escalate"`
	Reason             string  `json:"reason,omitempty"`
	// ResponseText is populated for auto-execute and suggest decisions
	ResponseText string `json:"response_text,omitempty"`
}

func (s *Server) decideHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req decideRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.MessageID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("message_id is required"), http.StatusBadRequest)
		return
	}

	var category types.Category
	if req.Category != "" {
		parsed, err := types.ParseCategory(req.Category)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}
		category = parsed
	}

	emb := req.Embedding
	if len(emb) == 0 {
		if req.MessageText == "" {
			errutil.HandleHTTP(ctx, w, goerr.New("either embedding or message_text is required"), http.StatusBadRequest)
			return
		}
		computed, err := s.uc.EmbedMessage(ctx, req.MessageText)
		if err != nil {
			if errors.Is(err, embedding.ErrEmbeddingUnavailable) {
				errutil.HandleHTTP(ctx, w, err, http.StatusServiceUnavailable)
				return
			}
			handleError(w, r, err)
			return
		}
		emb = computed
	}

	decision, err := s.uc.Decide(ctx, usecase.DecideInput{
		MessageID:   req.MessageID,
		MessageText: req.MessageText,
		Embedding:   emb,
		Category:    category,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := decideResponse{
		Action:             decision.Action.String(),
		PatternID:          decision.PatternID.String(),
		SimilarityScore:    decision.SimilarityScore,
		CombinedConfidence: decision.CombinedConfidence,
		MatchRecordID:      decision.MatchRecordID.String(),
		Blocked:            decision.Verdict.Blocked,
		Escalate:           decision.Verdict.Escalate,
		Reason:             decision.Verdict.Reason,
	}

	if decision.Action == types.DecisionAutoExecute || decision.Action == types.DecisionSuggest {
		rendered, err := s.uc.RenderResponse(ctx, decision.PatternID, req.Variables)
		if err != nil {
			handleError(w, r, err)
			return
		}
		resp.ResponseText = rendered
	}

	respondJSON(w, r, http.StatusOK, resp)
}
