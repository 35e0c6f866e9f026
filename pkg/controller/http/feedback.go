package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/utils/errutil"
)

type feedbackRequest struct {
	MatchRecordID string `json:"match_record_id"`
	Action        string `json:"action"`
}

type feedbackResponse struct {
	Pattern patternResponse `json:"pattern"`
}

func (s *Server) feedbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.MatchRecordID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("match_record_id is required"), http.StatusBadRequest)
		return
	}

	action, err := types.ParseFeedbackAction(req.Action)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	pattern, err := s.uc.RecordFeedback(ctx, model.MatchRecordID(req.MatchRecordID), action)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, feedbackResponse{Pattern: toPatternResponse(pattern)})
}
