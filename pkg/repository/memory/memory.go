package memory

import (
	"github.com/replykit/replykit/pkg/domain/interfaces"
)

// Memory is the in-memory repository backend, used for development and tests
type Memory struct {
	pattern     *patternRepository
	matchRecord *matchRecordRepository
	feedback    *feedbackRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		pattern:     newPatternRepository(),
		matchRecord: newMatchRecordRepository(),
		feedback:    newFeedbackRepository(),
	}
}

func (m *Memory) Pattern() interfaces.PatternRepository {
	return m.pattern
}

func (m *Memory) MatchRecord() interfaces.MatchRecordRepository {
	return m.matchRecord
}

func (m *Memory) Feedback() interfaces.FeedbackRepository {
	return m.feedback
}

func (m *Memory) Close() error {
	return nil
}
