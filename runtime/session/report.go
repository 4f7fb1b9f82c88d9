package session

import (
	"context"
	"errors"

	rerrors "github.com/AltairaLabs/rehearsal/pkg/errors"
	"github.com/AltairaLabs/rehearsal/runtime/logger"
	"github.com/AltairaLabs/rehearsal/runtime/report"
)

// GenerateReport disconnects, then asks the configured Reporter to analyze
// the transcript. An empty transcript yields nil, nil without a request.
// Any error means "no report"; it is always a report error.
func (s *Session) GenerateReport(ctx context.Context) (*report.Report, error) {
	s.Disconnect()

	req := &report.Request{
		Transcript: s.transcript.Snapshot(),
		Topic:      s.cfg.Topic,
		Script:     s.cfg.Script,
	}
	if req.Empty() {
		logger.InfoContext(ctx, "transcript empty, skipping report", "session_id", s.cfg.ID)
		return nil, nil
	}
	if s.cfg.Reporter == nil {
		return nil, rerrors.Report(component, "GenerateReport", ErrNoReporter)
	}

	ctx = logger.WithSessionID(ctx, s.cfg.ID)
	rep, err := s.cfg.Reporter.Generate(ctx, req)
	if err != nil {
		if !errors.Is(err, rerrors.ErrReport) {
			err = rerrors.Report(component, "GenerateReport", err)
		}
		logger.WarnContext(ctx, "report failed", "error", err)
		return nil, err
	}
	return rep, nil
}
