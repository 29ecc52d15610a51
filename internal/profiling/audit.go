package profiling

import (
	"fmt"

	"go.uber.org/zap"
)

// AuditLogger is an optional structured sidecar to the CSV/JSON profile:
// where those are columnar summaries meant for spreadsheets, the audit
// log is one structured zap entry per session, meant for grepping
// alongside the rest of a deployment's log aggregation rather than for
// offline analysis.
type AuditLogger struct {
	z *zap.Logger
}

// NewAuditLogger builds a zap logger writing JSON lines to path.
func NewAuditLogger(path string) (*AuditLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("profiling: build audit logger: %w", err)
	}
	return &AuditLogger{z: z}, nil
}

func (a *AuditLogger) RecordSession(s SessionStats) {
	a.z.Info("session_profile",
		zap.String("session_id", s.SessionID),
		zap.Duration("total_time", s.TotalTime),
		zap.Int("tokens_generated", s.TokensGenerated),
		zap.Float64("throughput", s.throughput()),
		zap.Float64("avg_token_time", s.avgTokenTime()),
		zap.Float64("token_match_rate", s.TokenMatchRate),
	)
}

func (a *AuditLogger) Close() error {
	return a.z.Sync()
}
