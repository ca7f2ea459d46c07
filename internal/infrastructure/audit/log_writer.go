// Package audit holds AuditWriter implementations that do not need a database.
package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

// LogWriter writes audit events as structured log entries.
type LogWriter struct {
	log zerolog.Logger
}

func NewLogWriter(log zerolog.Logger) *LogWriter {
	return &LogWriter{log: log.With().Str("component", "audit").Logger()}
}

func (w *LogWriter) Write(_ context.Context, event domain.AuditEvent) error {
	w.log.Info().
		Str("login", event.Login).
		Str("action", string(event.Action)).
		Str("outcome", event.Outcome).
		Time("at", event.At).
		Msg("account event")
	return nil
}
