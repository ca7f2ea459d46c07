package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// gormZerolog routes GORM's logging into the service logger. Statement text
// is only logged at debug level; failures and slow queries always are.
type gormZerolog struct {
	log           zerolog.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(log zerolog.Logger) logger.Interface {
	level := logger.Warn
	if log.GetLevel() <= zerolog.DebugLevel {
		level = logger.Info
	}
	return &gormZerolog{
		log:           log.With().Str("component", "gorm").Logger(),
		level:         level,
		slowThreshold: defaultSlowThreshold,
	}
}

func (l *gormZerolog) LogMode(level logger.LogLevel) logger.Interface {
	cloned := *l
	cloned.level = level
	return &cloned
}

func (l *gormZerolog) Info(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		l.log.Info().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *gormZerolog) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		l.log.Warn().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *gormZerolog) Error(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		l.log.Error().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *gormZerolog) Trace(_ context.Context, begin time.Time, sqlAndRows func() (string, int64), err error) {
	if l.level == logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := sqlAndRows()
		l.log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query failed")
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		sql, rows := sqlAndRows()
		l.log.Warn().Dur("elapsed", elapsed).Dur("threshold", l.slowThreshold).Int64("rows", rows).Str("sql", sql).Msg("slow query")
	case l.level >= logger.Info:
		sql, rows := sqlAndRows()
		l.log.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query")
	}
}
