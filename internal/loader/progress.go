package loader

import (
	"time"

	"go.uber.org/zap"
)

// progressStep bounds log volume on very large imports: one line per
// 20-percentage-point boundary crossed.
const progressStep = 20

// progressTracker reports phase progress against the original raw log's line
// count, which each PreorgRecord carries as ReadLineCount.
type progressTracker struct {
	phase   string
	total   int64
	nextPct int
	rows    int64
	started time.Time
	logger  *zap.Logger
}

func newProgressTracker(phase string, totalLines int64, logger *zap.Logger) *progressTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &progressTracker{
		phase:   phase,
		total:   totalLines,
		nextPct: progressStep,
		started: time.Now(),
		logger:  logger,
	}
}

// observe records rows inserted for a record and logs each boundary crossed.
func (p *progressTracker) observe(readLineCount int64, rows int) {
	p.rows += int64(rows)
	if p.total <= 0 {
		return
	}

	pct := int(readLineCount * 100 / p.total)
	for p.nextPct <= 100 && pct >= p.nextPct {
		elapsed := time.Since(p.started)
		rate := float64(0)
		if secs := elapsed.Seconds(); secs > 0 {
			rate = float64(p.rows) / secs
		}
		p.logger.Info("phase progress",
			zap.String("phase", p.phase),
			zap.Int("percent", p.nextPct),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", p.rows),
			zap.Float64("rows_per_sec", rate),
		)
		p.nextPct += progressStep
	}
}
