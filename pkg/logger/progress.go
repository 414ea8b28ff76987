package logger

import (
	"sync"
	"time"
)

// ProgressTracker tracks progress of long-running operations such as
// processing a batch of statement documents.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int64
	current     int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.Mutex
}

// ProgressConfig configures progress tracking behavior
type ProgressConfig struct {
	Operation   string        `json:"operation"`
	Total       int64         `json:"total"`
	LogInterval time.Duration `json:"log_interval"`
	Logger      Logger        `json:"-"`
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(config ProgressConfig) *ProgressTracker {
	if config.Logger == nil {
		config.Logger = GetGlobalLogger()
	}
	if config.LogInterval == 0 {
		config.LogInterval = 5 * time.Second
	}

	tracker := &ProgressTracker{
		logger:      config.Logger.WithComponent("progress"),
		operation:   config.Operation,
		total:       config.Total,
		startTime:   time.Now(),
		lastLogTime: time.Now(),
		logInterval: config.LogInterval,
	}

	tracker.logger.WithFields(Fields{
		"operation": config.Operation,
		"total":     config.Total,
	}).Info("Starting operation")

	return tracker
}

// Increment advances the progress counter by one and logs at the
// configured interval.
func (p *ProgressTracker) Increment() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current++
	now := time.Now()
	if now.Sub(p.lastLogTime) < p.logInterval && p.current < p.total {
		return
	}
	p.lastLogTime = now

	fields := Fields{
		"operation": p.operation,
		"current":   p.current,
		"total":     p.total,
		"elapsed":   now.Sub(p.startTime).Round(time.Millisecond).String(),
	}
	if p.total > 0 {
		fields["percent"] = float64(p.current) / float64(p.total) * 100
	}
	p.logger.WithFields(fields).Info("Progress")
}

// Done logs completion of the tracked operation.
func (p *ProgressTracker) Done() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.logger.WithFields(Fields{
		"operation": p.operation,
		"processed": p.current,
		"elapsed":   time.Since(p.startTime).Round(time.Millisecond).String(),
	}).Info("Operation complete")
}
