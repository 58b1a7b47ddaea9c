// Package scheduler runs the periodic low-stock sweep that backstops the
// mutation-time sentinel: products whose thresholds were raised after their
// last stock change still get their warning.
package scheduler

import (
	"strconv"

	"inventory-service/internal/notification"
	"inventory-service/pkg/config"
	"inventory-service/prometheus"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Scheduler owns the cron runner for background jobs.
type Scheduler struct {
	cron *cron.Cron
	db   *gorm.DB
}

// New builds a scheduler with the low-stock sweep registered according to the
// configured cron spec. An empty spec disables the sweep.
func New(db *gorm.DB, cfg *config.Config) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		db:   db,
	}

	if spec := cfg.Scheduler.LowStockSweepSpec; spec != "" {
		if _, err := s.cron.AddFunc(spec, s.runLowStockSweep); err != nil {
			return nil, err
		}
		zap.L().Info("Low-stock sweep scheduled", zap.String("spec", spec))
	} else {
		zap.L().Info("Low-stock sweep disabled")
	}

	return s, nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron runner and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runLowStockSweep() {
	result, err := notification.SweepLowStock(s.db)
	if err != nil {
		zap.L().Error("Low-stock sweep failed", zap.Error(err))
		return
	}

	for userID, count := range result.LowByUser {
		prometheus.LowStockProductsGauge.
			WithLabelValues(strconv.FormatUint(uint64(userID), 10)).
			Set(float64(count))
	}

	zap.L().Info("Low-stock sweep finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("notifications_created", result.Created))
}
