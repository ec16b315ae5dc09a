package service

import (
	"go.uber.org/zap"

	"github.com/noah-isme/pledge-points-api/internal/models"
)

// Store names reported with storage recovery events.
const (
	StoreLedger     = "ledger"
	StorePending    = "pending"
	StoreInterviews = "interviews"
)

// RecoveryObserver receives a StorageRecoveredEmpty event whenever a flat file existed but
// could not be read and an empty table was used in its place.
type RecoveryObserver interface {
	StorageRecoveredEmpty(store, path string, cause error)
}

// RecoveryObserverFunc adapts a function to RecoveryObserver.
type RecoveryObserverFunc func(store, path string, cause error)

// StorageRecoveredEmpty implements RecoveryObserver.
func (f RecoveryObserverFunc) StorageRecoveredEmpty(store, path string, cause error) {
	f(store, path, cause)
}

type storageMonitor struct {
	logger   *zap.Logger
	metrics  *MetricsService
	observer RecoveryObserver
}

func (m storageMonitor) loaded(store, path string, status models.LoadStatus, cause error, skipped []error) {
	if len(skipped) > 0 {
		m.logger.Warn("skipped undecodable rows", zap.String("store", store), zap.String("path", path),
			zap.Int("count", len(skipped)), zap.Errors("rows", skipped))
		m.metrics.RecordSkippedRows(store, len(skipped))
	}
	switch status {
	case models.LoadCreated:
		m.logger.Info("storage file created", zap.String("store", store), zap.String("path", path))
	case models.LoadRecoveredEmpty:
		m.logger.Warn("StorageRecoveredEmpty", zap.String("store", store), zap.String("path", path), zap.Error(cause))
		m.metrics.RecordStorageRecovered(store)
		if m.observer != nil {
			m.observer.StorageRecoveredEmpty(store, path, cause)
		}
	}
}
