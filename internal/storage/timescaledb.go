package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/telcosense/cmlrain/internal/log"
)

// RunRecord is the runs table row in TimescaleDB.
type RunRecord struct {
	ID        string    `gorm:"primaryKey;column:id"`
	StartedAt time.Time `gorm:"column:started_at;not null"`
}

// TableName specifies the table name for RunRecord
func (RunRecord) TableName() string {
	return "runs"
}

// WindowResultRecord is the window_results table row in TimescaleDB.
type WindowResultRecord struct {
	RunID        string    `gorm:"primaryKey;column:run_id"`
	LinkName     string    `gorm:"primaryKey;column:link_name"`
	WindowIndex  int       `gorm:"primaryKey;column:window_index"`
	StartTime    time.Time `gorm:"column:start_time;not null"`
	MeanProb     float64   `gorm:"column:mean_prob"`
	MaxProb      float64   `gorm:"column:max_prob"`
	PredictedWet bool      `gorm:"column:predicted_wet"`
	ReferenceWet bool      `gorm:"column:reference_wet"`
}

// TableName specifies the table name for WindowResultRecord
func (WindowResultRecord) TableName() string {
	return "window_results"
}

// TimescaleDBStore persists runs to TimescaleDB via GORM.
type TimescaleDBStore struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewTimescaleDBStore connects to TimescaleDB and migrates the results
// schema.
func NewTimescaleDBStore(connectionString string, logger *zap.SugaredLogger) (*TimescaleDBStore, error) {
	dbLogger := gormlogger.New(
		zap.NewStdLog(log.GetZapLogger()),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)

	logger.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to create a TimescaleDB connection: %w", err)
	}
	logger.Info("TimescaleDB connection successful")

	if err := db.AutoMigrate(&RunRecord{}, &WindowResultRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate results schema: %w", err)
	}

	return &TimescaleDBStore{db: db, logger: logger}, nil
}

// StoreRun inserts the run and its window results in one transaction.
func (t *TimescaleDBStore) StoreRun(ctx context.Context, run *Run) error {
	records := make([]WindowResultRecord, 0, len(run.Results))
	for _, r := range run.Results {
		records = append(records, WindowResultRecord{
			RunID:        run.ID,
			LinkName:     r.LinkName,
			WindowIndex:  r.WindowIndex,
			StartTime:    r.StartTime,
			MeanProb:     r.MeanProb,
			MaxProb:      r.MaxProb,
			PredictedWet: r.PredictedWet,
			ReferenceWet: r.ReferenceWet,
		})
	}

	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&RunRecord{ID: run.ID, StartedAt: run.StartedAt}).Error; err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 500).Error; err != nil {
			return fmt.Errorf("failed to insert window results: %w", err)
		}
		return nil
	})
}

// Close closes the underlying database connection.
func (t *TimescaleDBStore) Close() error {
	sqlDB, err := t.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
