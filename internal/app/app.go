// Package app wires the rain-detection pipeline together: it loads the
// per-link tables, runs the signal cleaner and reference labeler,
// windows the result, feeds the classifier and stores the outcome.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telcosense/cmlrain/internal/cleaner"
	"github.com/telcosense/cmlrain/internal/cnn"
	"github.com/telcosense/cmlrain/internal/loader"
	"github.com/telcosense/cmlrain/internal/reference"
	"github.com/telcosense/cmlrain/internal/sampler"
	"github.com/telcosense/cmlrain/internal/storage"
	"github.com/telcosense/cmlrain/pkg/config"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Run processes every configured link once and stores the results.
func (a *App) Run(ctx context.Context) error {
	model, err := a.buildClassifier()
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	run := &storage.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	confusion := cnn.Confusion{}

	for _, link := range a.cfg.Links {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		results, linkConfusion, err := a.processLink(link, model)
		if err != nil {
			// One bad link should not abort the whole run.
			a.logger.Errorf("link %s failed: %v", link.Name, err)
			continue
		}
		run.Results = append(run.Results, results...)
		confusion.TrueWet += linkConfusion.TrueWet
		confusion.FalseAlarm += linkConfusion.FalseAlarm
		confusion.MissedWet += linkConfusion.MissedWet
		confusion.TrueDry += linkConfusion.TrueDry
	}

	a.logger.Infof("run %s: %d windows, %d true wet, %d false alarms, %d missed wet",
		run.ID, len(run.Results), confusion.TrueWet, confusion.FalseAlarm, confusion.MissedWet)

	if store != nil {
		if err := store.StoreRun(ctx, run); err != nil {
			return fmt.Errorf("failed to store run %s: %w", run.ID, err)
		}
	}
	return nil
}

// processLink runs the full pipeline for one link.
func (a *App) processLink(link config.LinkData, model *cnn.Classifier) ([]storage.WindowResult, cnn.Confusion, error) {
	table, err := loader.ReadLinkTable(link.Path)
	if err != nil {
		return nil, cnn.Confusion{}, err
	}
	a.logger.Debugf("link %s: loaded %d rows", link.Name, table.Len())

	table = cleaner.Preprocess(table, cleanerConfig(a.cfg.Preprocess))

	_, wd := reference.Labels(table.Rain, referenceConfig(a.cfg.Reference))

	// The model decides the window geometry: a loaded checkpoint may carry a
	// different sample size than the config file.
	windows := sampler.Windows(table, wd, model.Params().SampleSize)
	if a.cfg.Sampler.Balance {
		windows = sampler.Balance(windows, a.cfg.Sampler.Seed)
	}
	if len(windows) == 0 {
		return nil, cnn.Confusion{}, fmt.Errorf("no sample windows after preprocessing (%d rows)", table.Len())
	}
	a.logger.Debugf("link %s: %d sample windows", link.Name, len(windows))

	batch := make([][][]float64, len(windows))
	refFlags := make([][]bool, len(windows))
	for i, w := range windows {
		batch[i] = [][]float64{w.RSLA, w.RSLB}
		refFlags[i] = w.Labels
	}

	probs, err := model.Forward(batch)
	if err != nil {
		return nil, cnn.Confusion{}, fmt.Errorf("classifier failed: %w", err)
	}
	pred, err := model.Predict(batch, a.cfg.Classifier.WetThreshold)
	if err != nil {
		return nil, cnn.Confusion{}, fmt.Errorf("classifier failed: %w", err)
	}

	results := make([]storage.WindowResult, 0, len(windows))
	for i, w := range windows {
		mean, max := 0.0, 0.0
		for _, p := range probs[i] {
			mean += p
			if p > max {
				max = p
			}
		}
		mean /= float64(len(probs[i]))

		results = append(results, storage.WindowResult{
			LinkName:     link.Name,
			WindowIndex:  w.Index,
			StartTime:    w.Start,
			MeanProb:     mean,
			MaxProb:      max,
			PredictedWet: anyTrue(pred[i]),
			ReferenceWet: w.Wet(),
		})
	}

	return results, cnn.Evaluate(pred, refFlags), nil
}

func (a *App) buildClassifier() (*cnn.Classifier, error) {
	if path := a.cfg.Classifier.Checkpoint; path != "" {
		model, err := cnn.LoadCheckpoint(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load checkpoint %s: %w", path, err)
		}
		if got := model.Params().Channels; got != 2 {
			return nil, fmt.Errorf("checkpoint %s expects %d input channels, need 2", path, got)
		}
		a.logger.Infof("loaded classifier checkpoint %s", path)
		return model, nil
	}

	a.logger.Warn("no checkpoint configured, classifier starts with random weights")
	params := classifierParams(a.cfg.Classifier)
	if params.Channels != 2 {
		return nil, fmt.Errorf("classifier configured for %d input channels, need 2", params.Channels)
	}
	model, err := cnn.New(params)
	if err != nil {
		return nil, err
	}
	return model, nil
}

func (a *App) openStore() (storage.Store, error) {
	switch {
	case a.cfg.Storage.TimescaleDB != nil:
		return storage.NewTimescaleDBStore(a.cfg.Storage.TimescaleDB.ConnectionString, a.logger)
	case a.cfg.Storage.SQLite != nil:
		return storage.NewSQLiteStore(a.cfg.Storage.SQLite.Path)
	default:
		a.logger.Info("no storage backend configured, results will only be logged")
		return nil, nil
	}
}

func cleanerConfig(p config.PreprocessData) cleaner.Config {
	return cleaner.Config{
		InterpMaxGap:  p.InterpMaxGap,
		SuppressStep:  p.SuppressStep,
		ConvThreshold: p.ConvThreshold,
		StdMethod:     p.StdMethod,
		WindowSize:    p.WindowSize,
		StdThreshold:  p.StdThreshold,
		ZMethod:       p.ZMethod,
		ZThreshold:    p.ZThreshold,
	}
}

func referenceConfig(r config.ReferenceData) reference.Config {
	return reference.Config{
		SuppressSingleZeros: r.SuppressSingleZeros,
		CompLinInterp:       r.CompLinInterp,
		UpsampledNTimes:     r.UpsampledNTimes,
	}
}

func classifierParams(c config.ClassifierData) cnn.Params {
	params := cnn.Params{
		Channels:   c.Channels,
		SampleSize: c.SampleSize,
		KernelSize: c.KernelSize,
		Dropout:    c.Dropout,
		FCNeurons:  c.FCNeurons,
	}
	copy(params.Filters[:], c.Filters)
	return params
}

func anyTrue(flags []bool) bool {
	for _, v := range flags {
		if v {
			return true
		}
	}
	return false
}
