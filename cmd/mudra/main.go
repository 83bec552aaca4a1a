package main

import (
	"fmt"
	"os"

	"go.uber.org/multierr"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/history"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/model"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/ui"
)

func main() {
	cfg := config.Load()

	logger, flush, err := logging.New(logging.Options{Level: cfg.LogLevel, Dir: cfg.LogDir()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	logger.Infow("Mudra - Hand Sign Detection", "data_dir", cfg.DataDir, "output_dir", cfg.OutputDir)

	st, err := store.New(cfg.HistoryDB)
	if err != nil {
		logger.Fatalw("Failed to initialize history store", "error", err)
	}

	opts := model.DefaultOptions()
	opts.Path = cfg.ModelPath
	opts.FallbackPath = cfg.FallbackModelPath
	opts.DatasetPath = cfg.DatasetPath
	opts.InputSize = cfg.InputSize
	opts.ConfThreshold = float32(cfg.ConfThreshold)
	opts.NMSThreshold = float32(cfg.NMSThreshold)

	yolo, err := model.Load(opts, logger)
	if err != nil {
		st.Close()
		logger.Fatalw("Failed to load model", "error", err)
	}
	logger.Infow("Model loaded", "path", yolo.Path(), "classes", len(yolo.Labels()))

	log := history.NewLog(st, logger)
	det := pipeline.New(yolo, log, pipeline.Options{
		VideoCodec:    cfg.VideoCodec,
		PreviewWidth:  cfg.PreviewWidth,
		PreviewHeight: cfg.PreviewHeight,
		MotionGate:    cfg.MotionGate,
	}, logger)

	ui.CreateApp(det, log, cfg, logger).Run()

	if err := multierr.Combine(det.Close(), yolo.Close(), st.Close()); err != nil {
		logger.Warnw("Shutdown finished with errors", "error", err)
	}
	logger.Info("Goodbye")
}
