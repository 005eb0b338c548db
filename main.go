package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"

	"edurisk/pipeline"
)

type Config struct {
	Data struct {
		WatchDir  string `yaml:"watch_dir"`
		DBPath    string `yaml:"db_path"`
		OutputCSV string `yaml:"output_csv"`
	} `yaml:"data"`
	Model struct {
		Path       string `yaml:"path"`
		HiddenDim  int    `yaml:"hidden_dim"`
		NumSamples int    `yaml:"num_samples"`
		Seed       int64  `yaml:"seed"`
	} `yaml:"model"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Set up logging
	logger, err := newLogger(config)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// 3. Initialize storage
	storage, err := pipeline.NewStorage(pipeline.StorageConfig{
		DBPath:    config.Data.DBPath,
		EnableWAL: true,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()
	logger.Info("storage initialized", zap.String("path", config.Data.DBPath))

	// 4. Wire the ingest/score pipeline
	ingester := pipeline.NewIngester(pipeline.IngestionConfig{}, storage, logger)
	scorer, err := pipeline.NewScorer(pipeline.ScoringConfig{
		ModelPath:  config.Model.Path,
		HiddenDim:  config.Model.HiddenDim,
		NumSamples: config.Model.NumSamples,
		Seed:       config.Model.Seed,
		OutputCSV:  config.Data.OutputCSV,
	}, storage, logger)
	if err != nil {
		logger.Fatal("Failed to build scorer", zap.Error(err))
	}

	if err := os.MkdirAll(config.Data.WatchDir, 0o755); err != nil {
		logger.Fatal("Failed to create watch dir", zap.Error(err))
	}
	watcher, err := pipeline.NewWatcher(config.Data.WatchDir, ingester, scorer, logger)
	if err != nil {
		logger.Fatal("Failed to watch data dir", zap.Error(err))
	}
	watcher.Start()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	watcher.Stop()
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func newLogger(config *Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if config.Log.File != "" {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   config.Log.File,
			MaxSize:    config.Log.MaxSizeMB,
			MaxBackups: config.Log.MaxBackups,
		}))
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.NewMultiWriteSyncer(syncers...),
		level,
	)
	return zap.New(core), nil
}
