// Log Doctor - log file monitoring for stack-trace error detection
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	prom "github.com/supporttools/log-doctor/pkg/exporters/prometheus"
	"github.com/supporttools/log-doctor/pkg/extractor"
	"github.com/supporttools/log-doctor/pkg/logger"
	"github.com/supporttools/log-doctor/pkg/monitor"
	"github.com/supporttools/log-doctor/pkg/types"
	"github.com/supporttools/log-doctor/pkg/util"
	"github.com/supporttools/log-doctor/pkg/watcher"
)

// Build-time variables set by goreleaser or make
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Command-line flags
var (
	configPath = flag.String("config", "/etc/log-doctor/config.yaml", "Path to configuration file")
	watchPath  = flag.String("watch", "", "Log file to watch (overrides config, or used when no config file exists)")
	logLevel   = flag.String("log-level", "", "Override log level (debug, info, warn, error, fatal)")
	logFormat  = flag.String("log-format", "", "Override log format (json, text)")
	version    = flag.Bool("version", false, "Show version information and exit")
)

func main() {
	flag.Parse()

	if *version {
		printVersion()
		os.Exit(0)
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := setupLogging(config.Settings); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Infof("Log Doctor %s starting", Version)
	logger.WithFields(logrus.Fields{
		"path": config.Watch.Path,
		"mode": config.Watch.Mode,
	}).Info("Configuration loaded")

	// The callback logs every detected error occurrence as a structured
	// entry; downstream alerting keys off these.
	onError := func(record types.ErrorRecord) {
		logger.WithFields(logrus.Fields{
			"sourceFile":   record.SourceFile,
			"lineNumber":   record.LineNumber,
			"functionName": record.FunctionName,
			"errorType":    record.ErrorType,
		}).Error(record.ErrorMessage)
	}

	opts, exporter, err := buildMonitorOptions(config)
	if err != nil {
		logger.Fatalf("Failed to configure monitor: %v", err)
	}

	mon, err := monitor.New(config.Watch.Path, onError, opts...)
	if err != nil {
		logger.Fatalf("Failed to create monitor: %v", err)
	}

	if exporter != nil {
		if err := exporter.Start(); err != nil {
			logger.Fatalf("Failed to start Prometheus exporter: %v", err)
		}
		defer exporter.Stop()
	}

	if err := mon.Start(); err != nil {
		logger.Fatalf("Failed to start monitor: %v", err)
	}

	logger.Infof("Log Doctor started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan

	logger.Infof("Received signal %v, initiating graceful shutdown", sig)

	mon.Stop()

	logger.Infof("Graceful shutdown completed")
}

// loadConfiguration loads the config file and applies flag overrides.
func loadConfiguration() (*types.LogDoctorConfig, error) {
	config, err := util.LoadConfigOrDefault(*configPath, *watchPath)
	if err != nil {
		return nil, err
	}

	if *watchPath != "" {
		config.Watch.Path = *watchPath
	}
	if *logLevel != "" {
		config.Settings.LogLevel = *logLevel
	}
	if *logFormat != "" {
		config.Settings.LogFormat = *logFormat
	}

	// Overrides bypass the load-time validation pass
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// setupLogging initializes the global logger from settings.
func setupLogging(settings types.GlobalSettings) error {
	return logger.Initialize(settings.LogLevel, settings.LogFormat, settings.LogOutput, settings.LogFile)
}

// buildMonitorOptions assembles monitor options from configuration,
// creating the Prometheus exporter when enabled.
func buildMonitorOptions(config *types.LogDoctorConfig) ([]monitor.Option, *prom.Exporter, error) {
	opts := []monitor.Option{
		monitor.WithLogger(logger.Get()),
		monitor.WithCallbackTimeout(config.Watch.CallbackTimeout),
		monitor.WithFailFast(config.Watch.FailFast),
	}

	if config.Extractor.FramePattern != "" {
		ext, err := extractor.NewWithPatterns(config.Extractor.FramePattern, config.Extractor.ErrorPattern)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid extractor patterns: %w", err)
		}
		opts = append(opts, monitor.WithExtractor(ext))
	}

	if config.Watch.Mode == "poll" {
		interval := config.Watch.PollInterval
		opts = append(opts, monitor.WithWatcherFactory(func(path string) (watcher.Watcher, error) {
			return watcher.NewPoll(afero.NewOsFs(), path, interval)
		}))
	}

	var exporter *prom.Exporter
	if p := config.Exporters.Prometheus; p != nil && p.Enabled {
		var err error
		exporter, err = prom.NewExporter(p, config.Watch.Path)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, monitor.WithCollector(exporter))
	}

	return opts, exporter, nil
}

// printVersion prints build information.
func printVersion() {
	fmt.Printf("Log Doctor %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Go version: %s\n", runtime.Version())
	fmt.Printf("  Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
