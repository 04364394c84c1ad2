// Package types defines configuration types for Log Doctor.
package types

import (
	"fmt"
	"os"
	"regexp"
	"time"
)

// Package-level defaults
const (
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultLogOutput       = "stdout"
	DefaultWatchMode       = "notify"
	DefaultPollInterval    = "250ms"
	DefaultCallbackTimeout = "0s" // disabled
	DefaultPrometheusPort  = 9102
	DefaultPrometheusPath  = "/metrics"
	MaxPrometheusPort      = 65535
)

// Package-level variables for validation
var (
	// Prometheus namespace validation regex
	prometheusNamespaceRegex = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

	// Valid log levels
	validLogLevels = map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	// Valid log formats
	validLogFormats = map[string]bool{
		"json": true,
		"text": true,
	}

	// Valid log outputs
	validLogOutputs = map[string]bool{
		"stdout": true,
		"stderr": true,
		"file":   true,
	}

	// Valid watch modes
	validWatchModes = map[string]bool{
		"notify": true,
		"poll":   true,
	}

	// MinPollInterval is the shortest permitted polling interval,
	// preventing a stat loop from saturating a core.
	MinPollInterval = 10 * time.Millisecond
)

// LogDoctorConfig is the top-level configuration structure.
type LogDoctorConfig struct {
	// APIVersion of the configuration schema
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`

	// Kind of resource (always "LogDoctorConfig")
	Kind string `json:"kind" yaml:"kind"`

	// Metadata contains name, labels, etc.
	Metadata ConfigMetadata `json:"metadata" yaml:"metadata"`

	// Settings contains global configuration
	Settings GlobalSettings `json:"settings" yaml:"settings"`

	// Watch configures the file watch target and monitor behavior
	Watch WatchConfig `json:"watch" yaml:"watch"`

	// Extractor configures the error-block grammar
	Extractor ExtractorConfig `json:"extractor,omitempty" yaml:"extractor,omitempty"`

	// Exporters contains exporter configurations
	Exporters ExporterConfigs `json:"exporters,omitempty" yaml:"exporters,omitempty"`
}

// ConfigMetadata contains metadata about the configuration.
type ConfigMetadata struct {
	Name   string            `json:"name" yaml:"name"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// GlobalSettings contains global configuration settings.
type GlobalSettings struct {
	// Logging configuration
	LogLevel  string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	LogOutput string `json:"logOutput,omitempty" yaml:"logOutput,omitempty"`
	LogFile   string `json:"logFile,omitempty" yaml:"logFile,omitempty"`
}

// WatchConfig configures the watch target and the monitor loop.
type WatchConfig struct {
	// Path is the log file to observe. Required. The file must exist
	// and be readable when the monitor starts.
	Path string `json:"path" yaml:"path"`

	// Mode selects the change-detection backend: "notify" (fsnotify on
	// the parent directory) or "poll" (periodic stat). Default "notify".
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// PollIntervalString is the stat interval for poll mode.
	PollIntervalString string `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`

	// CallbackTimeoutString bounds a single callback invocation.
	// "0s" (the default) disables the bound.
	CallbackTimeoutString string `json:"callbackTimeout,omitempty" yaml:"callbackTimeout,omitempty"`

	// FailFast stops the monitor on the first callback fault instead of
	// isolating it and continuing.
	FailFast bool `json:"failFast,omitempty" yaml:"failFast,omitempty"`

	// Parsed duration fields (not in JSON/YAML)
	PollInterval    time.Duration `json:"-" yaml:"-"`
	CallbackTimeout time.Duration `json:"-" yaml:"-"`
}

// ExtractorConfig overrides the error-block grammar. Both patterns must
// be supplied together; empty values select the built-in traceback
// grammar.
type ExtractorConfig struct {
	// FramePattern matches the frame-location line and must define the
	// named capture groups "file", "line" and "function".
	FramePattern string `json:"framePattern,omitempty" yaml:"framePattern,omitempty"`

	// ErrorPattern matches the terminating line of an error block and
	// must define the named capture groups "type" and "message".
	ErrorPattern string `json:"errorPattern,omitempty" yaml:"errorPattern,omitempty"`
}

// ExporterConfigs contains all exporter configurations.
type ExporterConfigs struct {
	Prometheus *PrometheusExporterConfig `json:"prometheus,omitempty" yaml:"prometheus,omitempty"`
}

// PrometheusExporterConfig configures the Prometheus metrics endpoint.
type PrometheusExporterConfig struct {
	Enabled   bool              `json:"enabled" yaml:"enabled"`
	Port      int               `json:"port,omitempty" yaml:"port,omitempty"`
	Path      string            `json:"path,omitempty" yaml:"path,omitempty"`
	Namespace string            `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// ApplyDefaults fills in missing values and parses duration strings.
func (c *LogDoctorConfig) ApplyDefaults() error {
	if c.APIVersion == "" {
		c.APIVersion = "log-doctor.io/v1alpha1"
	}
	if c.Kind == "" {
		c.Kind = "LogDoctorConfig"
	}
	if c.Metadata.Name == "" {
		c.Metadata.Name = "default"
	}

	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = DefaultLogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = DefaultLogFormat
	}
	if c.Settings.LogOutput == "" {
		c.Settings.LogOutput = DefaultLogOutput
	}

	if c.Watch.Mode == "" {
		c.Watch.Mode = DefaultWatchMode
	}
	if c.Watch.PollIntervalString == "" {
		c.Watch.PollIntervalString = DefaultPollInterval
	}
	if c.Watch.CallbackTimeoutString == "" {
		c.Watch.CallbackTimeoutString = DefaultCallbackTimeout
	}

	var err error
	if c.Watch.PollInterval, err = time.ParseDuration(c.Watch.PollIntervalString); err != nil {
		return fmt.Errorf("invalid pollInterval %q: %w", c.Watch.PollIntervalString, err)
	}
	if c.Watch.CallbackTimeout, err = time.ParseDuration(c.Watch.CallbackTimeoutString); err != nil {
		return fmt.Errorf("invalid callbackTimeout %q: %w", c.Watch.CallbackTimeoutString, err)
	}

	if p := c.Exporters.Prometheus; p != nil && p.Enabled {
		if p.Port == 0 {
			p.Port = DefaultPrometheusPort
		}
		if p.Path == "" {
			p.Path = DefaultPrometheusPath
		}
		if p.Namespace == "" {
			p.Namespace = "log_doctor"
		}
	}

	return nil
}

// Validate checks the configuration for errors. ApplyDefaults must be
// called first so duration strings are parsed.
func (c *LogDoctorConfig) Validate() error {
	if !validLogLevels[c.Settings.LogLevel] {
		return fmt.Errorf("invalid logLevel %q: must be debug, info, warn, error, or fatal", c.Settings.LogLevel)
	}
	if !validLogFormats[c.Settings.LogFormat] {
		return fmt.Errorf("invalid logFormat %q: must be json or text", c.Settings.LogFormat)
	}
	if !validLogOutputs[c.Settings.LogOutput] {
		return fmt.Errorf("invalid logOutput %q: must be stdout, stderr, or file", c.Settings.LogOutput)
	}
	if c.Settings.LogOutput == "file" && c.Settings.LogFile == "" {
		return fmt.Errorf("logFile must be set when logOutput is \"file\"")
	}

	if c.Watch.Path == "" {
		return fmt.Errorf("watch.path is required")
	}
	if !validWatchModes[c.Watch.Mode] {
		return fmt.Errorf("invalid watch.mode %q: must be notify or poll", c.Watch.Mode)
	}
	if c.Watch.Mode == "poll" && c.Watch.PollInterval < MinPollInterval {
		return fmt.Errorf("watch.pollInterval %v is below the minimum %v", c.Watch.PollInterval, MinPollInterval)
	}
	if c.Watch.CallbackTimeout < 0 {
		return fmt.Errorf("watch.callbackTimeout must not be negative")
	}

	if (c.Extractor.FramePattern == "") != (c.Extractor.ErrorPattern == "") {
		return fmt.Errorf("extractor.framePattern and extractor.errorPattern must be set together")
	}

	if p := c.Exporters.Prometheus; p != nil && p.Enabled {
		if p.Port < 1 || p.Port > MaxPrometheusPort {
			return fmt.Errorf("invalid prometheus port %d: must be 1-%d", p.Port, MaxPrometheusPort)
		}
		if !prometheusNamespaceRegex.MatchString(p.Namespace) {
			return fmt.Errorf("invalid prometheus namespace %q", p.Namespace)
		}
	}

	return nil
}

// SubstituteEnvVars expands ${VAR} references in string fields whose
// values commonly come from the environment. Raw file contents are also
// expanded before parsing; this pass covers values assembled
// programmatically.
func (c *LogDoctorConfig) SubstituteEnvVars() {
	c.Watch.Path = os.ExpandEnv(c.Watch.Path)
	c.Settings.LogFile = os.ExpandEnv(c.Settings.LogFile)
	for k, v := range c.Metadata.Labels {
		c.Metadata.Labels[k] = os.ExpandEnv(v)
	}
	if p := c.Exporters.Prometheus; p != nil {
		for k, v := range p.Labels {
			p.Labels[k] = os.ExpandEnv(v)
		}
	}
}
