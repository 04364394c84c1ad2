package examples_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/supporttools/log-doctor/pkg/util"
)

// TestExampleConfigs validates all example configuration files.
// This ensures that:
// 1. All example configs can be loaded without errors
// 2. All configs pass validation
// 3. Default values are applied correctly
// 4. Environment variable substitution works
func TestExampleConfigs(t *testing.T) {
	os.Setenv("DEPLOY_ENV", "test")
	os.Setenv("LOG_DIR", "/var/log/app")
	os.Setenv("CLUSTER_NAME", "test-cluster")

	testCases := []struct {
		name        string
		filename    string
		description string
	}{
		{
			name:        "Minimal",
			filename:    "minimal.yaml",
			description: "Bare minimum configuration",
		},
		{
			name:        "Full",
			filename:    "full.yaml",
			description: "Every configurable knob set",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(".", tc.filename)

			config, err := util.LoadConfig(path)
			if err != nil {
				t.Fatalf("failed to load %s (%s): %v", tc.filename, tc.description, err)
			}

			if config.Watch.Path == "" {
				t.Errorf("%s: watch.path is empty after load", tc.filename)
			}
			if config.Settings.LogLevel == "" {
				t.Errorf("%s: logLevel default was not applied", tc.filename)
			}
			if config.Watch.Mode == "" {
				t.Errorf("%s: watch.mode default was not applied", tc.filename)
			}
		})
	}
}

// TestFullConfigValues spot-checks parsed values of the full example.
func TestFullConfigValues(t *testing.T) {
	os.Setenv("DEPLOY_ENV", "test")
	os.Setenv("LOG_DIR", "/var/log/app")
	os.Setenv("CLUSTER_NAME", "test-cluster")

	config, err := util.LoadConfig("full.yaml")
	if err != nil {
		t.Fatalf("failed to load full.yaml: %v", err)
	}

	if config.Watch.Path != "/var/log/app/worker.log" {
		t.Errorf("env substitution in watch.path: got %q", config.Watch.Path)
	}
	if config.Watch.Mode != "poll" {
		t.Errorf("watch.mode: got %q, want poll", config.Watch.Mode)
	}
	if config.Watch.PollInterval.Milliseconds() != 500 {
		t.Errorf("pollInterval: got %v, want 500ms", config.Watch.PollInterval)
	}
	if config.Watch.CallbackTimeout.Seconds() != 5 {
		t.Errorf("callbackTimeout: got %v, want 5s", config.Watch.CallbackTimeout)
	}

	p := config.Exporters.Prometheus
	if p == nil || !p.Enabled {
		t.Fatal("prometheus exporter should be enabled")
	}
	if p.Labels["cluster"] != "test-cluster" {
		t.Errorf("env substitution in prometheus labels: got %q", p.Labels["cluster"])
	}
}
