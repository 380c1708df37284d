package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestSeedRequiresName(t *testing.T) {
	err := newCommand(&bytes.Buffer{}).Run(context.Background(), []string{"vibelab", "seed"})
	if err == nil || !strings.Contains(err.Error(), "expected seed name") {
		t.Fatalf("expected missing seed name error, got %v", err)
	}
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	t.Setenv("VIBELAB_JWT_SECRET", "short")

	err := newCommand(&bytes.Buffer{}).Run(context.Background(), []string{"vibelab", "serve"})
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestConfigFlagFromEnvironment(t *testing.T) {
	t.Setenv("VIBELAB_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	err := newCommand(&bytes.Buffer{}).Run(context.Background(), []string{"vibelab", "serve"})
	if err == nil || !strings.Contains(err.Error(), "decode config file") {
		t.Fatalf("expected config file error, got %v", err)
	}
}
