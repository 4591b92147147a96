package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidateFillsPageSizeDefault(t *testing.T) {
	c := Config{DataDir: t.TempDir(), PoolSize: 4, ReplacerK: 2}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.PageSizeBytes != 4096 {
		t.Fatalf("got page size %d, want 4096 default", c.PageSizeBytes)
	}
}

func TestValidateRejectsMissingDataDir(t *testing.T) {
	c := Config{PoolSize: 4, ReplacerK: 2}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for missing data_dir")
	}
}

func TestValidateRejectsNonPositivePoolSize(t *testing.T) {
	c := Config{DataDir: t.TempDir(), ReplacerK: 2}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for zero pool_size")
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
data_dir: ` + dir + `
page_size_bytes: 4096
pool_size: 16
replacer_k: 2
checkpoint_interval: 30s
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.PoolSize != 16 || c.ReplacerK != 2 {
		t.Fatalf("got %+v", c)
	}
	if c.CheckpointInterval != 30*time.Second {
		t.Fatalf("got checkpoint interval %v, want 30s", c.CheckpointInterval)
	}
}

func TestLoadErrorsOnMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
