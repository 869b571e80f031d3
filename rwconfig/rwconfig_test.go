package rwconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"data_path": "in",
		"save_path": "out",
		"blockchain_path": "chain.json",
		"message": "hi"
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Stride != defaultStride {
		t.Errorf("Stride = %d, want default %d", cfg.Stride, defaultStride)
	}
	if cfg.THi != defaultTHi {
		t.Errorf("THi = %d, want default %d", cfg.THi, defaultTHi)
	}
	if cfg.BitDepth != bitDepth8 {
		t.Errorf("BitDepth = %d, want default %d (non-dcm)", cfg.BitDepth, bitDepth8)
	}
	if len(cfg.Kernel) != 3 {
		t.Errorf("default kernel has %d rows, want 3", len(cfg.Kernel))
	}
}

func TestLoadDefaultsBitDepth16ForDICOM(t *testing.T) {
	path := writeConfig(t, `{
		"data_path": "in",
		"save_path": "out",
		"blockchain_path": "chain.json",
		"message": "hi",
		"data_type": "dcm"
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BitDepth != bitDepth16 {
		t.Errorf("BitDepth = %d, want %d for data_type=dcm", cfg.BitDepth, bitDepth16)
	}
}

func TestLoadHonorsExplicitOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"data_path": "in",
		"save_path": "out",
		"blockchain_path": "chain.json",
		"message": "hi",
		"stride": 5,
		"t_hi": 2,
		"bit_depth": 12
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Stride != 5 || cfg.THi != 2 || cfg.BitDepth != 12 {
		t.Errorf("explicit overrides not honored: %+v", cfg)
	}
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	path := writeConfig(t, `{"message": "hi"}`)
	if _, err := Load(path); err == nil {
		t.Fatal("want error for a config missing data_path/save_path/blockchain_path")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("want error for a missing config file")
	}
}

func TestToKernelValidatesShape(t *testing.T) {
	cfg := Config{Kernel: [][]float64{{0, 1}, {1, 0}}, Stride: 2}
	if _, err := cfg.ToKernel(); err == nil {
		t.Fatal("want error converting an even-sized kernel matrix")
	}
}
