package config

import (
	"os"
	"path/filepath"
	"testing"

	"gofit/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.Series.Tolerance != 1e-10 {
		t.Errorf("Series.Tolerance = %g, want 1e-10", cfg.Series.Tolerance)
	}
	if cfg.Series.MaxTerms != 100 {
		t.Errorf("Series.MaxTerms = %d, want 100", cfg.Series.MaxTerms)
	}
	if cfg.KS.ExactThreshold != 150 {
		t.Errorf("KS.ExactThreshold = %d, want 150", cfg.KS.ExactThreshold)
	}
	if !cfg.CvM.FirstOrderCorrection {
		t.Error("CvM.FirstOrderCorrection should default to true")
	}
	if cfg.AD.TailStart != 20 {
		t.Errorf("AD.TailStart = %g, want 20", cfg.AD.TailStart)
	}
	if cfg.Runtime.MaxConcurrency < 1 {
		t.Errorf("Runtime.MaxConcurrency = %d, want >= 1", cfg.Runtime.MaxConcurrency)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GOF_SERIES_MAX_TERMS", "250")
	t.Setenv("GOF_CVM_FIRST_ORDER", "false")
	t.Setenv("GOF_KS_TAIL_LAMBDA", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Series.MaxTerms != 250 {
		t.Errorf("Series.MaxTerms = %d, want 250", cfg.Series.MaxTerms)
	}
	if cfg.CvM.FirstOrderCorrection {
		t.Error("CvM.FirstOrderCorrection should be false")
	}
	if cfg.KS.TailLambda != 2 {
		t.Errorf("KS.TailLambda = %g, want 2", cfg.KS.TailLambda)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("GOF_CACHE_SIZE", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Runtime.CacheSize != 128 {
		t.Errorf("Runtime.CacheSize = %d, want default 128", cfg.Runtime.CacheSize)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero series tolerance", "GOF_SERIES_TOLERANCE", "0"},
		{"single term cap", "GOF_SERIES_MAX_TERMS", "1"},
		{"durbin below exact", "GOF_KS_DURBIN_MAX_SAMPLES", "10"},
		{"tail lambda too small", "GOF_KS_TAIL_LAMBDA", "0.5"},
		{"AD tail too early", "GOF_AD_TAIL_START", "6"},
		{"AD tail past series precision", "GOF_AD_TAIL_START", "30"},
		{"no workers", "GOF_MAX_CONCURRENCY", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatalf("Load() with %s=%s should fail", tt.key, tt.value)
			}
			if code := errors.GetCode(err); code != errors.CodeConfigInvalid {
				t.Errorf("error code = %s, want %s", code, errors.CodeConfigInvalid)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gof.env")
	content := "GOF_SERIES_MAX_TERMS=300\nGOF_AD_TAIL_START=12\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	// process environment wins over the file
	t.Setenv("GOF_AD_TAIL_START", "15")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Series.MaxTerms != 300 {
		t.Errorf("Series.MaxTerms = %d, want 300", cfg.Series.MaxTerms)
	}
	if cfg.AD.TailStart != 15 {
		t.Errorf("AD.TailStart = %g, want 15", cfg.AD.TailStart)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("LoadFile() with a missing file should fail")
	}
}
