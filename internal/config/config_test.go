package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.Index != "index.html" {
		t.Errorf("expected index index.html, got %s", cfg.Index)
	}
	if !cfg.Watch {
		t.Error("expected watch to be true")
	}
}

func TestLoadArgs_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "dirserve.yaml")
	yml := "root: /srv/www\nport: 9000\nindex: home.html\nlog_level: debug\nrate_limit: 5\nrate_burst: 7\n"
	if err := os.WriteFile(cfgFile, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadArgs([]string{"--config", cfgFile, "--port", "9100", "--watch=false", "--save-config"})
	if err != nil {
		t.Fatalf("LoadArgs failed: %v", err)
	}
	if cfg.Root != "/srv/www" {
		t.Errorf("expected root from file, got %s", cfg.Root)
	}
	if cfg.Port != 9100 {
		t.Errorf("expected flag port 9100, got %d", cfg.Port)
	}
	if cfg.Index != "home.html" || cfg.LogLevel != "debug" {
		t.Errorf("file values not loaded: %+v", cfg)
	}
	if cfg.Watch {
		t.Error("expected watch disabled by flag")
	}
	if cfg.RateLimit != 5 || cfg.RateBurst != 7 {
		t.Errorf("rate limit not loaded from file: %v/%d", cfg.RateLimit, cfg.RateBurst)
	}
	if !cfg.SaveOnly {
		t.Error("expected SaveOnly from --save-config")
	}
	if cfg.GetConfigFilePath() != cfgFile {
		t.Errorf("unexpected config path %s", cfg.GetConfigFilePath())
	}
}

func TestLoadArgs_BoolsFromFile(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "dirserve.yaml")
	if err := os.WriteFile(cfgFile, []byte("watch: false\nopen: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadArgs([]string{"--config", cfgFile})
	if err != nil {
		t.Fatalf("LoadArgs failed: %v", err)
	}
	if cfg.Watch {
		t.Error("expected watch: false from file to survive without flags")
	}
	if !cfg.Open {
		t.Error("expected open: true from file to survive without flags")
	}

	cfg, err = LoadArgs([]string{"--config", cfgFile, "--watch", "--open=false"})
	if err != nil {
		t.Fatalf("LoadArgs failed: %v", err)
	}
	if !cfg.Watch || cfg.Open {
		t.Errorf("explicit flags should override file, got watch=%v open=%v", cfg.Watch, cfg.Open)
	}
}

func TestLoadArgs_RateLimitFlag(t *testing.T) {
	cfg, err := LoadArgs([]string{"--config", writeEmptyConfig(t), "--rate-limit", "0"})
	if err != nil {
		t.Fatalf("LoadArgs failed: %v", err)
	}
	if cfg.RateLimit != 0 {
		t.Errorf("expected rate limiting disabled, got %v", cfg.RateLimit)
	}
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(p, []byte("port: 8080\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadArgs_MissingExplicitConfig(t *testing.T) {
	_, err := LoadArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
	if err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestResolveRoot(t *testing.T) {
	cfg := &Config{Root: "./public"}
	cfg.resolveRoot()

	absExpected, _ := filepath.Abs("./public")
	if cfg.Root != absExpected {
		t.Errorf("expected root %s, got %s", absExpected, cfg.Root)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.configPath = tmpFile
	cfg.Port = 9999
	cfg.GitRef = "main"

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cfg2 := &Config{}
	if err := cfg2.loadFromFile(tmpFile); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}

	if cfg2.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg2.Port)
	}
	if cfg2.GitRef != "main" {
		t.Errorf("expected git ref main, got %s", cfg2.GitRef)
	}
}
