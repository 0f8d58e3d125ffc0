// Package config manages YAML-based configuration and CLI flags.
package config

import (
	"flag"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for dirserve
type Config struct {
	// Root directory to serve. With GitRef set it must be a git repository.
	Root   string `yaml:"root"`
	GitRef string `yaml:"git_ref,omitempty"`

	Port   int    `yaml:"port"`
	Index  string `yaml:"index"`
	Readme string `yaml:"readme"`
	Watch  bool   `yaml:"watch"`
	Open   bool   `yaml:"open"`

	Metrics   bool   `yaml:"metrics"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// RateLimit is the sustained /api requests per second allowed per
	// client address. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	// SaveOnly asks the caller to write the effective config and exit.
	SaveOnly bool `yaml:"-"`

	// Internal: path to config file for saving
	configPath string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Root:      ".",
		Port:      8080,
		Index:     "index.html",
		Readme:    "README.md",
		Watch:     true,
		Open:      false,
		Metrics:   true,
		LogLevel:  "info",
		LogFormat: "console",
		RateLimit: 20,
		RateBurst: 40,
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/dirserve"
	}
	return filepath.Join(home, ".config", "dirserve")
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load loads configuration from file and command line flags
func Load() (*Config, error) {
	args := os.Args[1:]
	// Accept `dirserve serve --root ...` as well as `dirserve --root ...`.
	if len(args) > 0 && args[0] == "serve" {
		args = args[1:]
	}
	return LoadArgs(args)
}

// LoadArgs is Load with an explicit argument list.
func LoadArgs(args []string) (*Config, error) {
	cfg := DefaultConfig()

	fset := flag.NewFlagSet("dirserve", flag.ContinueOnError)
	root := fset.String("root", "", "Directory to serve")
	gitRef := fset.String("git-ref", "", "Serve the tree of this git ref instead of the working copy")
	port := fset.Int("port", 0, "HTTP server port")
	index := fset.String("index", "", "Index file served for directories")
	logLevel := fset.String("log-level", "", "Log level (debug/info/warn/error)")
	rateLimit := fset.Float64("rate-limit", -1, "Per-client /api requests per second (0 disables)")
	watch := fset.Bool("watch", true, "Enable live reload")
	open := fset.Bool("open", false, "Open browser on startup")
	configFile := fset.String("config", "", "Configuration file path")
	save := fset.Bool("save-config", false, "Write the effective configuration to the config file and exit")

	fset.StringVar(root, "r", "", "Directory to serve (shorthand)")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	// Determine config file path
	var cfgPath string
	if *configFile != "" {
		cfgPath = *configFile
	} else {
		// Try ~/.config/dirserve/config.yaml first
		globalConfig := GetConfigPath()
		if _, err := os.Stat(globalConfig); err == nil {
			cfgPath = globalConfig
		} else if _, err := os.Stat("dirserve.yaml"); err == nil {
			cfgPath = "dirserve.yaml"
		}
	}

	if cfgPath != "" {
		if err := cfg.loadFromFile(cfgPath); err != nil && *configFile != "" {
			// Only return error if user explicitly specified config file
			return nil, err
		}
		cfg.configPath = cfgPath
	} else {
		cfg.configPath = GetConfigPath()
	}

	// Command line flags override config file (only if explicitly set)
	if *root != "" {
		cfg.Root = *root
	}
	if *gitRef != "" {
		cfg.GitRef = *gitRef
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *index != "" {
		cfg.Index = *index
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *rateLimit >= 0 {
		cfg.RateLimit = *rateLimit
	}
	// Bool flags have non-zero defaults, so only a flag actually passed may
	// override the file.
	set := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["watch"] {
		cfg.Watch = *watch
	}
	if set["open"] {
		cfg.Open = *open
	}
	cfg.SaveOnly = *save

	cfg.resolveRoot()
	return cfg, nil
}

// resolveRoot makes Root absolute so logs and the watcher see real paths.
func (c *Config) resolveRoot() {
	if c.Root == "" {
		c.Root = "."
	}
	if abs, err := filepath.Abs(c.Root); err == nil {
		c.Root = abs
	}
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Save saves the current configuration to the config file
func (c *Config) Save() error {
	configDir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.configPath, data, 0644)
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}
