// Package main is the entry point for the dirserve server.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/CageChen/dirserve/internal/config"
	"github.com/CageChen/dirserve/internal/handler"
	"github.com/CageChen/dirserve/internal/logging"
	"github.com/CageChen/dirserve/internal/watcher"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logging.Sync() }()

	if cfg.SaveOnly {
		if err := cfg.Save(); err != nil {
			logging.Fatal("failed to save config", zap.Error(err))
		}
		logging.Info("config saved", zap.String("path", cfg.GetConfigFilePath()))
		return
	}

	logging.Info("dirserve starting",
		zap.String("config", cfg.GetConfigFilePath()),
		zap.String("root", cfg.Root),
		zap.String("git_ref", cfg.GitRef),
		zap.Int("port", cfg.Port))

	fs := handler.FSForConfig(cfg)
	if info, err := fs.Stat(""); err != nil || !info.IsDir {
		logging.Fatal("root is not a readable directory", zap.String("root", cfg.Root), zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	r, wsHandler := handler.NewRouter(cfg, fs)

	// Live reload only makes sense for the working copy; a git ref never changes under us.
	if cfg.Watch && cfg.GitRef == "" {
		w, err := watcher.New(cfg.Root)
		if err != nil {
			logging.Warn("failed to create file watcher", zap.Error(err))
		} else {
			w.OnChange(wsHandler.OnFileChange)
			if err := w.Start(); err != nil {
				logging.Warn("failed to start file watcher", zap.Error(err))
			}
			defer func() { _ = w.Stop() }()
			logging.Info("file watcher enabled")
		}
	}

	url := fmt.Sprintf("http://localhost:%d", cfg.Port)
	if cfg.Open {
		go openBrowser(url)
	}

	printBanner(os.Stdout, cfg, url)
	logging.Info("server listening", zap.String("url", url))
	addr := fmt.Sprintf(":%d", cfg.Port)
	if err := r.Run(addr); err != nil {
		logging.Fatal("server failed", zap.Error(err))
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default: // linux, etc.
		cmd = "xdg-open"
		args = []string{url}
	}

	_ = exec.Command(cmd, args...).Start()
}
