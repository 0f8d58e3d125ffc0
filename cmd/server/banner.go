package main

import (
	"fmt"
	"io"

	"github.com/CageChen/dirserve/internal/config"
	"github.com/fatih/color"
)

// printBanner writes a short human-readable startup summary. Structured
// startup logs go through zap separately.
func printBanner(w io.Writer, cfg *config.Config, url string) {
	title := color.New(color.FgCyan, color.Bold).SprintFunc()
	key := color.New(color.FgHiBlack).SprintFunc()
	val := color.New(color.FgGreen).SprintFunc()

	source := cfg.Root
	if cfg.GitRef != "" {
		source = fmt.Sprintf("%s @ %s", cfg.Root, cfg.GitRef)
	}

	fmt.Fprintln(w, title("dirserve"))
	fmt.Fprintf(w, "  %s %s\n", key("serving "), val(source))
	fmt.Fprintf(w, "  %s %s\n", key("url     "), val(url))
	if cfg.Metrics {
		fmt.Fprintf(w, "  %s %s\n", key("metrics "), val(url+"/metrics"))
	}
	if cfg.Watch && cfg.GitRef == "" {
		fmt.Fprintf(w, "  %s %s\n", key("reload  "), val("on"))
	}
}
