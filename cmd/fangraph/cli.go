package main

import (
	"context"
	"io"

	"github.com/fangraph/fangraph"
	"github.com/fangraph/fangraph/scrape"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Router *scrape.Router
	Stats  *fangraph.Stats
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Scrape ScrapeCmd `cmd:"" help:"Scrape artist, release, and fan pages"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	Artist  []string `short:"a" help:"Artist page URL to scrape (repeatable)"`
	Release []string `short:"r" help:"Release page URL to scrape (repeatable)"`
	Fan     []string `short:"f" help:"Fan username to scrape (repeatable)"`

	CacheDir string `type:"path" help:"Directory for the response cache (default ~/.fangraph)"`

	Workers int     `short:"w" default:"8" help:"Concurrent scrape workers"`
	Rate    float64 `default:"1.0" help:"Maximum web requests per second"`
	Verbose bool    `short:"v" help:"Log individual web requests"`
}
