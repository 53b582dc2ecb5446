// Command enrich runs the metadata pipeline once for a single URL and
// prints the resulting record.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/linkhive/linkhive/cache"
	"github.com/linkhive/linkhive/config"
	"github.com/linkhive/linkhive/enrich"
	"github.com/linkhive/linkhive/scraper"
	"github.com/linkhive/linkhive/search"
)

func main() {
	var (
		rawURL  = flag.String("url", "", "URL to enrich")
		asJSON  = flag.Bool("json", false, "print the full record as JSON")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *rawURL == "" {
		fmt.Fprintln(os.Stderr, "usage: enrich -url <url> [-json] [-v]")
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Load()

	browser := scraper.NewBrowser(cfg.Browser)
	defer browser.Close()

	memory := scraper.NewDomainMemory(24 * time.Hour)
	defer memory.Stop()

	enricher := enrich.New(
		cfg.Scraper, cfg.Cache,
		scraper.NewHTTPFetcher(cfg.Scraper),
		browser,
		search.NewClient(cfg.Search),
		cache.New(16),
		memory,
	)

	md := enricher.Enrich(context.Background(), *rawURL)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(md); err != nil {
			fmt.Fprintln(os.Stderr, "encode:", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("title:      ", md.Title)
	fmt.Println("image_url:  ", md.ImageURL)
	fmt.Println("canonical:  ", md.CanonicalURL)
	if md.Description != "" {
		fmt.Println("description:", md.Description)
	}
	if md.SiteName != "" {
		fmt.Println("site_name:  ", md.SiteName)
	}
}
