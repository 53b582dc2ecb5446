// Benchmark drives the enrichment endpoint with concurrent requests and
// reports latency percentiles per URL class.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL      = flag.String("api-url", "http://localhost:8080", "Linkhive API base URL")
	apiKey      = flag.String("api-key", "", "API key for authenticated requests")
	runs        = flag.Int("runs", 5, "Number of requests per URL")
	concurrency = flag.Int("concurrency", 3, "Concurrent requests per URL")
	output      = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs covering the pipeline's distinct paths.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Router", "https://github.com/go-rod/rod"},
	{"Video", "https://youtu.be/dQw4w9WgXcQ"},
	{"Static", "https://example.com"},
	{"Blog", "https://go.dev/blog/go1.21"},
	{"Product", "https://www.amazon.com/PlayStation-5-Console/dp/B0BCNKKZ91"},
}

type enrichRequest struct {
	URL string `json:"url"`
}

type enrichResponse struct {
	Success  bool `json:"success"`
	Metadata *struct {
		Title    string `json:"title"`
		ImageURL string `json:"image_url"`
	} `json:"metadata"`
	Cached    bool  `json:"cached"`
	ElapsedMs int64 `json:"elapsed_ms"`
	Error     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type runResult struct {
	Run       int    `json:"run"`
	LatencyMs int64  `json:"latency_ms"`
	ServerMs  int64  `json:"server_ms"`
	Cached    bool   `json:"cached"`
	HasTitle  bool   `json:"has_title"`
	HasImage  bool   `json:"has_image"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

type urlResult struct {
	URL   string      `json:"url"`
	Label string      `json:"label"`
	Runs  []runResult `json:"runs"`
	P50Ms int64       `json:"p50_ms"`
	P95Ms int64       `json:"p95_ms"`
}

type benchmarkReport struct {
	Timestamp   string      `json:"timestamp"`
	APIURL      string      `json:"api_url"`
	RunsPerURL  int         `json:"runs_per_url"`
	Concurrency int         `json:"concurrency"`
	Results     []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Linkhive Enrichment Benchmark ===")
	fmt.Printf("API URL:     %s\n", *apiURL)
	fmt.Printf("Runs/URL:    %d\n", *runs)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure linkhive is running\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		APIURL:      *apiURL,
		RunsPerURL:  *runs,
		Concurrency: *concurrency,
	}

	for _, t := range testURLs {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		ur := urlResult{URL: t.URL, Label: t.Label}
		ur.Runs = runBatch(t.URL)
		ur.P50Ms, ur.P95Ms = percentiles(ur.Runs)

		cached := 0
		for _, r := range ur.Runs {
			if r.Cached {
				cached++
			}
		}
		fmt.Printf("  p50=%dms  p95=%dms  cached=%d/%d\n\n", ur.P50Ms, ur.P95Ms, cached, len(ur.Runs))
		report.Results = append(report.Results, ur)
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// runBatch issues runs requests for the URL, at most concurrency in
// flight at once. The first wave tests the cold path; later waves should
// hit the cache.
func runBatch(url string) []runResult {
	results := make([]runResult, *runs)
	sem := make(chan struct{}, *concurrency)
	var wg sync.WaitGroup

	for i := 0; i < *runs; i++ {
		wg.Add(1)
		go func(run int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[run] = enrichOnce(url, run+1)
		}(i)
	}
	wg.Wait()
	return results
}

func enrichOnce(url string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(enrichRequest{URL: url})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/enrich", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 4 * time.Minute}
	start := time.Now()
	resp, err := client.Do(req)
	rr.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var er enrichResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = er.Success
	rr.ServerMs = er.ElapsedMs
	rr.Cached = er.Cached
	if er.Metadata != nil {
		rr.HasTitle = er.Metadata.Title != ""
		rr.HasImage = er.Metadata.ImageURL != ""
	}
	if er.Error != nil {
		rr.Error = er.Error.Message
	}
	return rr
}

func percentiles(runs []runResult) (p50, p95 int64) {
	var latencies []int64
	for _, r := range runs {
		if r.Success {
			latencies = append(latencies, r.LatencyMs)
		}
	}
	if len(latencies) == 0 {
		return 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p50 = latencies[len(latencies)/2]
	p95 = latencies[(len(latencies)*95)/100]
	return p50, p95
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tp50\tp95\tTitle\tImage\n")
	fmt.Fprintf(w, "───\t───\t───\t─────\t─────\n")

	for _, r := range results {
		hasTitle, hasImage := false, false
		for _, run := range r.Runs {
			hasTitle = hasTitle || run.HasTitle
			hasImage = hasImage || run.HasImage
		}
		fmt.Fprintf(w, "%s\t%dms\t%dms\t%v\t%v\n",
			truncateURL(r.URL, 40), r.P50Ms, r.P95Ms, hasTitle, hasImage)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
