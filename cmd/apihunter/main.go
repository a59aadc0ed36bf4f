package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PentesterFlow/apihunter/internal/logger"
	"github.com/PentesterFlow/apihunter/internal/report"
	"github.com/PentesterFlow/apihunter/internal/state"
	"github.com/PentesterFlow/apihunter/pkg/hunter"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	verbose    bool
	logLevel   string

	// Scan flags
	timeout             int
	outputFormat        string
	outputFile          string
	saveScan            bool
	historyFile         string
	scanCommonPaths     bool
	includeSwagger      bool
	scanRobots          bool
	scanSitemap         bool
	noValidate          bool
	confidenceThreshold float64
	keywords            []string

	// Auth flags
	cookies     []string
	authHeaders []string
	token       string
	username    string
	password    string

	// History flags
	historyTarget string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "apihunter",
		Short: "apihunter - API Endpoint Discovery",
		Long: `apihunter - Discover and score API endpoints on a target web page.

Combines passive extraction (links, scripts, forms, AJAX patterns, meta tags,
comments) with active probing (robots.txt, sitemap.xml, API documentation,
common paths) and live validation.`,
		Version: version,
	}

	scanCmd := &cobra.Command{
		Use:   "scan [target]",
		Short: "Scan a target URL for API endpoints",
		Long:  "Fetch a target page, extract endpoint candidates, and optionally probe and validate them.",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show saved scan results",
		Long:  "List scan results previously saved with --save.",
		RunE:  runHistory,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	scanCmd.Flags().IntVarP(&timeout, "timeout", "t", 30, "Request timeout in seconds")
	scanCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format (text, list, json, csv, html)")
	scanCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	scanCmd.Flags().BoolVar(&saveScan, "save", false, "Save the scan result to the history database")
	scanCmd.Flags().StringVar(&historyFile, "history-file", defaultHistoryPath(), "History database path")
	scanCmd.Flags().BoolVar(&scanCommonPaths, "scan-common-paths", false, "Probe common API paths")
	scanCmd.Flags().BoolVar(&includeSwagger, "include-swagger", false, "Probe well-known API documentation locations")
	scanCmd.Flags().BoolVar(&scanRobots, "scan-robots", true, "Check robots.txt for API paths")
	scanCmd.Flags().BoolVar(&scanSitemap, "scan-sitemap", true, "Check sitemap.xml for API URLs")
	scanCmd.Flags().BoolVar(&noValidate, "no-validate", false, "Skip live endpoint validation")
	scanCmd.Flags().Float64Var(&confidenceThreshold, "confidence-threshold", 0, "Hide endpoints below this confidence")
	scanCmd.Flags().StringArrayVarP(&keywords, "keyword", "k", nil, "Domain resource keywords for authenticated discovery")

	scanCmd.Flags().StringArrayVar(&cookies, "cookie", nil, "Session cookie as name=value (repeatable)")
	scanCmd.Flags().StringArrayVar(&authHeaders, "auth-header", nil, "Authentication header as Name:Value (repeatable)")
	scanCmd.Flags().StringVar(&token, "token", "", "Bearer token")
	scanCmd.Flags().StringVarP(&username, "username", "u", "", "Username for login")
	scanCmd.Flags().StringVarP(&password, "password", "p", "", "Password for login")

	historyCmd.Flags().StringVar(&historyFile, "history-file", defaultHistoryPath(), "History database path")
	historyCmd.Flags().StringVar(&historyTarget, "target", "", "Only show scans of this target")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "apihunter-history.db"
	}
	return home + "/.apihunter/history.db"
}

func buildOptions(cmd *cobra.Command) ([]hunter.Option, error) {
	opts := make([]hunter.Option, 0)

	if configFile != "" {
		cfg, err := hunter.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, hunter.WithConfig(cfg))
	}

	if cmd.Flags().Changed("timeout") {
		opts = append(opts, hunter.WithTimeout(time.Duration(timeout)*time.Second))
	}
	if cmd.Flags().Changed("scan-common-paths") {
		opts = append(opts, hunter.WithCommonPathScan(scanCommonPaths))
	}
	if cmd.Flags().Changed("include-swagger") {
		opts = append(opts, hunter.WithSwaggerDiscovery(includeSwagger))
	}
	if cmd.Flags().Changed("scan-robots") {
		opts = append(opts, hunter.WithRobotsScan(scanRobots))
	}
	if cmd.Flags().Changed("scan-sitemap") {
		opts = append(opts, hunter.WithSitemapScan(scanSitemap))
	}
	if noValidate {
		opts = append(opts, hunter.WithValidation(false))
	}
	if len(keywords) > 0 {
		opts = append(opts, hunter.WithResourceKeywords(keywords...))
	}
	if verbose {
		opts = append(opts, hunter.WithVerbose(true))
	}
	if logLevel != "" {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
		opts = append(opts, hunter.WithLogLevel(level))
	}

	// Authentication: cookies, headers, token, credentials, in that order
	// of precedence.
	switch {
	case len(cookies) > 0:
		parsed, err := parsePairs(cookies, "=")
		if err != nil {
			return nil, fmt.Errorf("invalid --cookie: %w", err)
		}
		opts = append(opts, hunter.WithCookieAuth(parsed))
	case len(authHeaders) > 0:
		parsed, err := parsePairs(authHeaders, ":")
		if err != nil {
			return nil, fmt.Errorf("invalid --auth-header: %w", err)
		}
		opts = append(opts, hunter.WithHeaderAuth(parsed))
	case token != "":
		opts = append(opts, hunter.WithTokenAuth(token))
	case username != "" || password != "":
		opts = append(opts, hunter.WithCredentialsAuth(username, password))
	}

	return opts, nil
}

func parsePairs(pairs []string, sep string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, sep)
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("expected key%svalue, got %q", sep, pair)
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]

	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	h, err := hunter.New(target, opts...)
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "Interrupted, finishing up...")
		cancel()
	}()

	start := time.Now()
	rep, err := h.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if saveScan {
		if err := saveToHistory(target, start, rep); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save scan: %v\n", err)
		}
	}

	if confidenceThreshold > 0 {
		rep = rep.FilterByConfidence(confidenceThreshold)
	}

	out := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return rep.Write(out, format)
}

func saveToHistory(target string, start time.Time, rep *report.Report) error {
	h, err := state.OpenHistory(historyFile)
	if err != nil {
		return err
	}
	defer h.Close()

	return h.Save(&state.ScanRecord{
		Target:    target,
		StartedAt: start,
		Duration:  rep.Duration,
		Endpoints: rep.Endpoints,
	})
}

func runHistory(cmd *cobra.Command, args []string) error {
	h, err := state.OpenHistory(historyFile)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer h.Close()

	records, err := h.List(historyTarget)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No saved scans.")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  %s  %d endpoints  (%s)\n",
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Target,
			len(rec.Endpoints),
			rec.Duration.Round(time.Millisecond))
	}
	return nil
}
