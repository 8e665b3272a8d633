package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/byteowlz/trackr/internal/article"
	"github.com/byteowlz/trackr/internal/config"
	"github.com/byteowlz/trackr/internal/fetcher"
	"github.com/byteowlz/trackr/internal/logging"
	"github.com/byteowlz/trackr/internal/render"
	"github.com/byteowlz/trackr/internal/server"
	"github.com/byteowlz/trackr/internal/source"
	"github.com/byteowlz/trackr/internal/summarizer"
	"github.com/byteowlz/trackr/internal/watch"
	"github.com/byteowlz/trackr/internal/weather"
	"github.com/byteowlz/trackr/pkg/trackr"
)

// Exit codes for granular error handling
const (
	ExitSuccess      = 0
	ExitNetworkError = 1 // network_error, http_error or timeout
	ExitProcessError = 2
	ExitInvalidInput = 3
	ExitConfigError  = 4
	ExitFileIOError  = 5
	ExitEmptyResult  = 7 // the page was fetched but held no items
)

var (
	cfgFile    string
	outputFile string
	format     string
	verbose    bool
	quiet      bool

	page       int
	summarize  bool
	browserArg string
	javascript bool
	noJS       bool

	schedule string
	addr     string
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "trackr",
	Short: "Track new posts on community boards",
	Long: `trackr reads the newest posts from community boards such as GeekNews and
Clien, optionally summarising each linked article.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var listCmd = &cobra.Command{
	Use:   "list <source>",
	Short: "List one page of a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <url>",
	Short: "Summarise the article at a URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

var weatherCmd = &cobra.Command{
	Use:   "weather [city]",
	Short: "Show the current temperature",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWeather,
}

var watchCmd = &cobra.Command{
	Use:   "watch <source>",
	Short: "Report new posts on a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve listings, summaries and weather as JSON over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured sources",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var e *exitErr
		if errors.As(err, &e) {
			os.Exit(e.code)
		}
		// cobra argument and flag errors
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitInvalidInput)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/trackr/config.toml)")
	pf.StringVarP(&outputFile, "output", "o", "", "write output to file (default: stdout)")
	pf.StringVar(&format, "format", "", "output format (text|markdown|json)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress all non-content output")

	listCmd.Flags().IntVarP(&page, "page", "p", 1, "page number (1 = newest)")
	listCmd.Flags().BoolVarP(&summarize, "summarize", "s", false, "summarise each linked article")
	listCmd.Flags().StringVarP(&browserArg, "browser", "b", "", "read cookies from browser (auto|chrome|firefox|safari|zen)")
	listCmd.Flags().BoolVar(&javascript, "javascript", false, "force JavaScript rendering")
	listCmd.Flags().BoolVar(&noJS, "no-js", false, "disable JavaScript rendering")
	listCmd.MarkFlagsMutuallyExclusive("javascript", "no-js")

	watchCmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule (default from config, e.g. \"@every 10m\")")
	watchCmd.Flags().BoolVarP(&summarize, "summarize", "s", false, "summarise each new article")

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	rootCmd.AddCommand(listCmd, summarizeCmd, weatherCmd, sourcesCmd, watchCmd, serveCmd)
}

// initConfig creates the example config on first run so users have something
// to edit.
func initConfig() {
	if cfgFile != "" {
		return
	}
	configPath := config.DefaultPath()
	if configPath == "" {
		return
	}
	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		return
	}

	// Handle broken symlinks by removing them first
	configDir := filepath.Dir(configPath)
	if fi, lstatErr := os.Lstat(configDir); lstatErr == nil && fi.Mode()&os.ModeSymlink != 0 {
		if _, statErr := os.Stat(configDir); os.IsNotExist(statErr) {
			os.Remove(configDir)
		}
	}

	if err := config.Default().CreateExampleConfig(configPath); err == nil {
		if !quiet {
			fmt.Fprintf(os.Stderr, "Created config file: %s\n", configPath)
		}
	} else if verbose && !quiet {
		fmt.Fprintf(os.Stderr, "Error creating config: %v\n", err)
	}
}

// session bundles what every subcommand needs.
type session struct {
	cfg     *config.Config
	log     *logging.Logger
	tracker *trackr.Tracker
	format  render.Format
	out     io.Writer
	closers []io.Closer
}

func newSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, exitError(ExitConfigError, "failed to load config: %v", err)
	}

	log, err := logging.Open(logging.Options{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Color:   cfg.Logging.Color,
		Verbose: verbose,
		Quiet:   quiet,
	})
	if err != nil {
		return nil, exitError(ExitConfigError, "failed to open log: %v", err)
	}
	s := &session{cfg: cfg, log: log, out: os.Stdout, closers: []io.Closer{log}}

	name := format
	if name == "" {
		name = cfg.Output.DefaultFormat
	}
	if s.format, err = render.ParseFormat(name); err != nil {
		s.close()
		return nil, exitError(ExitInvalidInput, "%v", err)
	}

	s.tracker, err = trackr.New(ctx, cfg, log)
	if err != nil {
		s.close()
		return nil, exitError(ExitConfigError, "%v", err)
	}
	s.closers = append(s.closers, s.tracker)

	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			s.close()
			return nil, exitError(ExitFileIOError, "failed to create output file %s: %v", outputFile, err)
		}
		s.out = f
		s.closers = append(s.closers, f)
	}

	if cfgFile != "" {
		log.Debugf("using config file: %s", cfgFile)
	}
	return s, nil
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i].Close()
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runList(cmd *cobra.Command, args []string) error {
	if err := checkPage(page); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	opts := trackr.ListOptions{
		Page:      page,
		Summarize: summarize,
		Browser:   browserArg,
	}
	if cmd.Flags().Changed("javascript") || cmd.Flags().Changed("no-js") {
		useJS := javascript && !noJS
		opts.UseJS = &useJS
	}

	l, err := s.tracker.List(ctx, args[0], opts)
	if err != nil {
		return s.fail(err, "failed to list %s", args[0])
	}

	if err := render.Listing(s.out, s.format, l, s.cfg.Output.LineWidth); err != nil {
		return exitError(ExitFileIOError, "failed to write output: %v", err)
	}

	if len(l.Items) == 0 {
		return exitError(ExitEmptyResult, "no items found on page %d of %s", l.Page, l.Source)
	}
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	sum, err := s.tracker.Summarize(ctx, args[0])
	if err != nil {
		return s.fail(err, "failed to summarize %s", args[0])
	}
	if err := render.Summary(s.out, s.format, sum, s.cfg.Output.LineWidth); err != nil {
		return exitError(ExitFileIOError, "failed to write output: %v", err)
	}
	return nil
}

func runWeather(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	city := ""
	if len(args) == 1 {
		city = args[0]
	}
	reading, err := s.tracker.Weather(ctx, city)
	if err != nil {
		return s.fail(err, "failed to get weather")
	}
	if err := render.Weather(s.out, s.format, reading); err != nil {
		return exitError(ExitFileIOError, "failed to write output: %v", err)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	// fail fast instead of warning on every tick
	if _, err := source.Lookup(args[0], s.cfg.SourceOverrides()); err != nil {
		return s.fail(err, "failed to watch %s", args[0])
	}

	sched := schedule
	if sched == "" {
		sched = s.cfg.Watch.Schedule
	}

	var writeErr error
	w := watch.New(s.tracker, args[0], trackr.ListOptions{Page: 1, Summarize: summarize}, func(l *trackr.Listing) {
		if err := render.Listing(s.out, s.format, l, s.cfg.Output.LineWidth); err != nil {
			writeErr = err
			cancel()
		}
	}, s.log)

	if err := w.Run(ctx, sched); err != nil {
		return exitError(ExitInvalidInput, "%v", err)
	}
	if writeErr != nil {
		return exitError(ExitFileIOError, "failed to write output: %v", writeErr)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	listen := addr
	if listen == "" {
		listen = s.cfg.Server.Addr
	}

	if err := server.New(s.tracker, s.log).ListenAndServe(ctx, listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return exitError(ExitNetworkError, "server failed: %v", err)
	}
	return nil
}

func runSources(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	if err := render.Sources(s.out, s.format, s.tracker.Sources()); err != nil {
		return exitError(ExitFileIOError, "failed to write output: %v", err)
	}
	return nil
}

// checkPage rejects pages below 1; page 1 is the newest.
func checkPage(p int) error {
	if p < 1 {
		return exitError(ExitInvalidInput, "invalid page %d: pages start at 1", p)
	}
	return nil
}

// fail logs err and maps it to an exit code.
func (s *session) fail(err error, format string, args ...any) error {
	s.log.Debugf("%+v", err)
	return exitError(exitCode(err), "%s: %v", fmt.Sprintf(format, args...), err)
}

func exitCode(err error) int {
	if _, ok := fetcher.ReasonOf(err); ok {
		return ExitNetworkError
	}
	switch {
	case errors.Is(err, source.ErrUnknownSource), errors.Is(err, source.ErrInvalidPage):
		return ExitInvalidInput
	case errors.Is(err, summarizer.ErrMissingKeys), errors.Is(err, weather.ErrMissingAPIKey),
		errors.Is(err, article.ErrUnconfigured):
		return ExitConfigError
	}
	return ExitProcessError
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string {
	return e.msg
}

func exitError(code int, format string, args ...any) *exitErr {
	msg := fmt.Sprintf(format, args...)
	if msg != "" && !quiet {
		fmt.Fprintf(os.Stderr, "%s\n", msg)
	}
	return &exitErr{code: code, msg: msg}
}
