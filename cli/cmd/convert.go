package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/pagesmith-io/pagesmith/adapter"
	redisadapter "github.com/pagesmith-io/pagesmith/adapter/redis"
	"github.com/pagesmith-io/pagesmith/adapter/webhook"
	"github.com/pagesmith-io/pagesmith/cli/config"
	"github.com/pagesmith-io/pagesmith/cli/tui"
	"github.com/pagesmith-io/pagesmith/client"
	"github.com/pagesmith-io/pagesmith/log"
	"github.com/pagesmith-io/pagesmith/metrics"
	"github.com/pagesmith-io/pagesmith/policy"
	"github.com/pagesmith-io/pagesmith/runtime"
	"github.com/pagesmith-io/pagesmith/store"
	"github.com/pagesmith-io/pagesmith/types"
)

// defaultServerURL is the conversion service default address.
const defaultServerURL = "http://localhost:8000"

// ConvertCommand returns the convert command.
// This is the only command that executes work; everything else is read-only.
func ConvertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert an image to an HTML/CSS document",
		ArgsUsage: "<image>",
		Flags: []cli.Flag{
			// Execution flags
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to pagesmith.yaml config file",
			},
			&cli.StringFlag{
				Name:  "server",
				Usage: "Conversion service URL",
			},
			&cli.StringFlag{
				Name:  "request-id",
				Usage: "Request ID (generated if omitted)",
			},
			&cli.BoolFlag{
				Name:  "heuristic",
				Usage: "Enable the service's heuristic mode",
			},
			&cli.BoolFlag{
				Name:  "no-stream",
				Usage: "Use the blocking endpoint instead of the byte stream",
			},
			&cli.DurationFlag{
				Name:  "pace",
				Usage: "Minimum interval between emission batches (max 50ms)",
				Value: 30 * time.Millisecond,
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Delivery mode: live or buffered",
				Value: "live",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Disable the TUI, print lines and events directly",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress the result summary",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			// Storage flags
			&cli.StringFlag{
				Name:  "storage-backend",
				Usage: "Storage backend: fs or s3",
				Value: "fs",
			},
			&cli.StringFlag{
				Name:  "storage-path",
				Usage: "Storage path (fs: directory, s3: bucket/prefix); empty disables persistence",
			},
			&cli.StringFlag{
				Name:  "storage-region",
				Usage: "AWS region for the s3 backend",
			},
			&cli.StringFlag{
				Name:  "storage-endpoint",
				Usage: "Custom S3 endpoint URL (R2, MinIO)",
			},
			&cli.BoolFlag{
				Name:  "s3-path-style",
				Usage: "Force path-style S3 addressing",
			},
			// Adapter flags
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Completion adapter: webhook or redis",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Adapter endpoint (webhook URL or redis URL)",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel",
			},
		},
		Action: convertAction,
	}
}

// convertChoice holds the merged flag and config file settings for one
// conversion.
type convertChoice struct {
	imagePath string
	serverURL string
	requestID string
	heuristic bool
	stream    bool
	pace      time.Duration
	mode      string
	plain     bool
	quiet     bool
	debug     bool

	storage config.StorageConfig
	adapter config.AdapterConfig
}

func convertAction(c *cli.Context) error {
	choice, err := resolveChoice(c)
	if err != nil {
		return cli.Exit(err.Error(), runtime.OutcomeTransportError.ExitCode())
	}

	meta := types.ConversionMeta{
		RequestID: choice.requestID,
		Heuristic: choice.heuristic,
	}

	svc, err := client.New(client.Config{BaseURL: choice.serverURL})
	if err != nil {
		return cli.Exit(err.Error(), runtime.OutcomeTransportError.ExitCode())
	}

	st, err := buildStore(choice.storage)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to create store: %v", err), runtime.OutcomeTransportError.ExitCode())
	}
	if st != nil {
		defer func() { _ = st.Close() }()
	}

	ad, err := buildAdapter(choice.adapter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to create adapter: %v", err), runtime.OutcomeTransportError.ExitCode())
	}
	if ad != nil {
		defer func() { _ = ad.Close() }()
	}

	// Signal handling: first SIGINT/SIGTERM cancels the conversion.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	if !choice.stream {
		return convertBlocking(ctx, choice, meta, svc, st)
	}

	storageBackend := ""
	if st != nil {
		storageBackend = st.Backend()
	}
	collector := metrics.NewCollector(choice.mode, storageBackend, meta.RequestID)

	if choice.plain {
		return convertPlain(ctx, choice, meta, svc, st, ad, collector)
	}
	return convertTUI(ctx, cancel, choice, meta, svc, st, ad, collector)
}

// convertBlocking calls the non-streaming endpoint and prints or persists
// the finished document.
func convertBlocking(ctx context.Context, choice convertChoice, meta types.ConversionMeta, svc *client.Client, st store.Store) error {
	logger := buildLogger(choice, meta)
	logger.Info("starting blocking conversion", nil)

	result, err := svc.Convert(ctx, client.Request{ImagePath: choice.imagePath, Meta: meta})
	if err != nil {
		outcome := runtime.OutcomeTransportError
		if ctx.Err() != nil {
			outcome = runtime.OutcomeCanceled
		}
		return cli.Exit(fmt.Sprintf("conversion failed: %v", err), outcome.ExitCode())
	}

	if st != nil {
		saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		path, saveErr := st.SaveArtifact(saveCtx, meta.RequestID, []byte(result.Code))
		saveCancel()
		if saveErr != nil {
			logger.Warn("failed to save artifact", map[string]any{"error": saveErr.Error()})
		} else if !choice.quiet {
			fmt.Fprintf(os.Stderr, "saved %s\n", path)
		}
	}

	fmt.Print(result.Code)
	if !choice.quiet {
		fmt.Fprintf(os.Stderr, "\nrequest_id=%s message=%q\n", result.RequestID, result.Message)
	}
	return cli.Exit("", runtime.OutcomeSuccess.ExitCode())
}

// convertPlain runs a streaming conversion with direct text output: document
// lines to stdout, status events to stderr.
func convertPlain(ctx context.Context, choice convertChoice, meta types.ConversionMeta, svc *client.Client, st store.Store, ad adapter.Adapter, collector *metrics.Collector) error {
	paced := runtime.NewPacedSink(ctx, newPlainSink(os.Stdout, os.Stderr), choice.pace)
	pol := buildPolicy(choice.mode, paced)
	defer func() { _ = pol.Close() }()

	orch := runtime.NewRunOrchestrator(&runtime.RunConfig{
		Meta: meta,
		OpenStream: func(ctx context.Context) (io.ReadCloser, error) {
			return svc.ConvertStream(ctx, client.Request{ImagePath: choice.imagePath, Meta: meta})
		},
		Policy:    pol,
		Store:     st,
		Adapter:   ad,
		Collector: collector,
		Logger:    buildLogger(choice, meta),
	})

	result, _ := orch.Execute(ctx)
	_ = paced.Close()

	if !choice.quiet {
		printConvertSummary(result, collector)
	}
	return cli.Exit("", result.Outcome.ExitCode())
}

// convertTUI runs a streaming conversion behind the live Bubble Tea view.
func convertTUI(ctx context.Context, cancel context.CancelFunc, choice convertChoice, meta types.ConversionMeta, svc *client.Client, st store.Store, ad adapter.Adapter, collector *metrics.Collector) error {
	var result *runtime.RunResult

	model := tui.NewConvertModel(meta.RequestID, cancel)
	err := tui.RunConvertTUI(model, func(p *tea.Program) {
		paced := runtime.NewPacedSink(ctx, tui.NewSink(p), choice.pace)
		pol := buildPolicy(choice.mode, paced)

		orch := runtime.NewRunOrchestrator(&runtime.RunConfig{
			Meta: meta,
			OpenStream: func(ctx context.Context) (io.ReadCloser, error) {
				return svc.ConvertStream(ctx, client.Request{ImagePath: choice.imagePath, Meta: meta})
			},
			Policy:    pol,
			Store:     st,
			Adapter:   ad,
			Collector: collector,
			// Structured output would corrupt the alternate screen.
			Logger: log.Nop(),
		})

		go func() {
			res, runErr := orch.Execute(ctx)
			_ = paced.Close()
			_ = pol.Close()
			result = res
			p.Send(tui.DoneMsg{Outcome: string(res.Outcome), Err: runErr})
		}()
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("TUI failed: %v", err), runtime.OutcomeTransportError.ExitCode())
	}

	if result == nil {
		// User quit before the conversion finished; cancellation is already
		// in flight.
		return cli.Exit("", runtime.OutcomeCanceled.ExitCode())
	}
	if !choice.quiet {
		printConvertSummary(result, collector)
	}
	return cli.Exit("", result.Outcome.ExitCode())
}

// resolveChoice merges CLI flags over config file values. Flags win when
// set explicitly.
func resolveChoice(c *cli.Context) (convertChoice, error) {
	choice := convertChoice{
		serverURL: defaultServerURL,
		stream:    true,
		pace:      c.Duration("pace"),
		mode:      c.String("mode"),
		plain:     c.Bool("plain"),
		quiet:     c.Bool("quiet"),
		debug:     c.Bool("debug"),
		heuristic: c.Bool("heuristic"),
		requestID: c.String("request-id"),
	}

	if c.NArg() >= 1 {
		choice.imagePath = c.Args().First()
	}
	if choice.imagePath == "" {
		return choice, fmt.Errorf("image path required: pagesmith convert <image>")
	}

	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return choice, err
		}
		if cfg.Server.URL != "" {
			choice.serverURL = cfg.Server.URL
		}
		if cfg.Convert.Stream != nil {
			choice.stream = *cfg.Convert.Stream
		}
		if cfg.Convert.Heuristic != nil && !c.IsSet("heuristic") {
			choice.heuristic = *cfg.Convert.Heuristic
		}
		if cfg.Convert.Pace.Duration > 0 && !c.IsSet("pace") {
			choice.pace = cfg.Convert.Pace.Duration
		}
		choice.storage = cfg.Storage
		choice.adapter = cfg.Adapter
	}

	if c.IsSet("server") {
		choice.serverURL = c.String("server")
	}
	if c.Bool("no-stream") {
		choice.stream = false
	}
	if c.IsSet("storage-backend") || choice.storage.Backend == "" {
		choice.storage.Backend = c.String("storage-backend")
	}
	if c.IsSet("storage-path") {
		path := c.String("storage-path")
		if choice.storage.Backend == "s3" {
			choice.storage.Bucket, choice.storage.Prefix = store.ParseS3Path(path)
		} else {
			choice.storage.Root = path
		}
	}
	if c.IsSet("storage-region") {
		choice.storage.Region = c.String("storage-region")
	}
	if c.IsSet("storage-endpoint") {
		choice.storage.Endpoint = c.String("storage-endpoint")
	}
	if c.IsSet("s3-path-style") {
		choice.storage.S3PathStyle = c.Bool("s3-path-style")
	}
	if c.IsSet("adapter") {
		choice.adapter.Type = c.String("adapter")
	}
	if c.IsSet("adapter-url") {
		choice.adapter.URL = c.String("adapter-url")
	}
	if c.IsSet("adapter-channel") {
		choice.adapter.Channel = c.String("adapter-channel")
	}

	switch choice.mode {
	case "live", "buffered":
	default:
		return choice, fmt.Errorf("invalid mode: %s (must be live or buffered)", choice.mode)
	}

	if choice.requestID == "" {
		choice.requestID = newRequestID()
	}

	// The TUI needs a terminal; fall back to plain output when stdout is
	// redirected.
	if !choice.plain && !isTTY(os.Stdout) {
		choice.plain = true
	}
	return choice, nil
}

// buildStore creates a store from the merged config. An fs backend without
// a root disables persistence rather than failing.
func buildStore(cfg config.StorageConfig) (store.Store, error) {
	switch cfg.Backend {
	case "", "fs":
		if cfg.Root == "" {
			return nil, nil
		}
		return store.NewFSStore(cfg.Root)
	case "s3":
		if cfg.Bucket == "" {
			return nil, nil
		}
		return store.NewS3Store(context.Background(), store.S3Config{
			Bucket:       cfg.Bucket,
			Prefix:       cfg.Prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (must be fs or s3)", cfg.Backend)
	}
}

// buildAdapter creates a completion adapter from the merged config.
func buildAdapter(cfg config.AdapterConfig) (adapter.Adapter, error) {
	retries := -1
	if cfg.Retries != nil {
		retries = *cfg.Retries
	}

	switch cfg.Type {
	case "":
		return nil, nil
	case "webhook":
		wcfg := webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: webhook.DefaultRetries,
		}
		if retries >= 0 {
			wcfg.Retries = retries
		}
		return webhook.New(wcfg)
	case "redis":
		rcfg := redisadapter.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: redisadapter.DefaultRetries,
		}
		if retries >= 0 {
			rcfg.Retries = retries
		}
		return redisadapter.New(rcfg)
	default:
		return nil, fmt.Errorf("unknown adapter: %s (must be webhook or redis)", cfg.Type)
	}
}

func buildPolicy(mode string, sink policy.Sink) policy.Policy {
	if mode == "buffered" {
		return policy.NewBufferedPolicy(sink)
	}
	return policy.NewLivePolicy(sink)
}

func buildLogger(choice convertChoice, meta types.ConversionMeta) *log.Logger {
	if choice.debug {
		return log.NewDebugLogger(meta)
	}
	return log.NewLogger(meta)
}

func printConvertSummary(result *runtime.RunResult, collector *metrics.Collector) {
	snap := collector.Snapshot()
	fmt.Fprintf(os.Stderr, "\noutcome=%s duration=%s code_bytes=%d events=%d\n",
		result.Outcome,
		result.Duration.Round(time.Millisecond),
		len(result.Code),
		len(result.Session.Events()),
	)
	fmt.Fprintf(os.Stderr, "lines: code=%d status=%d ignored=%d fallbacks=%d\n",
		snap.CodeLines, snap.StatusEvents, snap.IgnoredLines, snap.DecodeFallbacks)
	if result.StoragePath != "" {
		fmt.Fprintf(os.Stderr, "artifact: %s\n", result.StoragePath)
	}
	if result.TracePath != "" {
		fmt.Fprintf(os.Stderr, "trace: %s\n", result.TracePath)
	}
	if result.Err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", result.Err)
	}
}

// newRequestID generates a random request ID.
func newRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return "req-" + hex.EncodeToString(b[:])
}

// isTTY returns true if the file is a terminal.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
