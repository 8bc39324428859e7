package main

import (
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/gst-assistant/internal/assistant"
	"github.com/zombor/gst-assistant/internal/compliance"
	"github.com/zombor/gst-assistant/internal/llm"
	"github.com/zombor/gst-assistant/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// errReported means the failure was already written to stdout as a JSON envelope
var errReported = errors.New("reported")

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Real environment variables win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: loading .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, ff.ErrHelp):
	case errors.Is(err, errReported):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the global flags and the dependencies built from them
type app struct {
	stdout io.Writer

	provider    *string
	apiKey      *string
	baseURL     *string
	model       *string
	maxTokens   *int
	geminiKey   *string
	geminiModel *string
	ollamaURL   *string
	ollamaModel *string
	dbPath      *string
	storagePath *string
	logLevel    *string
	jsonOut     *bool

	db      *compliance.BoltDB
	records *compliance.Service
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout}

	rootFlags := ff.NewFlagSet("gst-assistant")
	a.provider = rootFlags.StringLong("provider", "fastrouter", "Model provider: 'fastrouter', 'gemini' or 'ollama'")
	a.apiKey = rootFlags.StringLong("api-key", "", "FastRouter API key (or set FASTROUTER_API_KEY env var)")
	a.baseURL = rootFlags.StringLong("base-url", llm.DefaultFastRouterURL, "FastRouter API base URL")
	a.model = rootFlags.StringLong("model", llm.DefaultFastRouterModel, "FastRouter model name")
	a.maxTokens = rootFlags.IntLong("max-tokens", llm.DefaultMaxTokens, "Completion token budget per call")
	a.geminiKey = rootFlags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
	a.geminiModel = rootFlags.StringLong("gemini-model", llm.DefaultGeminiModel, "Google Gemini model name")
	a.ollamaURL = rootFlags.StringLong("ollama-url", llm.DefaultOllamaURL, "Ollama API base URL")
	a.ollamaModel = rootFlags.StringLong("ollama-model", llm.DefaultOllamaModel, "Ollama model name (e.g., llava, qwen2-vl)")
	a.dbPath = rootFlags.StringLong("db", "gst-assistant.db", "Database file path")
	a.storagePath = rootFlags.StringLong("storage", "./invoices", "Directory for archived invoice images")
	a.logLevel = rootFlags.StringLong("log-level", "info", "Log level: debug, info, warn or error")
	a.jsonOut = rootFlags.BoolLong("json", "Print results as a {success, data, error} JSON envelope")
	_ = rootFlags.BoolLong("version", "Show version information")

	chatCmd := &ff.Command{
		Name:      "chat",
		Usage:     "gst-assistant chat MESSAGE...",
		ShortHelp: "ask the assistant about your GST position",
		Flags:     ff.NewFlagSet("chat").SetParent(rootFlags),
		Exec:      a.chat,
	}

	analyzeFlags := ff.NewFlagSet("analyze").SetParent(rootFlags)
	mimeType := analyzeFlags.StringLong("mime", "", "MIME type of the file (default: from the extension)")
	save := analyzeFlags.BoolLong("save", "Archive the invoice and store a compliance record")
	analyzeCmd := &ff.Command{
		Name:      "analyze",
		Usage:     "gst-assistant analyze [--mime TYPE] [--save] FILE",
		ShortHelp: "extract GST fields from an invoice image or PDF",
		Flags:     analyzeFlags,
		Exec: func(ctx context.Context, args []string) error {
			return a.analyze(ctx, args, *mimeType, *save)
		},
	}

	recordsCmd := &ff.Command{
		Name:      "records",
		Usage:     "gst-assistant records",
		ShortHelp: "list stored invoices, most recent first",
		Flags:     ff.NewFlagSet("records").SetParent(rootFlags),
		Exec:      a.listRecords,
	}

	statsCmd := &ff.Command{
		Name:      "stats",
		Usage:     "gst-assistant stats",
		ShortHelp: "show outstanding, ITC at risk and safe to pay totals",
		Flags:     ff.NewFlagSet("stats").SetParent(rootFlags),
		Exec:      a.stats,
	}

	exportCmd := &ff.Command{
		Name:      "export",
		Usage:     "gst-assistant export ID FILE",
		ShortHelp: "write the archived image of a stored invoice to FILE",
		Flags:     ff.NewFlagSet("export").SetParent(rootFlags),
		Exec:      a.export,
	}

	deleteCmd := &ff.Command{
		Name:      "delete",
		Usage:     "gst-assistant delete ID",
		ShortHelp: "remove a stored invoice and its image",
		Flags:     ff.NewFlagSet("delete").SetParent(rootFlags),
		Exec:      a.delete,
	}

	root := &ff.Command{
		Name:        "gst-assistant",
		Usage:       "gst-assistant [FLAGS] SUBCOMMAND ...",
		ShortHelp:   "AI CFO assistant for GST invoices",
		Flags:       rootFlags,
		Subcommands: []*ff.Command{chatCmd, analyzeCmd, recordsCmd, statsCmd, exportCmd, deleteCmd},
		Exec: func(context.Context, []string) error {
			return ff.ErrHelp
		},
	}

	if err := root.Parse(args, ff.WithEnvVarPrefix("GST_ASSISTANT")); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(root.GetSelected()))
		if errors.Is(err, ff.ErrHelp) {
			return err
		}
		return fmt.Errorf("parsing flags: %w", err)
	}

	if err := a.configureLogging(stderr); err != nil {
		return err
	}
	defer a.close()

	err := root.Run(ctx)
	if errors.Is(err, ff.ErrHelp) {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(root.GetSelected()))
	}
	return err
}

func (a *app) configureLogging(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(*a.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", *a.logLevel, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// llmConfig resolves the provider settings, falling back to the
// conventional environment variables for keys
func (a *app) llmConfig() llm.Config {
	switch strings.ToLower(strings.TrimSpace(*a.provider)) {
	case "gemini":
		key := *a.geminiKey
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}
		return llm.Config{Provider: "gemini", APIKey: key, Model: *a.geminiModel, MaxTokens: *a.maxTokens}
	case "ollama":
		return llm.Config{Provider: "ollama", BaseURL: *a.ollamaURL, Model: *a.ollamaModel, MaxTokens: *a.maxTokens}
	default:
		key := *a.apiKey
		if key == "" {
			key = os.Getenv("FASTROUTER_API_KEY")
		}
		return llm.Config{Provider: *a.provider, APIKey: key, BaseURL: *a.baseURL, Model: *a.model, MaxTokens: *a.maxTokens}
	}
}

func (a *app) openRecords() (*compliance.Service, error) {
	if a.records != nil {
		return a.records, nil
	}

	slog.Debug("Initializing database...", "path", *a.dbPath)
	db, err := compliance.NewBoltDB(*a.dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	store, err := compliance.NewLocalStorage(*a.storagePath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	a.db = db
	a.records = compliance.NewService(db, store)
	return a.records, nil
}

// newAssistant builds the model and, when withRecords is set, opens the
// record store as the chat context. The store is left untouched when the
// model is not usable, since the operations then fail before any I/O.
func (a *app) newAssistant(withRecords bool) (*assistant.Service, llm.Model, error) {
	cfg := a.llmConfig()
	model, err := llm.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("Initializing model...", "provider", model.Name(), "model", cfg.Model)

	var source compliance.Source
	if withRecords && model.Ready() == nil {
		records, err := a.openRecords()
		if err != nil {
			model.Close()
			return nil, nil, err
		}
		source = records
	}

	return assistant.NewService(model, source), model, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}
}

// report prints either the plain result or the JSON envelope
func report[T any](a *app, data T, err error, plain func(io.Writer, T) error) error {
	if *a.jsonOut {
		if encErr := writeJSON(a.stdout, assistant.Respond(data, err)); encErr != nil {
			return encErr
		}
		if err != nil {
			return errReported
		}
		return nil
	}
	if err != nil {
		return err
	}
	return plain(a.stdout, data)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (a *app) chat(ctx context.Context, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return fmt.Errorf("chat: a message is required")
	}

	svc, model, err := a.newAssistant(true)
	if err != nil {
		return err
	}
	defer model.Close()

	reply, err := svc.Chat(ctx, message)
	return report(a, reply, err, func(w io.Writer, reply string) error {
		_, err := fmt.Fprintln(w, reply)
		return err
	})
}

// mimeTypeFromExt guesses the content type of an invoice file
func mimeTypeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".pdf":
		return "application/pdf"
	default:
		return "image/jpeg"
	}
}

func (a *app) analyze(ctx context.Context, args []string, mimeType string, save bool) error {
	if len(args) != 1 {
		return fmt.Errorf("analyze: exactly one FILE is required")
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if mimeType == "" {
		mimeType = mimeTypeFromExt(path)
	}

	svc, model, err := a.newAssistant(false)
	if err != nil {
		return err
	}
	defer model.Close()

	receipt, err := svc.AnalyzeReceipt(ctx, base64.StdEncoding.EncodeToString(data), mimeType)
	if err == nil && save {
		records, openErr := a.openRecords()
		if openErr != nil {
			return openErr
		}
		record, archiveErr := records.Archive(ctx, filepath.Base(path), data, mimeType, receipt)
		if archiveErr != nil {
			return fmt.Errorf("archiving invoice: %w", archiveErr)
		}
		slog.Info("Saved invoice", "id", record.ID, "file", record.Filename)
	}

	return report(a, receipt, err, func(w io.Writer, r *scanning.Receipt) error {
		return writeJSON(w, r)
	})
}

func (a *app) listRecords(ctx context.Context, _ []string) error {
	records, err := a.openRecords()
	if err != nil {
		return err
	}

	list, err := records.GetComplianceRecords(ctx)
	if err != nil {
		return err
	}
	if *a.jsonOut {
		return writeJSON(a.stdout, list)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVENDOR\tAMOUNT\tSTATUS\tGSTIN\tDATE")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t₹%s\t%s\t%s\t%s\n", r.ID, r.VendorName, r.Amount.StringFixed(2), r.Status, r.GSTIN, r.InvoiceDate)
	}
	return tw.Flush()
}

func (a *app) stats(ctx context.Context, _ []string) error {
	records, err := a.openRecords()
	if err != nil {
		return err
	}

	stats, err := records.GetStats(ctx)
	if err != nil {
		return err
	}
	if *a.jsonOut {
		return writeJSON(a.stdout, stats)
	}

	fmt.Fprintf(a.stdout, "Total Outstanding: ₹%s\n", stats.TotalOutstanding.StringFixed(2))
	fmt.Fprintf(a.stdout, "ITC at Risk:       ₹%s\n", stats.ITCAtRisk.StringFixed(2))
	fmt.Fprintf(a.stdout, "Safe to Pay:       ₹%s\n", stats.SafeToPay.StringFixed(2))
	return nil
}

func (a *app) export(_ context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("export: ID and FILE are required")
	}

	records, err := a.openRecords()
	if err != nil {
		return err
	}

	data, contentType, err := records.GetRecordFile(args[0])
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", args[1], err)
	}
	slog.Info("Exported invoice", "id", args[0], "content_type", contentType, "file", args[1])
	return nil
}

func (a *app) delete(_ context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("delete: exactly one ID is required")
	}

	records, err := a.openRecords()
	if err != nil {
		return err
	}
	if err := records.DeleteRecord(args[0]); err != nil {
		return err
	}
	slog.Info("Deleted invoice", "id", args[0])
	return nil
}
