// ABOUTME: Terminal client for the scribe document chat service
// ABOUTME: Readline-style REPL with streaming replies, slash commands, and @mentions

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/2389/scribe/internal/api"
	"github.com/2389/scribe/internal/chat"
	"github.com/2389/scribe/internal/config"
	"github.com/2389/scribe/internal/docctx"
	"github.com/2389/scribe/internal/export"
	"github.com/2389/scribe/internal/statestore"
)

// Version is set by goreleaser at build time.
var version = "dev"

// getConfigPath returns the path to the scribe config file.
// Priority: SCRIBE_CONFIG env var > XDG_CONFIG_HOME/scribe/config.yaml > ~/.config/scribe/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SCRIBE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "scribe", "config.yaml")
}

// getDataPath returns the path to the scribe data directory.
// Priority: XDG_DATA_HOME/scribe > ~/.local/share/scribe
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "scribe")
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Logs go to stderr so they never interleave with streamed replies.
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func main() {
	configPath := flag.String("config", getConfigPath(), "Path to config file")
	server := flag.String("server", "", "Chat service URL (overrides config)")
	model := flag.String("model", "", "Model to answer with (overrides config)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("scribe %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.Server.BaseURL = *server
	}
	if *model != "" {
		cfg.Chat.Model = *model
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// apiAdapter narrows the HTTP client to what the chat controller consumes.
type apiAdapter struct {
	*api.Client
}

func (a apiAdapter) SendMessage(ctx context.Context, req api.SendMessageRequest) (chat.FrameStream, error) {
	return a.Client.SendMessage(ctx, req)
}

// printer renders streamed replies to the terminal.
type printer struct {
	assistant *color.Color
	errc      *color.Color
	streamed  string
}

func newPrinter() *printer {
	return &printer{
		assistant: color.New(color.FgGreen),
		errc:      color.New(color.FgRed),
	}
}

func (p *printer) Typing(chunk, partial string) {
	p.assistant.Print(chunk)
	p.streamed = partial
}

func (p *printer) Committed(msg chat.Message) {
	if msg.Role != chat.RoleAssistant {
		return
	}
	streamed := p.streamed
	p.streamed = ""

	// The happy path already printed everything chunk by chunk.
	if msg.Content == streamed {
		fmt.Println()
		return
	}
	if streamed != "" {
		fmt.Println()
	}
	if strings.HasPrefix(msg.Content, "Error: ") {
		p.errc.Println(msg.Content)
		return
	}
	fmt.Println(msg.Content)
}

// repl holds the interactive session state.
type repl struct {
	ctrl      *chat.Controller
	client    *api.Client
	selector  *docctx.Selector
	documents []api.Document
	logger    *slog.Logger
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = filepath.Join(getDataPath(), "state.db")
	}
	store, err := statestore.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer store.Close()

	client := api.New(cfg.Server.BaseURL, cfg.Server.RequestTimeout)
	selector := docctx.NewSelector()
	ctrl := chat.New(apiAdapter{client}, store, selector, chat.Options{
		Model:    cfg.Chat.Model,
		TopK:     cfg.Chat.TopK,
		Listener: newPrinter(),
	})
	ctrl.Initialize(ctx)

	r := &repl{
		ctrl:     ctrl,
		client:   client,
		selector: selector,
		logger:   slog.Default().With("component", "repl"),
	}
	r.refreshDocuments(ctx)

	fmt.Printf("scribe %s connected to %s\n", version, cfg.Server.BaseURL)
	if sid := ctrl.SessionID(); sid != "" {
		if n := len(ctrl.History()); n > 0 {
			fmt.Printf("Resumed conversation (%d messages). /new starts fresh.\n", n)
		}
	} else {
		fmt.Println("No session yet; the server may be unreachable. Messages are disabled until one exists.")
	}
	fmt.Println("Type a message and press Enter. /help for commands.")
	fmt.Println()

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	historyFile := filepath.Join(getDataPath(), "input_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer saveInputHistory(line, historyFile)

	for {
		input, err := line.Prompt("scribe> ")
		if err != nil {
			// Ctrl+C or Ctrl+D
			fmt.Println("\nGoodbye!")
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := r.handleCommand(ctx, input); quit {
				fmt.Println("Goodbye!")
				return nil
			}
			fmt.Println()
			continue
		}

		// @mentions pull documents into the retrieval context before the
		// message goes out.
		for _, id := range docctx.ParseMentions(input, r.mentionRefs()) {
			if !r.selector.IsSelected(id) {
				r.selector.Mention(id)
				fmt.Printf("Added %s to context\n", r.documentName(id))
			}
		}

		r.ctrl.Submit(ctx, input)
		fmt.Println()
	}
}

func saveInputHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}

// handleCommand dispatches a slash command. Returns true when the REPL
// should exit.
func (r *repl) handleCommand(ctx context.Context, input string) bool {
	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/quit", "/exit", "/q":
		return true
	case "/help":
		printHelp()
	case "/new":
		r.ctrl.StartNewConversation(ctx)
		if r.ctrl.SessionID() == "" {
			color.Red("Could not create a new session; check the server.")
		} else {
			fmt.Println("Started a new conversation.")
		}
	case "/docs":
		r.refreshDocuments(ctx)
		r.printDocuments()
	case "/use":
		r.toggleDocument(args)
	case "/all":
		ids := make([]string, len(r.documents))
		for i, d := range r.documents {
			ids[i] = d.ID
		}
		r.selector.ToggleAll(ids)
		r.printContext()
	case "/context":
		r.printContext()
	case "/model":
		r.handleModel(ctx, args)
	case "/rm":
		r.deleteDocument(ctx, args)
	case "/export":
		r.exportConversation(args)
	default:
		fmt.Printf("Unknown command %s. /help lists commands.\n", cmd)
	}
	return false
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /docs            List documents (selected ones marked)")
	fmt.Println("  /use <doc>       Toggle a document in the retrieval context (name, id, or number)")
	fmt.Println("  /all             Select every document, or clear an explicit selection")
	fmt.Println("  /context         Show the current retrieval context")
	fmt.Println("  /model [name]    List available models, or set the one to answer with")
	fmt.Println("  /rm <doc>        Delete a document from the service")
	fmt.Println("  /export [fmt]    Export the conversation (markdown or html)")
	fmt.Println("  /new             Start a new conversation")
	fmt.Println("  /help            Show this help")
	fmt.Println("  /quit            Exit")
	fmt.Println()
	fmt.Println("Mention a document with @name to pull it into the context.")
}

func (r *repl) refreshDocuments(ctx context.Context) {
	docs, err := r.client.ListDocuments(ctx)
	if err != nil {
		r.logger.Warn("failed to fetch documents", "error", err)
		return
	}
	r.documents = docs
}

func (r *repl) printDocuments() {
	if len(r.documents) == 0 {
		fmt.Println("No documents uploaded.")
		return
	}
	cyan := color.New(color.FgCyan)
	for i, d := range r.documents {
		marker := " "
		if r.selector.IsSelected(d.ID) {
			marker = "*"
		}
		fmt.Printf("%s %2d. ", marker, i+1)
		cyan.Print(d.Filename)
		fmt.Printf("  (%s, %s)\n", formatSize(d.Size), d.ID)
	}
}

func (r *repl) printContext() {
	selected := r.selector.EffectiveContext()
	if selected == nil {
		fmt.Println("Context: all documents")
		return
	}
	names := make([]string, len(selected))
	for i, id := range selected {
		names[i] = r.documentName(id)
	}
	fmt.Printf("Context: %s\n", strings.Join(names, ", "))
}

// toggleDocument resolves a user-supplied reference (list number, id, or
// filename) and flips its selection.
func (r *repl) toggleDocument(ref string) {
	if ref == "" {
		fmt.Println("Usage: /use <doc>")
		return
	}

	id := r.resolveDocument(ref)
	if id == "" {
		fmt.Printf("No document matches %q. /docs lists them.\n", ref)
		return
	}

	r.selector.Toggle(id)
	if r.selector.IsSelected(id) {
		fmt.Printf("Added %s to context\n", r.documentName(id))
	} else {
		fmt.Printf("Removed %s from context\n", r.documentName(id))
	}
}

func (r *repl) resolveDocument(ref string) string {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(r.documents) {
		return r.documents[n-1].ID
	}
	for _, d := range r.documents {
		if d.ID == ref || strings.EqualFold(d.Filename, ref) {
			return d.ID
		}
	}
	return ""
}

func (r *repl) documentName(id string) string {
	for _, d := range r.documents {
		if d.ID == id {
			return d.Filename
		}
	}
	return id
}

func (r *repl) mentionRefs() []docctx.DocumentRef {
	refs := make([]docctx.DocumentRef, len(r.documents))
	for i, d := range r.documents {
		refs[i] = docctx.DocumentRef{ID: d.ID, Name: d.Filename}
	}
	return refs
}

func (r *repl) handleModel(ctx context.Context, name string) {
	if name == "" {
		models, err := r.client.ListModels(ctx)
		if err != nil {
			color.Red("Could not fetch models: %v", err)
			return
		}
		current := r.ctrl.Model()
		if current == "" {
			current = "(server default)"
		}
		fmt.Printf("Current model: %s\n", current)
		for _, m := range models {
			fmt.Printf("  %s\n", m)
		}
		return
	}

	r.ctrl.SetModel(name)
	fmt.Printf("Now answering with %s\n", name)
}

func (r *repl) deleteDocument(ctx context.Context, ref string) {
	if ref == "" {
		fmt.Println("Usage: /rm <doc>")
		return
	}
	id := r.resolveDocument(ref)
	if id == "" {
		fmt.Printf("No document matches %q. /docs lists them.\n", ref)
		return
	}

	name := r.documentName(id)
	if err := r.client.DeleteDocument(ctx, id); err != nil {
		color.Red("Could not delete %s: %v", name, err)
		return
	}
	// Drop it from the selection too; a deleted document must not linger
	// in the retrieval context.
	if r.selector.IsSelected(id) {
		r.selector.Toggle(id)
	}
	r.refreshDocuments(ctx)
	fmt.Printf("Deleted %s\n", name)
}

func (r *repl) exportConversation(formatName string) {
	history := r.ctrl.History()
	if len(history) == 0 {
		fmt.Println("Nothing to export yet.")
		return
	}

	format, err := export.ParseFormat(formatName)
	if err != nil {
		color.Red("%v", err)
		return
	}

	path, err := export.ToFile(".", format, history, export.Metadata{
		SessionID: r.ctrl.SessionID(),
		Model:     r.ctrl.Model(),
	})
	if err != nil {
		color.Red("Export failed: %v", err)
		return
	}
	fmt.Printf("Exported to %s\n", path)
}

// formatSize renders a byte count for display.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
