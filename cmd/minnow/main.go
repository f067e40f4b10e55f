// ABOUTME: Interactive chat client for the minnow platform
// ABOUTME: Readline-style input with live streamed responses over the push channel

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/minnowchat/minnow/internal/api"
	"github.com/minnowchat/minnow/internal/chat"
	"github.com/minnowchat/minnow/internal/config"
	"github.com/minnowchat/minnow/internal/draft"
	"github.com/minnowchat/minnow/internal/flow"
	"github.com/minnowchat/minnow/internal/idgen"
	"github.com/minnowchat/minnow/internal/prefs"
	"github.com/minnowchat/minnow/internal/session"
	"github.com/minnowchat/minnow/internal/store"
	"github.com/minnowchat/minnow/internal/stream"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $MINNOW_CONFIG or ~/.config/minnow/config.yaml)")
	flag.Parse()

	cfg, err := config.Load(resolveConfigPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	cyan.Printf("minnow %s\n", version)
	gray.Printf("conversation service: %s\n", cfg.Platform.ConversationURL)
	gray.Printf("push channel:         %s\n\n", cfg.Stream.URL)
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	if err := run(ctx, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

// resolveConfigPath picks the config file: flag, then MINNOW_CONFIG, then
// the XDG config directory.
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv("MINNOW_CONFIG"); p != "" {
		return p
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "minnow", "config.yaml")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	conversationClient, err := api.NewConversationClient(cfg.Platform.ConversationURL, nil)
	if err != nil {
		return fmt.Errorf("creating conversation client: %w", err)
	}
	userClient, err := api.NewUserClient(cfg.Platform.UserURL, nil)
	if err != nil {
		return fmt.Errorf("creating user client: %w", err)
	}

	var skillSetClient *api.SkillSetClient
	if cfg.Platform.SkillSetURL != "" {
		skillSetClient, err = api.NewSkillSetClient(cfg.Platform.SkillSetURL, nil)
		if err != nil {
			return fmt.Errorf("creating skill-set client: %w", err)
		}
	}

	sess := session.New(userClient, logger)
	if err := sess.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrapping session: %w", err)
	}

	st := store.New(logger)
	svc := flow.New(conversationClient, sess, st, logger)
	hub := stream.NewHub(cfg.Stream.URL, cfg.Stream.ReconnectDelay, st, logger)

	release := hub.Acquire()
	defer release()

	if err := svc.Refresh(ctx); err != nil {
		logger.Warn("initial conversation fetch failed", "error", err)
	}

	preferences, err := prefs.Open(resolvePrefsPath(cfg))
	if err != nil {
		return fmt.Errorf("opening preferences: %w", err)
	}
	defer preferences.Close()

	cli := &client{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		flows:     svc,
		skillSets: skillSetClient,
		session:   sess,
		prefs:     preferences,
		drafts:    draft.NewManager(),
	}
	cli.loadPreferences()

	go cli.render(ctx)

	return cli.inputLoop(ctx)
}

func resolvePrefsPath(cfg *config.Config) string {
	if cfg.Prefs.Path != "" {
		return cfg.Prefs.Path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "minnow-prefs.db"
	}
	return filepath.Join(homeDir, ".config", "minnow", "prefs.db")
}

// client holds the interactive loop's state.
type client struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	flows     *flow.Service
	skillSets *api.SkillSetClient
	session   *session.Session
	prefs     *prefs.Store
	drafts    *draft.Manager

	mu          sync.Mutex
	current     string // open conversation id, "" while composing a new one
	selector    chat.ModelSelector
	skillSetIDs []string
}

func (c *client) loadPreferences() {
	c.selector = chat.ModelSelector{
		ProviderID: c.cfg.Defaults.ProviderID,
		ModelID:    c.cfg.Defaults.ModelID,
	}
	if saved, found, err := c.prefs.LastModelSelector(); err == nil && found {
		c.selector = saved
	}
	if ids, err := c.prefs.LastSkillSetIDs(); err == nil {
		c.skillSetIDs = ids
	}
}

func (c *client) inputLoop(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		c.printPrompt()

		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)
		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else if err := scanner.Err(); err != nil {
				errCh <- err
			} else {
				errCh <- io.EOF
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			done, err := c.handleCommand(ctx, input)
			if err != nil {
				color.Red("[error] %v", err)
			}
			if done {
				return nil
			}
			continue
		}

		if err := c.send(ctx, input); err != nil {
			color.Red("[error] %v", err)
		}
	}
}

func (c *client) printPrompt() {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()

	if current == "" {
		fmt.Print("> ")
		return
	}
	title := current
	if conv, ok := c.store.Conversation(current); ok {
		title = conv.TitleOrDefault(current)
	}
	color.New(color.FgCyan).Printf("[%s]", title)
	fmt.Print("> ")
}

func (c *client) handleCommand(ctx context.Context, input string) (done bool, err error) {
	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/quit", "/exit", "/q":
		return true, nil
	case "/help":
		c.printHelp()
	case "/list":
		c.printConversations()
	case "/new":
		c.mu.Lock()
		c.current = ""
		c.mu.Unlock()
		fmt.Println("Composing a new conversation. Next message starts it.")
	case "/open":
		err = c.openConversation(args)
	case "/refresh":
		err = c.flows.Refresh(ctx)
	case "/model":
		err = c.setModel(args)
	case "/skills":
		err = c.listSkillSets(ctx)
	case "/use-skills":
		err = c.setSkillSets(args)
	case "/delete":
		err = c.deleteConversation(ctx, args)
	case "/exclude":
		err = c.setExcluded(ctx, args, true)
	case "/include":
		err = c.setExcluded(ctx, args, false)
	default:
		fmt.Printf("Unknown command %s. /help for commands.\n", cmd)
	}
	return false, err
}

func (c *client) printHelp() {
	fmt.Println(`Commands:
  /list                list conversations
  /open <n|id>         open a conversation from /list
  /new                 compose a new conversation
  /refresh             re-fetch conversations from the platform
  /model <prov> <id>   pick the model for submissions
  /skills              list available skill sets
  /use-skills <ids>    attach skill sets (comma-separated, empty clears)
  /delete [id]         delete the open (or named) conversation
  /exclude <id>        exclude an interaction from model context
  /include <id>        undo an exclusion
  /quit                exit`)
}

func (c *client) printConversations() {
	conversations := c.store.Conversations()
	if len(conversations) == 0 {
		fmt.Println("No conversations. Type a message to start one.")
		return
	}
	gray := color.New(color.FgHiBlack)
	for i, conv := range conversations {
		fmt.Printf("%2d. %s ", i+1, conv.TitleOrDefault("(untitled)"))
		gray.Printf("%s, %d messages\n", conv.ID, len(conv.Interactions))
	}
}

func (c *client) openConversation(arg string) error {
	if arg == "" {
		return fmt.Errorf("usage: /open <n|id>")
	}

	conversations := c.store.Conversations()
	id := arg
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(conversations) {
			return fmt.Errorf("no conversation %d; see /list", n)
		}
		id = conversations[n-1].ID
	}

	conv, ok := c.store.Conversation(id)
	if !ok {
		return fmt.Errorf("unknown conversation %q", id)
	}

	c.mu.Lock()
	c.current = conv.ID
	c.mu.Unlock()

	c.printTranscript(conv.ID)
	return nil
}

// printTranscript replays an opened conversation's completed interactions.
func (c *client) printTranscript(conversationID string) {
	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	for _, interaction := range c.store.Interactions(conversationID) {
		if interaction.Owner.Type == chat.ActorTypeUser {
			green.Print("you: ")
		} else {
			green.Print("bot: ")
		}
		fmt.Println(interaction.MessageContent)
		if interaction.MarkedAsExcludedAt != nil {
			gray.Printf("     (excluded: %s)\n", interaction.ID)
		}
		for _, rec := range interaction.Errors {
			color.Red("     %v", rec)
		}
	}
}

func (c *client) setModel(args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return fmt.Errorf("usage: /model <provider_id> <model_id>")
	}
	selector := chat.ModelSelector{ProviderID: fields[0], ModelID: fields[1]}

	c.mu.Lock()
	c.selector = selector
	c.mu.Unlock()

	if err := c.prefs.SaveModelSelector(selector); err != nil {
		c.logger.Warn("saving model preference failed", "error", err)
	}
	fmt.Printf("Model set to %s/%s\n", selector.ProviderID, selector.ModelID)
	return nil
}

func (c *client) listSkillSets(ctx context.Context) error {
	if c.skillSets == nil {
		return fmt.Errorf("no skill-set service configured")
	}
	actor, ok := c.session.Actor()
	if !ok {
		return flow.ErrNoCurrentUser
	}

	resp, err := c.skillSets.ListSkillSetsByOwner(ctx, &api.ListSkillSetsByOwnerRequest{Owner: actor})
	if err != nil {
		return err
	}
	if len(resp.SkillSets) == 0 {
		fmt.Println("No skill sets.")
		return nil
	}
	gray := color.New(color.FgHiBlack)
	for _, ss := range resp.SkillSets {
		fmt.Printf("  %s %s ", ss.Icon, ss.Name)
		gray.Printf("%s — %s\n", ss.ID, ss.Description)
	}
	return nil
}

func (c *client) setSkillSets(args string) error {
	var ids []string
	for _, id := range strings.Split(args, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	c.mu.Lock()
	c.skillSetIDs = ids
	c.mu.Unlock()

	if err := c.prefs.SaveSkillSetIDs(ids); err != nil {
		c.logger.Warn("saving skill-set preference failed", "error", err)
	}
	if len(ids) == 0 {
		fmt.Println("Skill sets cleared.")
	} else {
		fmt.Printf("Using skill sets: %s\n", strings.Join(ids, ", "))
	}
	return nil
}

func (c *client) deleteConversation(ctx context.Context, arg string) error {
	c.mu.Lock()
	id := c.current
	c.mu.Unlock()
	if arg != "" {
		id = arg
	}
	if id == "" {
		return fmt.Errorf("no conversation open; /delete <id>")
	}

	if err := c.flows.DeleteConversations(ctx, []string{id}); err != nil {
		return err
	}

	c.mu.Lock()
	if c.current == id {
		c.current = ""
	}
	c.mu.Unlock()
	fmt.Printf("Deleted %s\n", id)
	return nil
}

func (c *client) setExcluded(ctx context.Context, arg string, excluded bool) error {
	if arg == "" {
		return fmt.Errorf("usage: /exclude <interaction_id>")
	}
	return c.flows.SetExcluded(ctx, arg, excluded)
}

// send submits the typed prompt, starting a conversation if none is open.
func (c *client) send(ctx context.Context, prompt string) error {
	c.mu.Lock()
	current := c.current
	selector := c.selector
	skillSetIDs := append([]string(nil), c.skillSetIDs...)
	c.mu.Unlock()

	draftKey := current
	if draftKey == "" {
		draftKey = draft.ComposeKey
	}
	c.drafts.SetPrompt(draftKey, prompt)

	key := idgen.Key()

	if current == "" {
		result, err := c.flows.Start(ctx, flow.StartRequest{
			IdempotencyKey: key,
			Prompt:         prompt,
			ModelSelector:  selector,
			SkillSetIDs:    skillSetIDs,
		})
		if err != nil {
			return err
		}
		c.drafts.Promote(result.ConversationID)
		c.drafts.Clear(result.ConversationID)

		c.mu.Lock()
		c.current = result.ConversationID
		c.mu.Unlock()
		return nil
	}

	_, err := c.flows.Continue(ctx, flow.ContinueRequest{
		ConversationID: current,
		IdempotencyKey: key,
		Prompt:         prompt,
		ModelSelector:  selector,
		SkillSetIDs:    skillSetIDs,
	})
	if err != nil {
		return err
	}
	c.drafts.Clear(current)
	return nil
}

// render follows store changes and prints streamed response content for the
// open conversation as it arrives.
func (c *client) render(ctx context.Context) {
	changes, _ := c.store.Notifier().Subscribe(ctx)

	printed := make(map[string]int) // interaction id -> content bytes printed
	finished := make(map[string]bool)
	errored := make(map[string]int)

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}

			c.mu.Lock()
			current := c.current
			c.mu.Unlock()
			if change.Kind != store.ChangeConversation || change.ConversationID != current {
				continue
			}

			for _, interaction := range c.store.Interactions(current) {
				if interaction.Owner.Type != chat.ActorTypeBot {
					continue
				}

				if n := len(interaction.MessageContent); n > printed[interaction.ID] {
					fmt.Print(interaction.MessageContent[printed[interaction.ID]:])
					printed[interaction.ID] = n
				}
				if interaction.CompletedAt != nil && !finished[interaction.ID] {
					finished[interaction.ID] = true
					fmt.Println()
				}
				for _, rec := range interaction.Errors[errored[interaction.ID]:] {
					color.Red("\n[stream error] %v", rec)
				}
				errored[interaction.ID] = len(interaction.Errors)
			}
		}
	}
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
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
// Log lines go to stderr so they never interleave with chat output on stdout.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Fprint(os.Stderr, buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
