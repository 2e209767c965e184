package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chris/copiloto/config"
	"github.com/chris/copiloto/internal/agent"
	"github.com/chris/copiloto/internal/db"
	"github.com/chris/copiloto/internal/discord"
	"github.com/chris/copiloto/internal/intent"
	"github.com/chris/copiloto/internal/llm"
	"github.com/chris/copiloto/internal/notes"
	"github.com/chris/copiloto/internal/scheduler"
	"github.com/chris/copiloto/internal/server"
	"github.com/chris/copiloto/internal/service"
	"github.com/chris/copiloto/internal/tools"
)

const usage = `usage: copiloto [command]

commands:
  serve      run the HTTP server (default)
  chat       talk to the memory profile on stdin
  install    install as a launchd user agent
  uninstall  remove the launchd agent and binary
  start | stop | restart | status | logs`

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	layout := service.DefaultLayout()
	var err error
	switch cmd {
	case "serve":
		err = serve(config.Load())
	case "chat":
		err = chat(config.Load())
	case "install":
		err = service.Install(layout)
	case "uninstall":
		err = service.Uninstall(layout)
	case "start":
		err = service.Start(layout)
	case "stop":
		err = service.Stop(layout)
	case "restart":
		err = service.Restart(layout)
	case "status":
		err = service.Status(layout)
	case "logs":
		err = service.Logs(layout)
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

type app struct {
	agent      *agent.Agent
	classifier *intent.Classifier
	profiles   map[string]agent.Profile
	pruner     notes.Pruner
	close      func()
}

func build(cfg *config.Config) (*app, error) {
	apiKey := cfg.OpenAIKey
	if cfg.LLMProvider == "anthropic" {
		apiKey = cfg.AnthropicKey
	}
	client, err := llm.NewClient(llm.ProviderConfig{
		Provider:   cfg.LLMProvider,
		APIKey:     apiKey,
		Model:      cfg.LLMModel,
		BaseURL:    cfg.LLMBaseURL,
		Shape:      cfg.LLMAPIShape,
		Timeout:    cfg.LLMTimeout,
		MaxRetries: cfg.LLMMaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}

	policy := notes.Policy{MaxAge: cfg.NotesMaxAge, MaxPerUser: cfg.NotesMaxPerUser}
	a := &app{close: func() {}}
	var store interface {
		notes.Store
		notes.Pruner
	}
	switch cfg.NotesBackend {
	case "memory":
		store = notes.NewMemoryStore(policy)
	case "sqlite":
		database, err := db.Open(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		store = notes.NewDBStore(database, policy)
		a.close = func() { database.Close() }
	default:
		return nil, fmt.Errorf("unknown notes backend: %s", cfg.NotesBackend)
	}
	a.pruner = store

	registry := tools.NewDefault(tools.NewOpenMeteo(cfg.GeocodingURL, cfg.WeatherURL, cfg.LLMTimeout))
	a.agent = agent.New(client, registry, store, cfg.MaxContextTokens)
	a.classifier = intent.NewClassifier(client, "")
	a.profiles = agent.Profiles()
	return a, nil
}

func serve(cfg *config.Config) error {
	a, err := build(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(a.pruner)
	if err := sched.SchedulePrune(cfg.NotesPruneCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.DiscordToken != "" {
		bot, err := discord.NewBot(cfg.DiscordToken, a.agent, a.profiles["memory"], cfg.MaxContextTokens)
		if err != nil {
			return fmt.Errorf("starting Discord bot: %w", err)
		}
		defer bot.Close()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (provider %s, shape %s, notes %s)", addr, cfg.LLMProvider, cfg.LLMAPIShape, cfg.NotesBackend)
	err = server.New(a.agent, a.classifier, a.profiles, cfg.RequestTimeout).ListenAndServe(ctx, addr)
	log.Println("shutting down.")
	return err
}

func chat(cfg *config.Config) error {
	a, err := build(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	// Check if stdin is a pipe (non-interactive)
	stat, _ := os.Stdin.Stat()
	isPipe := (stat.Mode() & os.ModeCharDevice) == 0
	prompt := func() {
		if !isPipe {
			fmt.Print("copiloto> ")
		}
	}

	const user = "cli"
	var history []llm.Message
	prompt()
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			prompt()
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		turn := llm.Message{Role: llm.RoleUser, Content: input}
		reply, err := a.agent.Reply(ctx, a.profiles["memory"], user, append(history, turn))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		} else {
			fmt.Println(reply)
			history = append(history, turn, llm.Message{Role: llm.RoleAssistant, Content: reply})
		}

		if isPipe {
			break // single exchange in pipe mode
		}
		prompt()
	}
	return scanner.Err()
}
