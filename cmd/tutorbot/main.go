package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tutorbot/internal/config"
	"tutorbot/internal/embedding"
	"tutorbot/internal/logging"
	"tutorbot/internal/perception"
	"tutorbot/internal/prompt"
	"tutorbot/internal/store"
	"tutorbot/internal/tutor"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	gradeLevel string
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tutorbot",
	Short: "TutorBot - educational tutoring assistant for reading and science",
	Long: `TutorBot is an AI tutoring assistant for K-12 and college students.

It classifies each student question by subject, analyzes reading passages,
explains science concepts, and knows when to hand a struggling student over
to a human teacher.

Run without arguments to start an interactive tutoring session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

// askCmd processes a single question
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the response",
	Long: `Processes one student input through the full tutoring pipeline:
  1. Classify the educational intent (subject, query type, complexity)
  2. Route to the reading or science pipeline
  3. Decide whether the question should escalate to a human teacher`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// demoCmd runs canned demonstration inputs
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a demonstration with sample student inputs",
	RunE:  runDemo,
}

// templatesCmd inspects loaded prompt templates
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect prompt templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded prompt templates",
	RunE:  runTemplatesList,
}

var templatesShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a prompt template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesShow,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "Workspace directory")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to tutorbot.yaml (default <workspace>/.tutorbot/tutorbot.yaml)")
	rootCmd.PersistentFlags().StringVarP(&gradeLevel, "grade", "g", "", "Student grade level (elementary, middle, high, college)")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 5*time.Minute, "Timeout for a single question")

	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(templatesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime bundles everything a command needs after setup.
type runtime struct {
	cfg       *config.Config
	templates *prompt.Store
	watcher   *prompt.Watcher
	local     *store.LocalStore
	tutor     *tutor.Tutor
}

func (r *runtime) close() {
	if r.watcher != nil {
		r.watcher.Stop()
	}
	if r.local != nil {
		_ = r.local.Close()
	}
}

// setup loads config, logging, templates, the LLM client, and the
// store, and wires them into a Tutor.
func setup() (*runtime, error) {
	if err := logging.Initialize(workspace); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	path := configPath
	if path == "" {
		path = filepath.Join(workspace, ".tutorbot", "tutorbot.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	templates := prompt.NewStore(cfg.Templates.Directory)
	var watcher *prompt.Watcher
	if cfg.Templates.Directory != "" {
		if err := templates.Load(); err != nil {
			logger.Warn("Failed to load prompt templates", zap.Error(err))
		}
		if cfg.Templates.WatchReload {
			watcher, err = prompt.NewWatcher(templates)
			if err != nil {
				logger.Warn("Failed to create template watcher", zap.Error(err))
			} else if err := watcher.Start(context.Background()); err != nil {
				logger.Warn("Failed to start template watcher", zap.Error(err))
				watcher = nil
			}
		}
	}

	userCfg, err := config.LoadUserConfig(filepath.Join(workspace, ".tutorbot", "config.json"))
	if err != nil {
		logger.Warn("Could not read user config", zap.Error(err))
		userCfg = nil
	}

	client := newLLMClient(cfg)
	if client != nil {
		logger.Info("LLM client ready", zap.String("model", client.GetModel()))
	}

	var engine embedding.Engine
	if provider, apiKey, model := cfg.EmbeddingSettings(userCfg); provider != "" {
		engine, err = embedding.NewEngine(embedding.Config{
			Provider:    provider,
			GenAIAPIKey: apiKey,
			GenAIModel:  model,
		})
		if err != nil {
			logger.Warn("Embedding engine unavailable, semantic classification disabled", zap.Error(err))
			engine = nil
		}
	}

	dbPath := cfg.Store.DatabasePath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(workspace, dbPath)
	}
	local, err := store.NewLocalStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	return &runtime{
		cfg:       cfg,
		templates: templates,
		watcher:   watcher,
		local:     local,
		tutor:     tutor.New(client, engine, templates, local, cfg.Session),
	}, nil
}

// newLLMClient builds the provider client from the YAML llm section
// when it carries an API key, otherwise falls back to provider
// detection (user config.json, then env vars). Returns nil when no
// provider is configured; the pipelines then run on their
// deterministic fallbacks.
func newLLMClient(cfg *config.Config) perception.LLMClient {
	if cfg.LLM.APIKey != "" && cfg.LLM.Provider != "" {
		client, err := perception.NewClientFromConfig(&perception.ProviderConfig{
			Provider: perception.Provider(cfg.LLM.Provider),
			APIKey:   cfg.LLM.APIKey,
			Model:    cfg.LLM.Model,
			BaseURL:  cfg.LLM.BaseURL,
			Timeout:  cfg.LLMTimeout(),
		})
		if err == nil {
			return client
		}
		logger.Warn("Invalid llm config section, falling back to provider detection", zap.Error(err))
	}

	client, err := perception.NewClientFromEnv()
	if err != nil {
		logger.Warn("No LLM provider configured, running with deterministic fallbacks only", zap.Error(err))
		return nil
	}
	return client
}

func sessionGrade(cfg *config.Config) string {
	if gradeLevel != "" {
		return gradeLevel
	}
	if cfg.Session.DefaultGradeLevel != "" {
		return cfg.Session.DefaultGradeLevel
	}
	return "middle"
}

// runAsk processes a single question and exits.
func runAsk(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	question := strings.Join(args, " ")
	sess := tutor.NewSession(sessionGrade(rt.cfg))

	logger.Info("Processing question", zap.String("session", sess.ID), zap.String("grade", sess.GradeLevel))

	resp, err := rt.tutor.Process(ctx, sess, question)
	if err != nil {
		return err
	}

	fmt.Println(tutor.Format(resp))
	return nil
}

// runInteractive starts a REPL tutoring session.
func runInteractive() error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	sess := tutor.NewSession(sessionGrade(rt.cfg))

	fmt.Println("TutorBot - ask me about reading or science. Type 'exit' to quit.")
	fmt.Printf("(session %s, grade level %s)\n\n", sess.ID, sess.GradeLevel)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		resp, err := rt.tutor.Process(ctx, sess, input)
		cancel()
		if err != nil {
			fmt.Printf("error: %v\n\n", err)
			continue
		}

		fmt.Printf("\ntutor> %s\n\n", tutor.Format(resp))
	}

	fmt.Println("Goodbye! Keep reading and stay curious.")
	return scanner.Err()
}

// demoInputs exercise each pipeline: science explanation, reading
// passage analysis, a short science question, and a direct reading
// question.
var demoInputs = []string{
	"Can you help me understand photosynthesis?",
	"I'm having trouble with this reading passage: The water cycle is the process by which water moves around the Earth. It includes evaporation, condensation, and precipitation. Water evaporates from oceans, lakes, and rivers, forming clouds. The clouds then release water as rain or snow, which flows back into bodies of water.",
	"Why do plants need sunlight?",
	"What does the author mean when they say 'The pen is mightier than the sword'?",
}

// runDemo processes the canned demonstration inputs.
func runDemo(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	fmt.Println("\n===== TutorBot Demonstration =====")

	for i, input := range demoInputs {
		fmt.Printf("\n----- Demo %d -----\n", i+1)
		fmt.Printf("Student: %s\n", input)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		sess := tutor.NewSession(sessionGrade(rt.cfg))
		resp, err := rt.tutor.Process(ctx, sess, input)
		cancel()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		fmt.Printf("\nTutorBot: %s\n", tutor.Format(resp))
	}

	return nil
}

// runTemplatesList prints the loaded template names.
func runTemplatesList(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	names := rt.templates.Names()
	if len(names) == 0 {
		fmt.Println("No templates loaded (using built-in prompts).")
		if rt.templates.Dir() != "" {
			fmt.Printf("Template directory: %s\n", rt.templates.Dir())
		}
		return nil
	}

	fmt.Printf("Loaded templates from %s:\n", rt.templates.Dir())
	for _, name := range names {
		tmpl := rt.templates.Get(name)
		if tmpl != nil && tmpl.Description != "" {
			fmt.Printf("  %-28s %s\n", name, tmpl.Description)
		} else {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}

// runTemplatesShow prints one template's text and variables.
func runTemplatesShow(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	name := args[0]
	tmpl := rt.templates.Get(name)
	if tmpl == nil {
		return fmt.Errorf("template %q not found (try 'tutorbot templates list')", name)
	}

	fmt.Printf("Template: %s\n", tmpl.Name)
	if tmpl.Description != "" {
		fmt.Printf("Description: %s\n", tmpl.Description)
	}
	if vars := tmpl.RequiredVars(); len(vars) > 0 {
		fmt.Printf("Variables: %s\n", strings.Join(vars, ", "))
	}
	fmt.Printf("\n%s\n", tmpl.Text)
	return nil
}
