package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prepflow/prepflow/internal/handler"
	"github.com/prepflow/prepflow/internal/llm"
	"github.com/prepflow/prepflow/internal/material"
	"github.com/prepflow/prepflow/internal/pipeline"
	"github.com/prepflow/prepflow/internal/search"
	"github.com/prepflow/prepflow/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "prepflow",
		Short: "AI-generated study plans and quizzes for exam preparation",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "prepflow.db", "SQLite database path")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty for api.openai.com)")
	f.String("llm-key", "", "API key for the LLM")
	f.String("llm-model", "gpt-4o-mini", "LLM model name")
	f.Duration("llm-timeout", 60*time.Second, "Timeout per LLM call")
	f.String("search-url", "https://api.perplexity.ai", "Search API base URL")
	f.String("search-key", "", "API key for the search API (empty disables search enrichment)")
	f.String("search-model", "sonar", "Search API model name")
	f.String("jwt-secret", "", "Secret for signing access tokens (or set PREPFLOW_JWT_SECRET)")
	f.Int("quiz-questions", 10, "Number of quiz questions generated per day")
	f.String("quiz-difficulty", "medium", "Default quiz difficulty (easy, medium, hard)")
	f.Int("quiz-concurrency", 3, "Number of days generated concurrently during fan-out")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an exam's latest plan with days and questions as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "prepflow.db", "SQLite database path")
	f.String("exam", "", "Exam identifier (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("exam")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PREPFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("prepflow")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/prepflow")
	v.AddConfigPath("/etc/prepflow")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if v.GetString("llm-key") == "" {
		return fmt.Errorf("LLM API key is required: set --llm-key flag or PREPFLOW_LLM_KEY env var")
	}

	// Shared clients are constructed once here and injected everywhere.
	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
		v.GetDuration("llm-timeout"),
	)

	var searcher pipeline.Searcher
	if key := v.GetString("search-key"); key != "" {
		searcher = search.New(
			v.GetString("search-url"),
			key,
			v.GetString("search-model"),
			v.GetDuration("llm-timeout"),
		)
	} else {
		slog.Info("search enrichment disabled, no search API key configured")
	}

	fanout := pipeline.NewFanout(
		db,
		llmClient,
		v.GetInt("quiz-questions"),
		v.GetString("quiz-difficulty"),
		v.GetInt("quiz-concurrency"),
	)
	orch := pipeline.NewOrchestrator(db, llmClient, searcher, material.New(), fanout)

	h, err := handler.New(db, orch, handler.Config{
		JWTSecret: v.GetString("jwt-secret"),
	})
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"llm_model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"search_enabled", searcher != nil,
		"quiz_questions", v.GetInt("quiz-questions"),
		"quiz_concurrency", v.GetInt("quiz-concurrency"),
	)
	return http.ListenAndServe(addr, c.Handler(r))
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportPlan(v.GetString("exam"))
	if err != nil {
		return fmt.Errorf("export plan: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	return nil
}
