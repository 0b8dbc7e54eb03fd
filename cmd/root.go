package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scout/internal/github"
	"scout/internal/llm"
	"scout/internal/pipeline"
	"scout/internal/store"
)

var (
	flagAPIBase       string
	flagFastModel     string
	flagPowerfulModel string
	flagCacheDir      string
	flagVerbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Find, locate, and brief beginner-friendly GitHub contributions",
	Long: `scout ranks a repository's open issues for beginner-friendliness,
locates the code behind the best candidate, and writes a contribution
briefing with a PR draft.

Requires GROQ_API_KEY. GITHUB_TOKEN is optional but raises rate limits.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIBase, "api-base", llm.DefaultBaseURL, "OpenAI-compatible API base URL")
	rootCmd.PersistentFlags().StringVar(&flagFastModel, "fast-model", llm.DefaultFastModel, "model for triage and code location")
	rootCmd.PersistentFlags().StringVar(&flagPowerfulModel, "model", llm.DefaultPowerfulModel, "model for briefing generation")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "cache directory (default ~/.scout)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log pipeline internals to stderr")
}

func cacheDir() string {
	if flagCacheDir != "" {
		return flagCacheDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scout"
	}
	return filepath.Join(home, ".scout")
}

func newLogger() *zap.Logger {
	if !flagVerbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// newOrchestrator wires the provider, gateway, and run store. It is the
// single construction point shared by every command.
func newOrchestrator(logger *zap.Logger) (*pipeline.Orchestrator, error) {
	gateway, err := llm.NewGroqClient(flagAPIBase, os.Getenv("GROQ_API_KEY"), logger)
	if err != nil {
		return nil, err
	}

	base := cacheDir()
	provider := github.NewClient(os.Getenv("GITHUB_TOKEN"), store.RepoCacheDir(base), logger)

	runs, err := store.NewRunStore(base)
	if err != nil {
		return nil, err
	}

	return pipeline.New(provider, gateway, flagFastModel, flagPowerfulModel, runs, logger), nil
}
