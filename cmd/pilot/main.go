package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"careerpilot/cmd/pilot/chat"
	"careerpilot/internal/catalog"
	"careerpilot/internal/config"
	"careerpilot/internal/gateway"
	"careerpilot/internal/logging"
	"careerpilot/internal/recommend"
)

var (
	// Global flags
	configPath string
	apiKey     string
	modelName  string
	demoMode   bool
	debugLog   bool

	cfg       *config.UserConfig
	logger    *zap.Logger
	logCloser func()
)

// rootCmd launches the interactive assistant when run bare.
var rootCmd = &cobra.Command{
	Use:   "pilot",
	Short: "careerpilot - conversational job-search assistant",
	Long: `careerpilot is a terminal assistant for your job search.

Chat with it to search openings, check how well a role fits your
profile, and draft resume content. It can also score every open job
against your profile and rank the results as they come in.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := buildGateway()
		if err != nil {
			return err
		}
		return chat.RunInteractiveChat(cfg, gw, logger)
	},
}

// recommendCmd runs one scoring batch and prints the ranked results.
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Score all open jobs against your profile and rank them",
	RunE:  runRecommend,
}

// sessionsCmd lists stored conversations.
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored conversations",
	RunE:  runSessions,
}

func setup(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if apiKey != "" {
		cfg.GeminiAPIKey = apiKey
	}
	if modelName != "" {
		cfg.Model = modelName
	}
	if debugLog {
		cfg.DebugLog = true
	}

	logger, logCloser, err = logging.NewFileLogger(config.Dir(), cfg.DebugLog)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// buildGateway picks the live Gemini backend when a key is configured,
// or the deterministic demo backend otherwise.
func buildGateway() (gateway.Gateway, error) {
	store, err := catalog.Open(filepath.Join(config.Dir(), "catalog.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open job catalog: %w", err)
	}

	if demoMode || cfg.GeminiAPIKey == "" {
		logger.Info("using demo gateway")
		return gateway.NewDemo(store, cfg.Profile, logger), nil
	}
	gw, err := gateway.NewGenAI(context.Background(), cfg, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini gateway: %w", err)
	}
	return gw, nil
}

func runRecommend(cmd *cobra.Command, args []string) error {
	gw, err := buildGateway()
	if err != nil {
		return err
	}

	summaries, err := gw.ListCandidateJobs(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	titles := make(map[string]string, len(summaries))
	for _, s := range summaries {
		titles[s.ID] = fmt.Sprintf("%s at %s", s.Title, s.Company)
	}

	engine := recommend.NewEngine(gw,
		recommend.WithLogger(logger),
		recommend.WithConcurrency(cfg.ScoringConcurrency),
	)
	if err := engine.Start(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("Scoring %d open jobs…\n", len(summaries))
	start := time.Now()
	engine.Wait()

	snap := engine.Snapshot()
	if snap.ListErr != nil {
		return fmt.Errorf("failed to list jobs: %w", snap.ListErr)
	}
	fmt.Printf("Done in %s.\n\n", time.Since(start).Round(time.Millisecond))
	for i, m := range snap.Results {
		title := titles[m.JobID]
		if title == "" {
			title = m.JobID
		}
		fmt.Printf("%2d. [%3d/100 %s] %s\n", i+1, m.Score, m.Tier, title)
		for _, s := range m.Strengths {
			fmt.Printf("      + %s\n", s)
		}
		for _, g := range m.Gaps {
			fmt.Printf("      - %s\n", g)
		}
	}
	if len(snap.Results) == 0 {
		fmt.Println("No jobs could be scored.")
	}
	skipped := len(summaries) - len(snap.Results)
	if skipped > 0 {
		fmt.Printf("\n%d job(s) skipped after scoring errors.\n", skipped)
	}
	return nil
}

func runSessions(cmd *cobra.Command, args []string) error {
	gw, err := buildGateway()
	if err != nil {
		return err
	}
	convs, err := gw.ListConversations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(convs) == 0 {
		fmt.Println("No stored conversations.")
		return nil
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i].CreatedAt.Before(convs[j].CreatedAt) })
	for _, c := range convs {
		fmt.Printf("%s  %s  %s\n", c.ID, c.CreatedAt.Format("2006-01-02 15:04"), c.Title)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.careerpilot/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set CAREERPILOT_API_KEY / GEMINI_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "Override the configured Gemini model")
	rootCmd.PersistentFlags().BoolVar(&demoMode, "demo", false, "Use the offline demo backend even when a key is set")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Write a debug log under ~/.careerpilot/logs")

	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
