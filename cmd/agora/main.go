package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/redwing-381/ethglb-p1-sub001/internal/agent"
	"github.com/redwing-381/ethglb-p1-sub001/internal/config"
	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
	"github.com/redwing-381/ethglb-p1-sub001/internal/engine"
	"github.com/redwing-381/ethglb-p1-sub001/internal/export"
	"github.com/redwing-381/ethglb-p1-sub001/internal/storage"
	"github.com/redwing-381/ethglb-p1-sub001/web/handlers"
)

var (
	dbPath    string
	cfgPath   string
	appConfig *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agora",
	Short: "Scripted multi-agent debates with per-step billing",
	Long: `agora runs scripted debates between six role agents: a moderator,
two debaters, a fact checker, a judge, and a summarizer.

Each step is billed at a fixed per-role price against a budget, and
every run produces a full transcript with a matching payment ledger.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.agora/agora.db)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.agora/config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

func getStorage() (storage.Storage, error) {
	path := dbPath
	if path == "" {
		path = storage.DefaultDBPath()
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(); err != nil {
		return nil, err
	}

	return store, nil
}

func getEngine(offline bool) (*engine.Engine, error) {
	table, err := appConfig.PricingTable()
	if err != nil {
		return nil, fmt.Errorf("invalid pricing config: %w", err)
	}

	var invoker agent.Invoker
	if offline {
		invoker = agent.NewOfflineInvoker()
	} else {
		invoker, err = appConfig.CreateInvoker()
		if err != nil {
			return nil, fmt.Errorf("invalid agents config: %w", err)
		}
	}

	return engine.New(invoker, table)
}

// ============================================================================
// RUN COMMAND
// ============================================================================

var runCmd = &cobra.Command{
	Use:   "run [topic]",
	Short: "Run a debate on a topic",
	Long: `Run a full scripted debate on the given topic.

Examples:
  agora run "Is remote work better than office work?"
  agora run "Should AI be regulated?" --rounds 2 --budget 0.5
  agora run "Tabs vs spaces" --offline --format md --output debate.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDebate,
}

var (
	roundsFlag  int
	budgetFlag  float64
	payerFlag   string
	offlineFlag bool
	formatFlag  string
	outputFlag  string
)

func init() {
	runCmd.Flags().IntVarP(&roundsFlag, "rounds", "r", 0, "Round ceiling (default from config)")
	runCmd.Flags().Float64VarP(&budgetFlag, "budget", "b", 0, "Available balance (default from config)")
	runCmd.Flags().StringVar(&payerFlag, "payer", "", "Payer identity (default from config)")
	runCmd.Flags().BoolVar(&offlineFlag, "offline", false, "Use canned agent responses instead of real agents")
	runCmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Also export the result (md, json, pdf)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Export file path (default: generated)")
}

func runDebate(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	eng, err := getEngine(offlineFlag)
	if err != nil {
		return err
	}

	opts := engine.Options{
		MaxRounds: roundsFlag,
		Budget:    budgetFlag,
		Payer:     payerFlag,
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = appConfig.Defaults.MaxRounds
	}
	if opts.Budget == 0 {
		opts.Budget = appConfig.Defaults.Budget
	}
	if opts.Payer == "" {
		opts.Payer = appConfig.Defaults.Payer
	}

	estimate := eng.Estimate(opts.MaxRounds)
	fmt.Printf("\n🏛️  Debate: %s\n", topic)
	fmt.Printf("   Rounds: up to %d | Budget: $%.4f | Estimated cost: $%.4f\n\n",
		opts.MaxRounds, opts.Budget, estimate.Total)
	fmt.Println(strings.Repeat("─", 60))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\nInterrupted.")
		cancel()
	}()

	result, err := eng.Run(ctx, topic, opts, func(event core.ActivityEvent, contribution *core.Contribution) {
		marker := "💬"
		if !contribution.Success {
			marker = "❌"
		}
		header := contribution.AgentName
		if contribution.Round > 0 {
			header = fmt.Sprintf("%s (Round %d)", header, contribution.Round)
		}
		fmt.Printf("\n%s %s — $%.4f\n", marker, header, event.Amount)
		fmt.Println(strings.Repeat("─", 40))
		if contribution.Success {
			fmt.Println(contribution.Content)
		} else {
			fmt.Println(contribution.Error)
		}
	})
	if err != nil {
		return fmt.Errorf("debate failed: %w", err)
	}

	showVerdict(result)
	showLedger(result)

	store, err := getStorage()
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	if err := store.SaveRun(result); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	fmt.Printf("\nSaved run: %s\n", result.ID)

	if formatFlag != "" {
		return exportResult(result, formatFlag, outputFlag)
	}
	return nil
}

func showVerdict(result *core.RunResult) {
	t := result.Transcript

	fmt.Printf("\n%s\n", strings.Repeat("═", 60))
	fmt.Printf("🏁 VERDICT (%d rounds)\n", t.TotalRounds)
	fmt.Println(strings.Repeat("═", 60))

	switch t.Winner {
	case core.WinnerPro:
		fmt.Println("\n✅ Winner: PRO")
	case core.WinnerCon:
		fmt.Println("\n✅ Winner: CON")
	default:
		fmt.Println("\n🤝 Result: TIE")
	}

	fmt.Printf("\n%s\n", t.Verdict)
	if t.Summary != "" {
		fmt.Printf("\n📋 Summary:\n%s\n", t.Summary)
	}
}

func showLedger(result *core.RunResult) {
	fmt.Printf("\n%s\n", strings.Repeat("═", 60))
	fmt.Println("💰 PAYMENTS")
	fmt.Println(strings.Repeat("═", 60))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tROUND\tAMOUNT")

	var total float64
	for _, p := range result.Payments {
		fmt.Fprintf(w, "%s\t%d\t$%.4f\n", p.To, p.Round, p.Amount)
		total += p.Amount
	}
	w.Flush()

	fmt.Printf("\nPaid to agents: $%.4f\n", total)
	if result.Cost != nil {
		fmt.Printf("Platform fee:   $%.4f\n", result.Cost.PlatformFee)
		fmt.Printf("Total cost:     $%.4f\n", result.Cost.Total)
	}
}

// ============================================================================
// ESTIMATE COMMAND
// ============================================================================

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Show the cost breakdown for a round count",
	RunE: func(cmd *cobra.Command, args []string) error {
		rounds, _ := cmd.Flags().GetInt("rounds")
		if rounds <= 0 {
			rounds = appConfig.Defaults.MaxRounds
		}

		table, err := appConfig.PricingTable()
		if err != nil {
			return fmt.Errorf("invalid pricing config: %w", err)
		}

		breakdown := table.Estimate(rounds)

		fmt.Printf("\nCost estimate for %d round(s):\n\n", rounds)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ROLE\tSTEPS\tUNIT\tSUBTOTAL")
		for _, step := range breakdown.Steps {
			fmt.Fprintf(w, "%s\t%d\t$%.4f\t$%.4f\n", step.Role, step.Count, step.Unit, step.Subtotal)
		}
		w.Flush()

		fmt.Printf("\nAgent subtotal: $%.4f\n", breakdown.AgentSubtotal)
		fmt.Printf("Platform fee:   $%.4f\n", breakdown.PlatformFee)
		fmt.Printf("Total:          $%.4f\n", breakdown.Total)
		return nil
	},
}

func init() {
	estimateCmd.Flags().IntP("rounds", "r", 0, "Round count (default from config)")
}

// ============================================================================
// LIST COMMAND
// ============================================================================

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived debate runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(50, 0)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No debates found. Start one with: agora run \"Your topic\"")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTOPIC\tWINNER\tROUNDS\tCOST\tCREATED")

		for _, r := range runs {
			shortTopic := r.Topic
			if len(shortTopic) > 35 {
				shortTopic = shortTopic[:32] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t$%.4f\t%s\n",
				r.ID,
				shortTopic,
				r.Winner,
				r.TotalRounds,
				r.TotalCost,
				r.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		w.Flush()

		return nil
	},
}

// ============================================================================
// SHOW COMMAND
// ============================================================================

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show an archived debate run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := findRunByPrefix(store, args[0])
		if err != nil {
			return err
		}

		t := result.Transcript
		fmt.Printf("\n🏛️  Debate: %s\n", result.Topic)
		fmt.Printf("   ID: %s\n", result.ID)
		fmt.Printf("   Rounds: %d | Winner: %s\n", t.TotalRounds, t.Winner)
		fmt.Printf("   Created: %s\n", result.CreatedAt.Format(time.RFC3339))
		fmt.Println()

		for _, round := range t.Rounds {
			fmt.Println(strings.Repeat("─", 60))
			fmt.Printf("\n📢 Round %d\n", round.Number)

			fmt.Printf("\nPro Debater:\n%s\n", round.ProArgument)
			fmt.Printf("\nCon Debater:\n%s\n", round.ConArgument)

			if round.FactCheck != nil {
				fmt.Println("\nFact Checker:")
				for _, claim := range round.FactCheck.Claims {
					fmt.Printf("  [%s] %s (%s): %s\n", claim.Verdict, claim.Claim, claim.Source, claim.Explanation)
				}
				fmt.Printf("  %s\n", round.FactCheck.OverallAssessment)
			}

			if round.Score != nil {
				fmt.Printf("\nJudge: Pro %d — Con %d\n%s\n", round.Score.ProScore, round.Score.ConScore, round.Score.Reasoning)
			}
		}

		showVerdict(result)
		showLedger(result)
		return nil
	},
}

// ============================================================================
// DELETE COMMAND
// ============================================================================

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an archived debate run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := findRunByPrefix(store, args[0])
		if err != nil {
			return err
		}

		if err := store.DeleteRun(result.ID); err != nil {
			return err
		}

		fmt.Printf("Deleted run: %s\n", result.ID)
		return nil
	},
}

// ============================================================================
// EXPORT COMMAND
// ============================================================================

var exportCmd = &cobra.Command{
	Use:   "export [id] [format]",
	Short: "Export a debate run to file",
	Long: `Export an archived run to markdown, PDF, or JSON.

Examples:
  agora export abc123 md
  agora export abc123 pdf
  agora export abc123 json -o debate.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := findRunByPrefix(store, args[0])
		if err != nil {
			return err
		}

		outputPath, _ := cmd.Flags().GetString("output")
		return exportResult(result, args[1], outputPath)
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file path")
}

func exportResult(result *core.RunResult, formatName, outputPath string) error {
	format := export.Format(strings.ToLower(formatName))
	exporter, err := export.GetExporter(format)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = export.GenerateFilename(result, exporter.FileExtension())
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := exporter.Export(result, file); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	fmt.Printf("Exported to: %s\n", outputPath)
	return nil
}

// ============================================================================
// CONFIG COMMAND
// ============================================================================

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Config file: %s\n\n", config.DefaultConfigPath())

		fmt.Println("Defaults:")
		fmt.Printf("  Max rounds: %d\n", appConfig.Defaults.MaxRounds)
		fmt.Printf("  Budget: $%.4f\n", appConfig.Defaults.Budget)
		fmt.Printf("  Payer: %s\n", appConfig.Defaults.Payer)

		fmt.Println("\nPricing:")
		fmt.Printf("  Platform fee: %.0f%%\n", appConfig.Pricing.PlatformFeePct)
		for _, role := range core.AllRoles {
			fmt.Printf("  %s: $%.4f\n", role, appConfig.Pricing.Roles[string(role)])
		}

		fmt.Println("\nAgents:")
		for _, role := range core.AllRoles {
			a := appConfig.Agents[string(role)]
			fmt.Printf("  %s: %s %s (timeout: %s)\n", role, a.Command, strings.Join(a.Args, " "), a.Timeout)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		if err := config.Default().SaveTo(path); err != nil {
			return err
		}

		fmt.Printf("Created config at: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// ============================================================================
// SERVE COMMAND
// ============================================================================

var (
	servePort    int
	serveOffline bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("port") && appConfig.Server.Port != 0 {
			servePort = appConfig.Server.Port
		}

		store, err := getStorage()
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		eng, err := getEngine(serveOffline)
		if err != nil {
			return err
		}

		fmt.Printf("\n🌐 Starting agora server on http://localhost:%d\n\n", servePort)
		fmt.Println("Available endpoints:")
		fmt.Printf("  POST   http://localhost:%d/api/debates             - Start a debate\n", servePort)
		fmt.Printf("  GET    http://localhost:%d/api/debates             - List debates\n", servePort)
		fmt.Printf("  GET    http://localhost:%d/api/debates/:id         - Get a debate\n", servePort)
		fmt.Printf("  GET    http://localhost:%d/api/debates/:id/events  - Stream events (SSE)\n", servePort)
		fmt.Printf("  GET    http://localhost:%d/api/estimate?rounds=N   - Cost estimate\n", servePort)
		fmt.Println("\nPress Ctrl+C to stop the server")

		h := handlers.New(eng, store, handlers.Defaults{
			MaxRounds: appConfig.Defaults.MaxRounds,
			Budget:    appConfig.Defaults.Budget,
			Payer:     appConfig.Defaults.Payer,
		})

		server := &http.Server{
			Addr:    fmt.Sprintf(":%d", servePort),
			Handler: h.Router(),
		}

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh
			fmt.Println("\nShutting down...")
			server.Close()
		}()

		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8183, "Server port")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "Use canned agent responses instead of real agents")
}

// ============================================================================
// HELPERS
// ============================================================================

func findRunByPrefix(store storage.Storage, prefix string) (*core.RunResult, error) {
	if result, err := store.GetRun(prefix); err == nil && result != nil {
		return result, nil
	}

	runs, _ := store.ListRuns(100, 0)
	for _, r := range runs {
		if strings.HasPrefix(r.ID, prefix) {
			return store.GetRun(r.ID)
		}
	}
	return nil, fmt.Errorf("run not found: %s", prefix)
}
