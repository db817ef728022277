// Command modelgen generates LBO and DCF workbooks from assumption
// documents, as a local alternative to the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"finmodel/pkg/core/assumption"
	"finmodel/pkg/core/pipeline"
	"finmodel/pkg/models"
)

var (
	configPath string
	logLevel   string
	outDir     string

	modelType       string
	assumptionsPath string
	companyName     string
)

// cliConfig is the shape of the optional --config file. Flags override it.
type cliConfig struct {
	OutputDir  string `mapstructure:"output_dir"`
	LogLevel   string `mapstructure:"log_level"`
	BatchLimit int    `mapstructure:"batch_limit"`
}

func loadCLIConfig() (cliConfig, error) {
	cfg := cliConfig{OutputDir: "output", LogLevel: "info"}
	if configPath == "" {
		return cfg, nil
	}
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", configPath, err)
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", configPath, err)
	}
	return cfg, nil
}

func initializeLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "", "info":
		zapLevel = zapcore.InfoLevel
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return cfg.Build()
}

// buildOrchestrator resolves config and flags into a ready orchestrator.
func buildOrchestrator() (*pipeline.Orchestrator, *zap.Logger, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, nil, err
	}
	if outDir != "" {
		cfg.OutputDir = outDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger, err := initializeLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	orch := pipeline.NewOrchestrator(cfg.OutputDir, logger)
	orch.SetBatchLimit(cfg.BatchLimit)
	return orch, logger, nil
}

func printRun(run *models.ModelRun) {
	fmt.Printf("%s  %s\n", run.ID, run.Company)
	fmt.Printf("  workbook: %s\n", run.WorkbookPath)
	switch run.ModelType {
	case models.ModelTypeLBO:
		fmt.Printf("  IRR %.1f%%  MOIC %.2fx  entry EV $%.0f  exit equity $%.0f\n",
			run.Summary.IRR*100, run.Summary.MOIC, run.Summary.EntryEV, run.Summary.ExitEquity)
	case models.ModelTypeDCF:
		fmt.Printf("  WACC %.2f%%  EV $%.0f  equity $%.0f  implied price $%.2f\n",
			run.Summary.WACC*100, run.Summary.EnterpriseValue, run.Summary.EquityValue, run.Summary.ImpliedSharePrice)
	}
	for _, warn := range run.Summary.Flags {
		fmt.Printf("  warning: %s\n", warn)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	orch, logger, err := buildOrchestrator()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var doc *assumption.Document
	if assumptionsPath != "" {
		doc, err = assumption.LoadDocument(assumptionsPath)
		if err != nil {
			return err
		}
	} else {
		doc, err = assumption.ParseDocument([]byte(fmt.Sprintf(`{"model_type": %q}`, modelType)))
		if err != nil {
			return err
		}
	}
	if companyName != "" {
		doc.Company = companyName
	}
	if doc.Company == "" {
		doc.Company = "Sample Company"
	}

	run, err := orch.Run(cmd.Context(), doc)
	if err != nil {
		return err
	}
	printRun(run)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	orch, logger, err := buildOrchestrator()
	if err != nil {
		return err
	}
	defer logger.Sync()

	docs := make([]*assumption.Document, 0, len(args))
	for _, path := range args {
		doc, err := assumption.LoadDocument(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if doc.Company == "" {
			doc.Company = path
		}
		docs = append(docs, doc)
	}

	runs, err := orch.RunBatch(cmd.Context(), docs)
	if err != nil {
		return err
	}
	for _, run := range runs {
		printRun(run)
	}
	return nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	orch, logger, err := buildOrchestrator()
	if err != nil {
		return err
	}
	defer logger.Sync()

	lbo, err := assumption.ParseDocument([]byte(`{"model_type": "lbo", "company": "Demo Portfolio Co"}`))
	if err != nil {
		return err
	}
	dcf, err := assumption.ParseDocument([]byte(`{"model_type": "dcf", "company": "Demo Target Co"}`))
	if err != nil {
		return err
	}

	runs, err := orch.RunBatch(cmd.Context(), []*assumption.Document{lbo, dcf})
	if err != nil {
		return err
	}
	for _, run := range runs {
		printRun(run)
	}
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "modelgen",
		Short: "Generate banker-grade LBO and DCF workbooks",
		Long: `modelgen builds multi-tab xlsx financial models (LBO, DCF) from
assumption documents. Documents may be JSON, Hjson, or YAML; absent keys
keep the standard defaults for the model type.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to CLI configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", "", "output directory override")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one model workbook",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	generateCmd.Flags().StringVar(&modelType, "type", "lbo", "model type when no document is given: lbo, dcf")
	generateCmd.Flags().StringVar(&assumptionsPath, "assumptions", "", "path to an assumptions document")
	generateCmd.Flags().StringVar(&companyName, "company", "", "company name override")

	batchCmd := &cobra.Command{
		Use:   "batch [documents...]",
		Short: "Generate workbooks for several assumption documents in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatch,
	}

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate the standard demo LBO and DCF workbooks",
		Args:  cobra.NoArgs,
		RunE:  runDemo,
	}

	rootCmd.AddCommand(generateCmd, batchCmd, demoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
