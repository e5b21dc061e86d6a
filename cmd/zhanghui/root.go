package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkstone/zhanghui/internal/calllog"
	"github.com/inkstone/zhanghui/internal/classifier"
	"github.com/inkstone/zhanghui/internal/config"
	"github.com/inkstone/zhanghui/internal/home"
	"github.com/inkstone/zhanghui/internal/svcctx"
	"github.com/inkstone/zhanghui/version"
)

var (
	cfgFile string
	homeDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "zhanghui",
	Short: "Structure discovery and reconciliation for digitized Chinese novels",
	Long: `Zhanghui turns inconsistently digitized Chinese novels (classical
wuxia serials and modern prose alike) into uniformly structured documents.

The pipeline includes:
  - Format detection across chapter (章), episode (回), and volume (卷) conventions
  - Chinese numeral parsing including 十/廿/卅/卌 forms
  - Table of contents mapping and regeneration
  - Front-matter and intro separation
  - Adversarial validation with a scored challenge rubric
  - Missing and embedded chapter recovery`,
	Version: version.GitRelease,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildServices()
		if err != nil {
			return err
		}
		cmd.SetContext(svcctx.WithServices(cmd.Context(), s))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.zhanghui/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "zhanghui home directory (default: ~/.zhanghui)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "debug logging",
	)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// buildServices assembles the service set every command runs with.
func buildServices() (*svcctx.Services, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}

	cm, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}

	s := &svcctx.Services{
		Config: cm,
		Logger: logger,
		Home:   h,
	}
	if cfg := cm.Get(); cfg.Classifier.Enabled {
		cc := cfg.ToClassifierConfig()
		cc.Logger = logger
		if rec, err := calllog.Open(h.CallLogPath(), logger); err != nil {
			logger.Warn("classifier call log unavailable", "path", h.CallLogPath(), "error", err)
		} else {
			cc.Recorder = rec
		}
		s.Classifier = classifier.NewOpenAI(cc)
		logger.Info("semantic classifier enabled", "model", cfg.Classifier.Model)
	}
	return s, nil
}
