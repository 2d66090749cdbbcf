package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobscout/jobscout/internal/engine/discovery"
	"github.com/jobscout/jobscout/internal/jobs"
	"github.com/jobscout/jobscout/internal/logger"
)

const (
	PromptExit            = "Exit"
	PromptReportByCompany = "Report by company"
	PromptJobsToFile      = "Dump jobs to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptReportByCompany, PromptJobsToFile, PromptExit},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run one discovery pass for a user and inspect the results",
	Run: func(cmd *cobra.Command, _ []string) {
		discover(cmd)
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringP("user", "u", "", "user id to discover jobs for (required)")
	discoverCmd.Flags().IntP("max-jobs", "m", 0, "maximum jobs to keep from this run")
	discoverCmd.Flags().BoolP("force-refresh", "f", false, "bypass the cached discovery result")
	discoverCmd.Flags().BoolP("no-prompt", "y", false, "print a summary and exit without the interactive menu")

	_ = discoverCmd.MarkFlagRequired("user")
}

// discover is the one-shot CLI counterpart of the HTTP discovery endpoint.
func discover(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting jobscout discovery", zap.String("version", version))

	eng, cleanup, err := buildEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the engine", zap.Error(err))
	}
	defer cleanup()

	userID, _ := cmd.Flags().GetString("user")
	maxJobs, _ := cmd.Flags().GetInt("max-jobs")
	forceRefresh, _ := cmd.Flags().GetBool("force-refresh")

	profile, err := eng.profiles.Get(ctx, userID)
	if err != nil {
		logger.Fatal("loading the user profile", zap.String("user_id", userID), zap.Error(err))
	}

	prefs, err := eng.preferences.Get(ctx, userID)
	if err != nil && !errors.Is(err, jobs.ErrNotFound) {
		logger.Fatal("loading the user preferences", zap.Error(err))
	}

	result := eng.orchestrator.Run(ctx, userID, profile, prefs, discovery.Options{
		MaxJobs:      maxJobs,
		ForceRefresh: forceRefresh,
	})

	logger.Info("discovery finished",
		zap.Int("jobs", len(result.Jobs)),
		zap.Int("queries_executed", result.QueriesExecuted),
		zap.Int("duplicates_skipped", result.DuplicatesSkipped),
		zap.Int("total_tokens", result.TokenUsage.TotalTokens),
	)

	if len(result.Jobs) == 0 {
		logger.Info("exiting", zap.String("reason", "no new jobs found"))
		return
	}

	if noPrompt, _ := cmd.Flags().GetBool("no-prompt"); noPrompt {
		return
	}

	postings := jobs.PostingList(result.Jobs)
	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, postings, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, postings jobs.PostingList, logger *zap.Logger) error {
	switch action {
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(postings.ReportByCompany(), "", "  ")
		logger.Info(string(pretty), zap.Int("jobs count", postings.Len()))
		return nil
	case PromptJobsToFile:
		filename, err := postings.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}
