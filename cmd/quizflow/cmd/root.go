package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"quizflow-backend/lib/configutil"
	"quizflow-backend/lib/telemetry"
	"quizflow-backend/lib/util/serviceutil"
	"quizflow-backend/services/quiz/browser"

	"github.com/spf13/cobra"
)

type Config struct {
	Browser         browser.Config `json:"browser"`
	QuizSecret      string         `json:"quiz_secret"`
	DeadlineSeconds int            `json:"deadline_seconds"`
	MaxRetries      int            `json:"max_retries"`
}

var config Config

var rootCmd = &cobra.Command{
	Use:   "quizflow",
	Short: "Fetches a web-hosted quiz, answers it and submits the answers back.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(debug)

		loaded, err := configutil.ReadConfig[Config]("quizflow.json5")
		if err != nil && !os.IsNotExist(err) {
			serviceutil.Fatal("failed to load configuration", err)
		}
		config = loaded
		if config.DeadlineSeconds == 0 {
			config.DeadlineSeconds = 180
		}
		if config.MaxRetries == 0 {
			config.MaxRetries = 3
		}

		err = telemetry.SetupFromEnv(cmd.Context(), "quizflow")
		if err != nil {
			serviceutil.Fatal("failed to initialize telemetry", err)
		}
		telemetry.InstrumentPerfStats(cmd.Context())
	},
}

var debug bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func Execute() {
	ctx := serviceutil.SignalContext()
	err := rootCmd.ExecuteContext(ctx)

	// flush batched spans before the process goes away
	if shutdownErr := telemetry.Shutdown(context.Background()); shutdownErr != nil {
		slog.Error("failed to flush telemetry", "err", shutdownErr.Error())
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
