package cmd

import (
	"fmt"
	"os"
	"time"

	"quizflow-backend/lib/util/serviceutil"
	"quizflow-backend/services/quiz"
	"quizflow-backend/services/quiz/submit"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	email      string
	secret     string
	deadline   int
	headless   bool
	maxRetries int
	strategy   string
)

func init() {
	solveCmd.Flags().StringVar(&email, "email", "", "email to submit along with the answers")
	solveCmd.Flags().StringVar(&secret, "secret", "", "shared secret for the quiz")
	solveCmd.Flags().IntVar(&deadline, "deadline", 0, "wall-clock budget in seconds (default from config)")
	solveCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	solveCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "maximum submission attempts (default from config)")
	solveCmd.Flags().StringVar(&strategy, "strategy", "random", "answer strategy: random or placeholder")
	rootCmd.AddCommand(solveCmd)
}

var solveCmd = &cobra.Command{
	Use:   "solve <url>",
	Short: "Solves the quiz at the given url and submits the answers.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if config.QuizSecret != "" && !quiz.VerifySecret(secret, config.QuizSecret) {
			serviceutil.Fatal("invalid secret", fmt.Errorf("the provided secret does not match"))
		}

		if deadline == 0 {
			deadline = config.DeadlineSeconds
		}
		if maxRetries == 0 {
			maxRetries = config.MaxRetries
		}

		var answerStrategy quiz.AnswerStrategy
		switch strategy {
		case "random":
			answerStrategy = quiz.RandomGuessStrategy{}
		case "placeholder":
			answerStrategy = quiz.PlaceholderStrategy{}
		default:
			serviceutil.Fatal("unknown strategy", fmt.Errorf("%q is not a known answer strategy", strategy))
		}

		orchestrator := quiz.NewOrchestrator(config.Browser, answerStrategy, submit.NewAdapter())
		outcome := orchestrator.SolveAndSubmit(cmd.Context(), quiz.Options{
			URL: args[0],
			Credentials: quiz.Credentials{
				Email:  email,
				Secret: secret,
			},
			Deadline:   time.Duration(deadline) * time.Second,
			Headless:   headless,
			MaxRetries: maxRetries,
		})

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Type", "Question", "Answer"})
		for _, q := range outcome.Questions {
			t.AppendRow(table.Row{q.ID, q.Type, q.Text, q.Answer})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		fmt.Printf("status: %s\n", outcome.Status)
		fmt.Printf("time remaining: %s\n", outcome.TimeRemaining.Round(time.Millisecond))
		if outcome.Submission != nil {
			fmt.Printf("submission: success=%v attempts=%d status_code=%d\n",
				outcome.Submission.Success, outcome.Submission.Attempts, outcome.Submission.StatusCode)
			if outcome.Submission.NextURL != "" {
				fmt.Printf("next url: %s\n", outcome.Submission.NextURL)
			}
		}
		if outcome.Err != nil {
			fmt.Printf("error: %s\n", outcome.Err)
			os.Exit(1)
		}
	},
}
