package main

import (
	"alcyxob/workout-engine/internal/client"
	"alcyxob/workout-engine/internal/logging"
	"alcyxob/workout-engine/internal/session"
	"alcyxob/workout-engine/internal/tui"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	token     string
	email     string
	password  string
	planID    string
	logFile   string
	logLevel  string

	rootCmd = &cobra.Command{
		Use:   "workout",
		Short: "Run workout plans from the terminal",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// The terminal belongs to the UI, logs never go to stdout.
			if logFile == "" {
				log.SetOutput(io.Discard)
				return
			}
			logging.Setup(logging.LoggerSetupParams{
				LogFileName: logFile,
				LogLevel:    logLevel,
			})
		},
		SilenceUsage: true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Start a session on a plan and submit the log when it ends",
		RunE:  runSession,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("WORKOUT_SERVER", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("WORKOUT_TOKEN"), "bearer token (or use --email/--password)")
	rootCmd.PersistentFlags().StringVar(&email, "email", "", "login email")
	rootCmd.PersistentFlags().StringVar(&password, "password", os.Getenv("WORKOUT_PASSWORD"), "login password")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "workout.log", "log file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")

	runCmd.Flags().StringVar(&planID, "plan", "", "id of the plan to run")
	_ = runCmd.MarkFlagRequired("plan")

	rootCmd.AddCommand(runCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func runSession(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(serverURL, token, &http.Client{Timeout: 15 * time.Second})
	if token == "" {
		if email == "" || password == "" {
			return errors.New("either --token or --email and --password are required")
		}
		if err := api.Login(ctx, email, password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	plan, err := api.GetPlan(ctx, planID)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", planID, err)
	}
	log.WithFields(log.Fields{"planId": planID, "exercises": len(plan.Exercises)}).Info("starting session")

	model, err := tui.NewModel(plan, session.NewController(), api)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	final, err := tui.Run(ctx, model)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if err := final.Err(); err != nil {
		return fmt.Errorf("workout not saved: %w", err)
	}
	if !final.LogID().IsZero() {
		fmt.Fprintf(cmd.OutOrStdout(), "workout saved: %s\n", final.LogID().Hex())
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
