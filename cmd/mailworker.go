/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/optima-medical/staffserver/config"
	"github.com/optima-medical/staffserver/internal/mailer"
	"github.com/optima-medical/staffserver/internal/mq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// mailWorkerCmd consumes queued verification emails and delivers them over SMTP.
var mailWorkerCmd = &cobra.Command{
	Use:   "mail-worker",
	Short: "Run the verification email delivery worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		logger, err := zap.NewProduction()
		if err != nil {
			return err
		}
		defer func() {
			_ = logger.Sync()
		}()

		queue, err := mq.Connect(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("connect mq failed: %w", err)
		}
		defer func() {
			_ = queue.Close()
		}()

		sender, err := mailer.NewSMTPNotifier(cfg.SMTP)
		if err != nil {
			return err
		}

		worker := mailer.NewWorker(queue, sender, logger)
		if err := worker.Run(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "mail worker stopped: %v\n", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mailWorkerCmd)
}
