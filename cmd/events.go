/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fitlog/apiserver/internal/logger"
	"github.com/fitlog/apiserver/internal/mq"
	"github.com/fitlog/apiserver/types"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect exercise events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log exercise events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.NewFromConfig(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not set")
		}
		defer func() { _ = queue.Close() }()

		log.Info(ctx, "tailing exercise events",
			zap.String("backend", queue.Name()), zap.String("channel", cfg.MQ.Channel))
		err = queue.Subscribe(ctx, cfg.MQ.Channel, logEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func logEvent(ctx context.Context, msg mq.Message) error {
	var event types.ExerciseLoggedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return fmt.Errorf("decode event %s: %w", msg.ID, err)
	}
	logger.Log(ctx).Info(ctx, "exercise logged",
		zap.String("message_id", msg.ID),
		zap.String("exercise_id", event.ExerciseID),
		zap.String("username", event.Username),
		zap.String("description", event.Description),
		zap.Int("duration", event.Duration),
		zap.String("date", event.Date),
	)
	return nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
