package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/example/printshop/internal/infrastructure/kafka"
	"github.com/example/printshop/internal/observability"
	"github.com/example/printshop/internal/projection"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// EVENTS
// =============================================================================

func newEventsCmd() *cobra.Command {
	var (
		brokers  string
		topic    string
		groupID  string
		logLevel string
		types    []string
		stats    bool
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow the cart event stream",
		Long:  "Reads cart events from Kafka and prints one line per event until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := observability.NewLogger(logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			consumer := kafka.NewConsumer(splitBrokers(brokers), topic, groupID, logger)
			defer consumer.Close()

			handler := printEvent(cmd.OutOrStdout(), types)
			var projector *projection.Projector
			if stats {
				projector = projection.NewProjector(logger)
				handler = withProjection(projector, handler)
			}

			logger.Info("following cart events", zap.String("topic", topic), zap.String("group", groupID))
			err = consumer.Consume(ctx, handler)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if projector != nil {
				return printStats(cmd.OutOrStdout(), projector.Stats())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&brokers, "brokers", envOr("KAFKA_BROKERS", "localhost:9092"), "comma separated Kafka brokers")
	cmd.Flags().StringVar(&topic, "topic", envOr("KAFKA_TOPIC", "cart-events"), "topic carrying cart events")
	cmd.Flags().StringVar(&groupID, "group", "quotectl", "consumer group id")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level for consumer diagnostics")
	cmd.Flags().StringSliceVar(&types, "type", nil, "only print these event types")
	cmd.Flags().BoolVar(&stats, "stats", false, "print cart activity totals on exit")
	return cmd
}

// printEvent writes "<type> <session> <data>" for every event whose type passes the filter
func printEvent(out io.Writer, types []string) kafka.MessageHandler {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return func(_ context.Context, msg kafka.Message) error {
		if len(allowed) > 0 && !allowed[msg.EventType] {
			return nil
		}
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(msg.Value, &envelope); err != nil || len(envelope.Data) == 0 {
			envelope.Data = msg.Value
		}
		_, err := fmt.Fprintf(out, "%s\t%s\t%s\n", msg.EventType, msg.Key, envelope.Data)
		return err
	}
}

// withProjection feeds every message to the projector before printing it
func withProjection(p *projection.Projector, next kafka.MessageHandler) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		if err := p.HandleEvent(ctx, msg.Key, msg.Value); err != nil {
			return err
		}
		return next(ctx, msg)
	}
}

func printStats(out io.Writer, stats projection.Stats) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
