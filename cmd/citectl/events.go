package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"ai-writing-be/pkg/events"
	pktNats "ai-writing-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	eventsType    string
	eventsDurable string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail citation events from NATS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tk := newToolkit()
		sub, err := pktNats.NewSubscriber(tk.cfg.App.NatsURL, tk.logger)
		if err != nil {
			return err
		}
		defer sub.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		err = sub.Subscribe(ctx, eventsType, eventsDurable, func(_ context.Context, ev events.Event) error {
			payload, _ := json.Marshal(ev.Payload())
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
				ev.Timestamp().Format(time.RFC3339),
				color.CyanString(ev.EventType()),
				payload,
			)
			return nil
		})
		if err != nil {
			return err
		}

		color.Yellow("Listening on %s (Ctrl+C to stop)", tk.cfg.App.NatsURL)
		<-ctx.Done()
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVarP(&eventsType, "type", "t", "", "Event type filter, e.g. CITATION_CREATED")
	eventsCmd.Flags().StringVar(&eventsDurable, "durable", "citectl", "Durable consumer name")
	rootCmd.AddCommand(eventsCmd)
}
