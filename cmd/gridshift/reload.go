package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/config"
	"github.com/mohammed-shakir/jgd-gridshift/internal/invalidation"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

var reloadCmd = &cobra.Command{
	Use:   "reload [flags] FORMAT",
	Short: "Announce a changed parameter file to running servers",
	Long: `Reload publishes a reload event on the Kafka topic watched by "serve".
Each server drops its loaded grid for FORMAT and reads the file again.
VERSION must increase for every announcement of the same format.`,
	Args: cobra.ExactArgs(1),
	RunE: runReload,
}

func init() {
	reloadCmd.Flags().Uint64("version", uint64(time.Now().Unix()), "event version; defaults to the current unix time")
	reloadCmd.Flags().String("source", "cli", "free-form origin recorded in the event")
	reloadCmd.Flags().String("brokers", "", "comma separated brokers (overrides KAFKA_BROKERS)")
	reloadCmd.Flags().String("topic", "", "topic (overrides KAFKA_TOPIC)")
}

func runReload(cmd *cobra.Command, args []string) error {
	f, err := transformer.ParseFormat(args[0])
	if err != nil {
		return err
	}
	version, _ := cmd.Flags().GetUint64("version")
	source, _ := cmd.Flags().GetString("source")

	rc := config.FromEnv().Reload
	if v, _ := cmd.Flags().GetString("brokers"); v != "" {
		rc.Brokers = v
	}
	if v, _ := cmd.Flags().GetString("topic"); v != "" {
		rc.Topic = v
	}

	p, err := invalidation.NewProducer(rc.BrokerList())
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	ev := invalidation.Event{Version: version, Format: f, Source: source, TS: time.Now().UTC()}
	part, off, err := invalidation.Publish(p, rc.Topic, ev)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published %s version %d to %s (partition %d, offset %d)\n",
		f, version, rc.Topic, part, off)
	return nil
}
