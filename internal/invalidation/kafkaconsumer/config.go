package kafkaconsumer

import (
	"time"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/config"
)

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
	// DedupeSize bounds the per-format version memory.
	DedupeSize int
}

func FromReload(r config.ReloadCfg) Config {
	return Config{
		Brokers:          r.BrokerList(),
		Topic:            r.Topic,
		GroupID:          r.GroupID,
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
		// only changes after startup matter; the startup load already
		// reads the current files
		InitialOffsetOldest: false,
		DedupeSize:          64,
	}
}
