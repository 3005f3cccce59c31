package kafkaconsumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	obs "github.com/mohammed-shakir/jgd-gridshift/internal/core/observability"
	"github.com/mohammed-shakir/jgd-gridshift/internal/invalidation"
	mylog "github.com/mohammed-shakir/jgd-gridshift/internal/logger"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

// Registry is implemented by registry.Registry.
type Registry interface {
	Invalidate(f transformer.Format) bool
	Get(ctx context.Context, f transformer.Format) (*transformer.Transformer, error)
}

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	reg    Registry
	ver    *versionDedupe
}

func New(cfg Config, logger *slog.Logger, reg Registry) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:    cfg,
		logger: logger,
		reg:    reg,
		ver:    newVersionDedupe(cfg.DedupeSize),
	}
}

// Start consumes reload events until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.reg == nil {
		return errors.New("kafkaconsumer: missing registry")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	ctx = mylog.WithComponent(ctx, "reload_consumer")
	handler := &groupHandler{process: c.ProcessOne}

	c.logger.InfoContext(ctx, "reload consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "reload consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return nil
				}
				c.logger.ErrorContext(ctx, "consumer error",
					"err", err, "brokers", c.cfg.Brokers, "topic", c.cfg.Topic)
				select {
				case <-ctx.Done():
				case <-time.After(2 * time.Second):
				}
			}
		}
	}
}

// ProcessOne applies a single reload event. Malformed events are dropped so
// they cannot block the partition; a failed reload returns an error so the
// offset is not marked.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	start := time.Now()
	log := c.logger.With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)

	ev, err := invalidation.Decode(msg.Value)
	if err == nil {
		err = ev.Validate()
	}
	if err != nil {
		obs.IncReloadEvent("invalid")
		log.WarnContext(ctx, "dropping reload event", "err", err)
		return nil
	}

	format := ev.Format.String()
	ctx = mylog.WithFormat(ctx, format)
	if c.ver.stale(format, ev.Version) {
		obs.IncReloadEvent("stale")
		log.DebugContext(ctx, "stale reload event", "version", ev.Version)
		return nil
	}

	if !c.reg.Invalidate(ev.Format) {
		// nothing loaded here; the next request reads the new file
		c.ver.record(format, ev.Version)
		obs.IncReloadEvent("applied")
		log.InfoContext(ctx, "reload event applied", "version", ev.Version, "loaded", false)
		return nil
	}

	t, err := c.reg.Get(ctx, ev.Format)
	if err != nil {
		obs.IncReloadEvent("error")
		log.ErrorContext(ctx, "reload failed", "version", ev.Version, "err", err)
		return fmt.Errorf("reload %s: %w", format, err)
	}
	c.ver.record(format, ev.Version)
	obs.IncReloadEvent("applied")
	log.InfoContext(ctx, "reload event applied",
		"version", ev.Version, "source", ev.Source, "entries", t.Len(),
		"took_ms", time.Since(start).Milliseconds())
	return nil
}
