// Package kafkaconsumer applies deal-change events from Kafka: each event
// mutates the catalog, updates the geo index, and drops the cached query
// results the change can affect.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/dealmapper/happyhour/internal/cache"
	"github.com/dealmapper/happyhour/internal/core/model"
	obs "github.com/dealmapper/happyhour/internal/core/observability"
	"github.com/dealmapper/happyhour/internal/invalidation"
	"github.com/dealmapper/happyhour/internal/store"
)

// Catalog is the mutable record set the consumer applies events to.
type Catalog interface {
	Establishment(ctx context.Context, id string) (store.Establishment, error)
	UpsertEstablishment(ctx context.Context, e store.Establishment) (store.Establishment, error)
	UpsertDeal(ctx context.Context, d store.Deal) (store.Deal, error)
	DeleteDeal(ctx context.Context, id string) error
}

// GeoIndex places establishments and answers which query-origin cells can
// reach a point within the maximum search radius.
type GeoIndex interface {
	Add(id string, c model.Coordinate) error
	CoveringCells(center model.Coordinate, radiusKm float64) ([]string, error)
}

type Consumer struct {
	cfg         Config
	logger      *slog.Logger
	cache       cache.Interface
	catalog     Catalog
	geo         GeoIndex
	maxRadiusKm float64
	dedupe      *seqDedupe
}

func New(cfg Config, logger *slog.Logger, c cache.Interface, catalog Catalog, geo GeoIndex, maxRadiusKm float64) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:         cfg,
		logger:      logger,
		cache:       c,
		catalog:     catalog,
		geo:         geo,
		maxRadiusKm: maxRadiusKm,
		dedupe:      newSeqDedupe(cfg.DedupeSize),
	}
}

// consumes deal-change events from kafka and processes them
func (c *Consumer) Start(ctx context.Context) error {
	if c.cache == nil || c.catalog == nil || c.geo == nil {
		return errors.New("kafkaconsumer: missing dependencies (cache/catalog/geo)")
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

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("deal-change consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("deal-change consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error("consumer error",
					"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "err", err)
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne applies a single deal-change message. Malformed messages are
// counted and skipped so a poison pill cannot stall the partition; apply and
// invalidation failures are returned for redelivery, which is safe because
// the whole step is idempotent.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		obs.IncConsumerError("decode")
		c.logger.Warn("skipping undecodable event",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return nil
	}
	if err := ev.Validate(); err != nil {
		obs.IncConsumerError("validate")
		c.logger.Warn("skipping invalid event",
			"establishment", ev.EstablishmentID, "op", ev.Op, "err", err)
		return nil
	}

	if ev.Seq > 0 && c.dedupe.seen(ev.EstablishmentID, ev.Seq) {
		c.logger.Debug("skipping stale event",
			"establishment", ev.EstablishmentID, "seq", ev.Seq)
		return nil
	}

	if err := c.apply(ctx, ev); err != nil {
		obs.IncConsumerError("apply")
		return fmt.Errorf("apply %s for %s: %w", ev.Op, ev.EstablishmentID, err)
	}

	coord, err := c.coordFor(ctx, ev)
	if err != nil {
		obs.IncConsumerError("locate")
		return fmt.Errorf("locate %s: %w", ev.EstablishmentID, err)
	}
	if coord != nil {
		// any cached query whose origin cell lies within the maximum search
		// radius of this establishment may now be stale
		cells, err := c.geo.CoveringCells(*coord, c.maxRadiusKm)
		if err != nil {
			obs.IncConsumerError("cells")
			return fmt.Errorf("covering cells for %s: %w", ev.EstablishmentID, err)
		}
		if err := c.cache.InvalidateCells(ctx, cells...); err != nil {
			obs.IncConsumerError("invalidate")
			return fmt.Errorf("invalidate %d cells: %w", len(cells), err)
		}
	}

	if ev.Seq > 0 {
		c.dedupe.record(ev.EstablishmentID, ev.Seq)
	}
	obs.IncInvalidation(ev.Op)
	c.logger.Info("applied deal change",
		"establishment", ev.EstablishmentID, "op", ev.Op, "seq", ev.Seq)
	return nil
}

func (c *Consumer) apply(ctx context.Context, ev invalidation.Event) error {
	switch ev.Op {
	case "upsert":
		if ev.Establishment != nil {
			e := store.Establishment{
				ID:    ev.EstablishmentID,
				Name:  ev.Establishment.Name,
				Coord: ev.Establishment.Coord,
			}
			if _, err := c.catalog.UpsertEstablishment(ctx, e); err != nil {
				return fmt.Errorf("upsert establishment: %w", err)
			}
			if e.Coord != nil {
				if err := c.geo.Add(e.ID, *e.Coord); err != nil {
					return fmt.Errorf("index establishment: %w", err)
				}
			}
		}
		if ev.Deal != nil {
			d := store.Deal{
				ID:              ev.Deal.ID,
				EstablishmentID: ev.EstablishmentID,
				Name:            ev.Deal.Name,
				Description:     ev.Deal.Description,
				Price:           ev.Deal.Price,
				Days:            ev.Deal.Days,
				Start:           ev.Deal.Start,
				End:             ev.Deal.End,
			}
			if _, err := c.catalog.UpsertDeal(ctx, d); err != nil {
				return fmt.Errorf("upsert deal: %w", err)
			}
		}
		return nil
	case "delete":
		if err := c.catalog.DeleteDeal(ctx, ev.Deal.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete deal: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported op %q", ev.Op)
	}
}

// coordFor resolves the establishment location the event touched, preferring
// the payload coordinate over a catalog lookup. A nil coordinate means the
// establishment is not placeable and no geographic query can be caching it.
func (c *Consumer) coordFor(ctx context.Context, ev invalidation.Event) (*model.Coordinate, error) {
	if ev.Establishment != nil && ev.Establishment.Coord != nil {
		return ev.Establishment.Coord, nil
	}
	e, err := c.catalog.Establishment(ctx, ev.EstablishmentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e.Coord, nil
}
