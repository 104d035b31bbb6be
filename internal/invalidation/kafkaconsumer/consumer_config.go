package kafkaconsumer

import (
	"strings"
	"time"
)

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
	DedupeSize          int
}

// NewConfig fills the consumer-group tuning knobs around the values the
// service config carries.
func NewConfig(brokers, topic, groupID string) Config {
	if topic == "" {
		topic = "deal-changes"
	}
	if groupID == "" {
		groupID = "deal-cache-invalidator"
	}
	bs := splitCSV(brokers)
	if len(bs) == 0 {
		bs = []string{"localhost:9092"}
	}
	return Config{
		Brokers:             bs,
		Topic:               topic,
		GroupID:             groupID,
		SessionTimeout:      30 * time.Second,
		Heartbeat:           3 * time.Second,
		RebalanceTimeout:    30 * time.Second,
		InitialOffsetOldest: true,
		DedupeSize:          4096,
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
