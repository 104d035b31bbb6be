// Command smoketest checks the local stack end to end: Redis, the deal
// server HTTP API, Kafka produce/consume on the deal-change topic, and the
// H3 library itself.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"
	h3 "github.com/uber/h3-go/v4"

	"github.com/dealmapper/happyhour/internal/invalidation"
)

func getenv(key, def string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return def
}

func testRedis(ctx context.Context, addr string) error {
	fmt.Println("Redis test")
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	if err := client.Set(ctx, "hello", "world", 30*time.Second).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	val, err := client.Get(ctx, "hello").Result()
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	fmt.Println("redis GET hello: ", val)
	return nil
}

func testDealServer(baseURL string) error {
	fmt.Println("Deal server test")

	base := strings.TrimRight(baseURL, "/")
	resp, err := http.Get(base + "/healthz")
	if err != nil {
		return fmt.Errorf("http get healthz: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthz status %d", resp.StatusCode)
	}

	// sample nearby query around central Singapore
	q := url.Values{}
	q.Set("lat", "1.3521")
	q.Set("lon", "103.8198")
	q.Set("radius_km", "2")
	resp, err = http.Get(base + "/deals/nearby?" + q.Encode())
	if err != nil {
		return fmt.Errorf("http get nearby: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("nearby status %d: %s", resp.StatusCode, string(b))
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	fmt.Println("nearby sample (X-Cache:", resp.Header.Get("X-Cache"), "):")
	fmt.Println(string(body))
	return nil
}

func testKafka(brokers []string, topic string) error {
	fmt.Println("Kafka test")

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Version = sarama.V3_6_0_0
	prod, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return fmt.Errorf("producer create: %w", err)
	}
	defer func() { _ = prod.Close() }()

	ev := invalidation.Event{
		Version:         1,
		Op:              "upsert",
		EstablishmentID: "est-smoketest",
		TS:              time.Now().UTC(),
		Seq:             uint64(time.Now().UnixNano()),
		Deal: &invalidation.DealChange{
			ID: "deal-smoketest", Name: "smoke brew",
			Days: "daily", Start: "17:00", End: "19:00",
		},
	}
	msgBytes, _ := json.Marshal(ev)
	_, _, err = prod.SendMessage(&sarama.ProducerMessage{
		Topic: topic, Value: sarama.ByteEncoder(msgBytes),
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	fmt.Println("produced one deal-change event")

	consumer, err := sarama.NewConsumer(brokers, cfg)
	if err != nil {
		return fmt.Errorf("consumer create: %w", err)
	}
	defer func() { _ = consumer.Close() }()

	pc, err := consumer.ConsumePartition(topic, 0, sarama.OffsetNewest)
	if err != nil {
		pc, err = consumer.ConsumePartition(topic, 0, sarama.OffsetOldest)
		if err != nil {
			return fmt.Errorf("consume partition: %w", err)
		}
	}
	defer func() { _ = pc.Close() }()

	select {
	case m := <-pc.Messages():
		fmt.Println("consumed:", string(m.Value))
	case <-time.After(5 * time.Second):
		fmt.Println("no message consumed (timeout)")
	}

	return nil
}

func demoH3() error {
	fmt.Println("H3 demo")
	lat, lon := 1.3521, 103.8198
	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), 9)
	if err != nil {
		return fmt.Errorf("lat/lng to cell: %w", err)
	}
	neighbors, err := h3.GridDisk(cell, 1)
	if err != nil {
		return fmt.Errorf("grid disk: %w", err)
	}
	fmt.Printf("H3 center: %s, neighbors: %d\n", cell.String(), len(neighbors))
	return nil
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	redisAddr := getenv("REDIS_ADDR", "localhost:6379")
	serverURL := getenv("SERVER_URL", "http://localhost:8090")
	brokers := strings.Split(getenv("KAFKA_BROKERS", "localhost:9092"), ",")
	topic := getenv("KAFKA_TOPIC", "deal-changes")

	if err := testRedis(ctx, redisAddr); err != nil {
		fmt.Println("Redis error:", err)
		return
	}
	if err := testDealServer(serverURL); err != nil {
		fmt.Println("Deal server error:", err)
		return
	}
	if err := testKafka(brokers, topic); err != nil {
		fmt.Println("Kafka error:", err)
		return
	}
	if err := demoH3(); err != nil {
		fmt.Println("H3 error:", err)
		return
	}
	fmt.Println("All tests completed")
}
