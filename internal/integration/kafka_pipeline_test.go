//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/seaice-catalog/internal/adapter/kafka"
	"github.com/couchcryptid/seaice-catalog/internal/config"
	"github.com/couchcryptid/seaice-catalog/internal/domain"
	"github.com/couchcryptid/seaice-catalog/internal/observability"
	"github.com/couchcryptid/seaice-catalog/internal/pipeline"
	"github.com/couchcryptid/seaice-catalog/internal/store"
)

// feedMessage holds a deserialized message read from the change feed topic.
type feedMessage struct {
	Key     string
	Body    map[string]any
	Headers map[string]string
}

// readFeed reads n messages from the change feed topic.
func readFeed(ctx context.Context, t *testing.T, broker, topic string, n int) []feedMessage {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       topic,
		GroupID:     fmt.Sprintf("test-feed-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]feedMessage, 0, n)
	for len(out) < n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read from feed topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		var body map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &body), "unmarshal feed message")
		out = append(out, feedMessage{Key: string(msg.Key), Body: body, Headers: headers})
	}
	return out
}

func keys(msgs []feedMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Key
	}
	return out
}

func TestWriterPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, "test-writer")

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: "test-writer"}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	records := []domain.ChartRecord{
		{
			Name:   "arctic170413",
			Href:   "https://example.test/arctic170413.zip",
			Source: domain.SourceNIC,
			Region: domain.RegionArctic,
			Epoch:  time.Date(2017, time.April, 13, 0, 0, 0, 0, time.UTC),
			Format: domain.FormatShapefile,
		},
		{
			Name:   "rgc_a09_20210304_CEXPRHB",
			Href:   "https://example.test/rgc_a09_20210304_CEXPRHB.zip",
			Source: domain.SourceCIS,
			Region: "Hudson Bay",
			Epoch:  time.Date(2021, time.March, 4, 0, 0, 0, 0, time.UTC),
			Format: domain.FormatShapefile,
		},
	}
	require.NoError(t, writer.Publish(ctx, records))

	msgs := readFeed(ctx, t, broker, "test-writer", 2)
	assert.ElementsMatch(t, []string{"NIC/arctic/2017-04-13", "CIS/Hudson Bay/2021-03-04"}, keys(msgs))

	for _, m := range msgs {
		assert.Equal(t, m.Key, m.Body["key"])
		assert.Equal(t, m.Headers["source"], m.Body["source"])
		assert.Equal(t, m.Headers["region"], m.Body["region"])
		if m.Headers["source"] == "NIC" {
			assert.Equal(t, "2017-04-13", m.Body["epoch"])
			assert.Equal(t, "arctic170413", m.Body["name"])
		}
	}
}

// stubLocator serves a fixed listing.
type stubLocator struct {
	source domain.Source
	links  []domain.FileLink
}

func (s stubLocator) Source() domain.Source { return s.source }

func (s stubLocator) Locate(context.Context, time.Time) ([]domain.FileLink, error) {
	return s.links, nil
}

func TestRefreshPublishesChanges(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, "test-refresh")

	s, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: "test-refresh"}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	loc := stubLocator{source: domain.SourceNIC, links: []domain.FileLink{
		{Name: "arctic170413", Href: "https://example.test/arctic170413.zip"},
		{Name: "antarc170413", Href: "https://example.test/antarc170413.zip"},
		{Name: "readme", Href: "https://example.test/readme.txt"},
	}}
	p := pipeline.New([]pipeline.Locator{loc}, s, nil, writer,
		pipeline.Settings{HistoryStart: time.Date(1968, time.June, 25, 0, 0, 0, 0, time.UTC)},
		discardLogger(), observability.NewMetricsForTesting())

	stats, err := p.Refresh(ctx, pipeline.RefreshOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Upserted)
	assert.Equal(t, 1, stats.Unparseable)

	msgs := readFeed(ctx, t, broker, "test-refresh", 2)
	assert.ElementsMatch(t, []string{"NIC/arctic/2017-04-13", "NIC/antarctic/2017-04-13"}, keys(msgs))

	// Nothing else should arrive: the unparseable link never reaches the feed.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     "test-refresh",
		Partition: 0,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	require.NoError(t, consumer.SetOffset(2))
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no third message on the feed topic")
}

// startKafka runs a single-node broker for the test and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("seaice-catalog-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	cconn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer cconn.Close()

	require.NoError(t, cconn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
