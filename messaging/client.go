// Package messaging republishes cache change notifications to Kafka for
// downstream consumers (reporting, notification fan-out). Outbound only;
// nothing in the cache depends on it.
package messaging

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"mainttrack/config"
)

type Client struct {
	mu     sync.RWMutex
	cfg    *config.MessagingConfig
	log    *zap.Logger
	writer *kafka.Writer
}

func NewClient(cfg *config.MessagingConfig, log *zap.Logger) *Client {
	return &Client{cfg: cfg, log: log}
}

// Connect verifies a broker is reachable, ensures the state topic exists,
// and sets up the writer.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	var conn *kafka.Conn
	var connErr error
	for _, broker := range c.cfg.Kafka.Brokers {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
		conn, connErr = kafka.DialContext(ctx, "tcp", broker)
		cancel()
		if connErr == nil {
			c.log.Info("kafka connected", zap.String("broker", broker))
			break
		}
	}
	if connErr != nil {
		return fmt.Errorf("kafka connect: %w", connErr)
	}

	c.ensureTopics(conn, c.cfg.StateTopic)
	conn.Close()

	c.writer = &kafka.Writer{
		Addr:     kafka.TCP(c.cfg.Kafka.Brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return nil
}

func (c *Client) Publish(topic string, payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.writer == nil {
		return fmt.Errorf("kafka not connected")
	}
	return c.writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Value: payload,
	})
}

// ensureTopics creates topics if they don't already exist. Errors are
// logged but not fatal since the broker may have
// auto.create.topics.enable=true anyway.
func (c *Client) ensureTopics(conn *kafka.Conn, topics ...string) {
	if len(topics) == 0 {
		return
	}

	controller, err := conn.Controller()
	if err != nil {
		c.log.Warn("cannot find controller for topic creation", zap.Error(err))
		return
	}

	controllerAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := kafka.Dial("tcp", controllerAddr)
	if err != nil {
		c.log.Warn("cannot connect to controller", zap.Error(err))
		return
	}
	defer controllerConn.Close()

	configs := make([]kafka.TopicConfig, len(topics))
	for i, t := range topics {
		configs[i] = kafka.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}

	if err := controllerConn.CreateTopics(configs...); err != nil {
		c.log.Warn("topic auto-create failed", zap.Strings("topics", topics), zap.Error(err))
	}
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.writer != nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writer != nil {
		c.writer.Close()
		c.writer = nil
	}
}
