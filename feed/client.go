package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"mainttrack/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	connectAttempts  = 5
	connectBaseDelay = time.Second
)

// Client is the unified change-feed client (MQTT or Redis Pub/Sub).
type Client struct {
	mu       sync.RWMutex
	cfg      *config.FeedConfig
	log      *zap.Logger
	backend  string
	mqttConn mqtt.Client
	rdb      *redis.Client
	subs     map[string]*subscription
}

type subscription struct {
	table   string
	handler Handler
	cancel  context.CancelFunc // redis only
}

// NewClient creates a feed client based on config.
func NewClient(cfg *config.FeedConfig, log *zap.Logger) *Client {
	return &Client{
		cfg:     cfg,
		log:     log,
		backend: cfg.Backend,
		subs:    make(map[string]*subscription),
	}
}

// Topic returns the feed topic or channel for a table.
func (c *Client) Topic(table string) string {
	switch c.backend {
	case "redis":
		return fmt.Sprintf("%s:changes:%s", c.cfg.Redis.ChannelPrefix, table)
	default:
		return fmt.Sprintf("%s/changes/%s", c.cfg.MQTT.TopicPrefix, table)
	}
}

// Connect establishes the feed connection, retrying with doubling delays
// before giving up. Once connected, reconnection is handled by the backend
// library. Dialing and the retry sleeps happen outside the client lock so
// IsConnected and Subscribe stay responsive during a slow connect.
func (c *Client) Connect() error {
	if c.backend != "mqtt" && c.backend != "redis" {
		return fmt.Errorf("unknown feed backend: %s", c.backend)
	}

	var err error
	delay := connectBaseDelay
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = c.connectOnce(); err == nil {
			return nil
		}
		if attempt < connectAttempts {
			c.log.Warn("feed connect failed, retrying",
				zap.String("backend", c.backend),
				zap.Int("attempt", attempt),
				zap.Duration("retry_in", delay),
				zap.Error(err))
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("feed connect (%s): %w", c.backend, err)
}

// connectOnce dials unlocked and only takes the lock to install the
// connection.
func (c *Client) connectOnce() error {
	if c.backend == "redis" {
		rdb, err := c.connectRedis()
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.rdb = rdb
		c.mu.Unlock()
		return nil
	}
	client, err := c.connectMQTT()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.mqttConn = client
	c.mu.Unlock()
	return nil
}

func (c *Client) connectMQTT() (mqtt.Client, error) {
	broker := fmt.Sprintf("tcp://%s:%d", c.cfg.MQTT.Broker, c.cfg.MQTT.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(c.cfg.MQTT.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(c.onMQTTConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.log.Warn("feed connection lost", zap.Error(err))
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return client, nil
}

func (c *Client) connectRedis() (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.cfg.Redis.Address,
		Password: c.cfg.Redis.Password,
		DB:       c.cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	return rdb, nil
}

// onMQTTConnect re-subscribes all tables after a (re)connect. paho drops
// subscriptions on a clean-session reconnect.
func (c *Client) onMQTTConnect(client mqtt.Client) {
	c.mu.RLock()
	subs := make([]*subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.RUnlock()

	for _, s := range subs {
		if err := c.mqttSubscribe(client, s.table, s.handler); err != nil {
			c.log.Error("feed resubscribe failed", zap.String("table", s.table), zap.Error(err))
		}
	}
}

// Subscribe registers a handler for change events on one table.
func (c *Client) Subscribe(table string, h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.subs[table]; ok && prev.cancel != nil {
		prev.cancel()
	}

	switch c.backend {
	case "mqtt":
		if c.mqttConn == nil {
			return fmt.Errorf("feed not connected")
		}
		if err := c.mqttSubscribe(c.mqttConn, table, h); err != nil {
			return err
		}
		c.subs[table] = &subscription{table: table, handler: h}
		return nil
	case "redis":
		if c.rdb == nil {
			return fmt.Errorf("feed not connected")
		}
		ctx, cancel := context.WithCancel(context.Background())
		pubsub := c.rdb.Subscribe(ctx, c.Topic(table))
		go c.redisLoop(ctx, pubsub, table, h)
		c.subs[table] = &subscription{table: table, handler: h, cancel: cancel}
		return nil
	default:
		return fmt.Errorf("unknown feed backend: %s", c.backend)
	}
}

func (c *Client) mqttSubscribe(client mqtt.Client, table string, h Handler) error {
	token := client.Subscribe(c.Topic(table), 1, func(_ mqtt.Client, msg mqtt.Message) {
		c.dispatch(table, msg.Payload(), h)
	})
	token.Wait()
	return token.Error()
}

// redisLoop reads one table's channel until the subscription is cancelled.
// go-redis reconnects the pubsub connection internally.
func (c *Client) redisLoop(ctx context.Context, pubsub *redis.PubSub, table string, h Handler) {
	defer pubsub.Close()
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			c.dispatch(table, []byte(msg.Payload), h)
		}
	}
}

func (c *Client) dispatch(table string, payload []byte, h Handler) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		c.log.Warn("feed event decode failed", zap.String("table", table), zap.Error(err))
		return
	}
	if evt.Table == "" {
		evt.Table = table
	}
	h(evt)
}

// Unsubscribe stops delivery for one table.
func (c *Client) Unsubscribe(table string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, ok := c.subs[table]
	if !ok {
		return nil
	}
	delete(c.subs, table)

	switch c.backend {
	case "mqtt":
		if c.mqttConn == nil {
			return nil
		}
		token := c.mqttConn.Unsubscribe(c.Topic(table))
		token.Wait()
		return token.Error()
	case "redis":
		if sub.cancel != nil {
			sub.cancel()
		}
		return nil
	default:
		return nil
	}
}

// IsConnected reports whether the feed connection is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch c.backend {
	case "mqtt":
		return c.mqttConn != nil && c.mqttConn.IsConnected()
	case "redis":
		return c.rdb != nil
	default:
		return false
	}
}

// Close shuts down the feed connection and all subscriptions.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.subs {
		if s.cancel != nil {
			s.cancel()
		}
	}
	c.subs = make(map[string]*subscription)

	if c.mqttConn != nil {
		c.mqttConn.Disconnect(1000)
		c.mqttConn = nil
	}
	if c.rdb != nil {
		c.rdb.Close()
		c.rdb = nil
	}
}
