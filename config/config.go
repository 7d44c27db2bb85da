package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Feed      FeedConfig      `yaml:"feed"`
	Messaging MessagingConfig `yaml:"messaging"`
	Web       WebConfig       `yaml:"web"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// FeedConfig selects and configures the change-feed backend.
type FeedConfig struct {
	Backend string      `yaml:"backend"` // "mqtt" or "redis"
	MQTT    MQTTConfig  `yaml:"mqtt"`
	Redis   RedisConfig `yaml:"redis"`
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	Port        int    `yaml:"port"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type RedisConfig struct {
	Address       string `yaml:"address"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

type MessagingConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Kafka          KafkaConfig   `yaml:"kafka"`
	StateTopic     string        `yaml:"state_topic"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "mainttrack.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "mainttrack",
				User:     "mainttrack",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Feed: FeedConfig{
			Backend: "mqtt",
			MQTT: MQTTConfig{
				Broker:      "localhost",
				Port:        1883,
				ClientID:    "mainttrack",
				TopicPrefix: "mainttrack",
			},
			Redis: RedisConfig{
				Address:       "localhost:6379",
				Password:      "",
				DB:            0,
				ChannelPrefix: "mainttrack",
			},
		},
		Messaging: MessagingConfig{
			Enabled: false,
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "mainttrack",
			},
			StateTopic:     "mainttrack.state",
			ConnectTimeout: 5 * time.Second,
		},
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8084,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
