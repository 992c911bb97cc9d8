package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/skuchniy0511/ordkv/types"
)

const (
	TransportAMQP   = "amqp"
	TransportSQS    = "sqs"
	TransportMemory = "memory"
)

var ErrUnknownTransport = errors.New("unknown transport")

type Config struct {
	Transport             string    `yaml:"transport"`
	AmqpUrl               string    `yaml:"AMQP_SERVER_URL"`
	QueueName             string    `yaml:"queueName"`
	ReplyQueue            string    `yaml:"replyQueue"`
	SQS                   SQSConfig `yaml:"sqs"`
	LogFilePath           string    `yaml:"logFile"`
	LogLevel              string    `yaml:"logLevel"`
	ClientsInputPath      string    `yaml:"clientsInputPath"`
	ServerWaitTimeSeconds int64     `yaml:"serverWaitTimeSeconds"`
	ClientIdleSeconds     int64     `yaml:"clientIdleSeconds"`
	HTTPAddr              string    `yaml:"httpAddr"`
	Seed                  []Pair    `yaml:"seed"`
}

type SQSConfig struct {
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	QueueUrl      string `yaml:"queueUrl"`
	ReplyQueueUrl string `yaml:"replyQueueUrl"`
}

type Pair struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	// Substitute from environemental vars
	confContent := []byte(os.ExpandEnv(string(data)))

	config := &Config{}

	err := yaml.Unmarshal(confContent, config)
	if err != nil {
		return nil, err
	}
	config.setDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) setDefaults() {
	if c.Transport == "" {
		c.Transport = TransportAMQP
	}
	if c.QueueName == "" {
		c.QueueName = "items"
	}
	if c.ReplyQueue == "" {
		c.ReplyQueue = "items.results"
	}
	if c.LogLevel == "" {
		c.LogLevel = "debug"
	}
	if c.ClientIdleSeconds <= 0 {
		c.ClientIdleSeconds = 10
	}
}

func (c *Config) validate() error {
	switch c.Transport {
	case TransportAMQP:
		if c.AmqpUrl == "" {
			return fmt.Errorf("transport %s: AMQP_SERVER_URL is required", c.Transport)
		}
	case TransportSQS:
		if c.SQS.QueueUrl == "" {
			return fmt.Errorf("transport %s: sqs.queueUrl is required", c.Transport)
		}
		if c.ServerWaitTimeSeconds < 0 || c.ServerWaitTimeSeconds > 20 {
			return fmt.Errorf("serverWaitTimeSeconds must be within 0..20, got %d", c.ServerWaitTimeSeconds)
		}
	case TransportMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransport, c.Transport)
	}

	return nil
}

// RequestQueue is the queue items are sent to, as the transport names it.
func (c *Config) RequestQueue() string {
	if c.Transport == TransportSQS {
		return c.SQS.QueueUrl
	}
	return c.QueueName
}

// ResultQueue is the queue results are sent back on. It may be empty for SQS.
func (c *Config) ResultQueue() string {
	if c.Transport == TransportSQS {
		return c.SQS.ReplyQueueUrl
	}
	return c.ReplyQueue
}

// SeedEntries returns the configured initial contents in file order.
func (c *Config) SeedEntries() []types.Entry[string, string] {
	entries := make([]types.Entry[string, string], 0, len(c.Seed))
	for _, p := range c.Seed {
		entries = append(entries, types.Entry[string, string]{Key: p.Key, Value: p.Value})
	}

	return entries
}
