package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v2"
)

const (
	GatewayHTTP        = "http"
	GatewayYaS3Trigger = "ya-s3-trigger"
	GatewayKafka       = "kafka"

	StorageAzblob = "azblob"
	StorageS3     = "s3"
	StorageMemory = "memory"

	LogFormatJSON = "json"
	LogFormatText = "text"
	LogFormatTint = "tint"
)

type Config struct {
	Log       LogConfig       `yaml:"Log"`
	Gateway   GatewayConfig   `yaml:"Gateway"`
	Kafka     KafkaConfig     `yaml:"Kafka"`
	Storage   StorageConfig   `yaml:"Storage"`
	Thumbnail ThumbnailConfig `yaml:"Thumbnail"`
	Media     MediaConfig     `yaml:"Media"`
}

type LogConfig struct {
	Level  string `yaml:"Level" env:"LOG_LEVEL"`
	Format string `yaml:"Format" env:"LOG_FORMAT"`
}

type GatewayConfig struct {
	Type    string `yaml:"Type" env:"GATEWAY"`
	Address string `yaml:"Address" env:"ADDRESS"`
}

type KafkaConfig struct {
	Brokers string `yaml:"Brokers" env:"KAFKA_BROKERS"`
	Topic   string `yaml:"Topic" env:"KAFKA_TOPIC"`
	GroupID string `yaml:"GroupID" env:"KAFKA_GROUP_ID"`
	// DeadLetterTopic receives notifications that still fail after
	// MaxAttempts. Empty drops them.
	DeadLetterTopic string        `yaml:"DeadLetterTopic" env:"KAFKA_DEAD_LETTER_TOPIC"`
	MaxAttempts     int           `yaml:"MaxAttempts" env:"KAFKA_MAX_ATTEMPTS"`
	Backoff         time.Duration `yaml:"Backoff" env:"KAFKA_BACKOFF"`
}

type StorageConfig struct {
	Type string `yaml:"Type" env:"STORAGE"`
	// Connection is an Azure storage connection string. Empty means no
	// connection is configured.
	Connection   string `yaml:"Connection" env:"STORAGE_CONNECTION,AzureWebJobsStorage"`
	Endpoint     string `yaml:"Endpoint" env:"ENDPOINT"`
	AccessKey    string `yaml:"AccessKey" env:"ACCESS_KEY"`
	AccessSecret string `yaml:"AccessSecret" env:"ACCESS_SECRET"`
	Region       string `yaml:"Region" env:"REGION"`
}

type ThumbnailConfig struct {
	SourceContainer      string `yaml:"SourceContainer" env:"SOURCE_CONTAINER"`
	DestinationContainer string `yaml:"DestinationContainer" env:"DESTINATION_CONTAINER"`
	JPEGQuality          int    `yaml:"JPEGQuality" env:"JPEG_QUALITY"`
}

type MediaConfig struct {
	BaseURL string `yaml:"BaseURL" env:"MEDIA_BASE_URL"`
}

func defaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatJSON,
		},
		Gateway: GatewayConfig{
			Type:    GatewayHTTP,
			Address: ":8080",
		},
		Kafka: KafkaConfig{
			GroupID:     "thumbnail-sync",
			MaxAttempts: 5,
			Backoff:     time.Second,
		},
		Storage: StorageConfig{
			Type: StorageAzblob,
		},
		Thumbnail: ThumbnailConfig{
			SourceContainer:      "davendesiteimages",
			DestinationContainer: "davendesiteimages-thumbnails",
			JPEGQuality:          75,
		},
	}
}

// LoadConfig reads defaults, then the YAML file at path if it exists, then
// environment overrides.
func LoadConfig(path string) (Config, error) {
	c := defaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read file: %w", err)
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return Config{}, fmt.Errorf("unmarshal yaml: %w", err)
			}
		}
	}

	if err := cleanenv.UpdateEnv(&c); err != nil {
		return Config{}, fmt.Errorf("update env: %w", err)
	}

	if err := c.validate(); err != nil {
		return Config{}, fmt.Errorf("validate: %w", err)
	}

	return c, nil
}

func (c Config) validate() error {
	switch c.Log.Format {
	case LogFormatJSON, LogFormatText, LogFormatTint:
	default:
		return fmt.Errorf("unknown log format `%s`", c.Log.Format)
	}

	switch c.Gateway.Type {
	case GatewayHTTP, GatewayYaS3Trigger:
	case GatewayKafka:
		if c.Kafka.Brokers == "" || c.Kafka.Topic == "" {
			return errors.New("kafka gateway requires brokers and topic")
		}
		if c.Kafka.MaxAttempts < 1 {
			return fmt.Errorf("kafka max attempts %d must be positive", c.Kafka.MaxAttempts)
		}
	default:
		return fmt.Errorf("unknown gateway `%s`", c.Gateway.Type)
	}

	switch c.Storage.Type {
	case StorageAzblob, StorageS3, StorageMemory:
	default:
		return fmt.Errorf("unknown storage `%s`", c.Storage.Type)
	}

	if c.Thumbnail.SourceContainer == "" || c.Thumbnail.DestinationContainer == "" {
		return errors.New("empty container")
	}
	if c.Thumbnail.SourceContainer == c.Thumbnail.DestinationContainer {
		return errors.New("source and destination containers must differ")
	}
	if c.Thumbnail.JPEGQuality < 1 || c.Thumbnail.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality %d out of range", c.Thumbnail.JPEGQuality)
	}

	return nil
}
