package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"PingUp/logger"
)

const (
	BusLocal = "local"
	BusNats  = "nats"
	BusRedis = "redis"

	StoreMongo  = "mongo"
	StoreMemory = "memory"

	WorkflowNone  = "none"
	WorkflowKafka = "kafka"
)

// AppConfig 进程级配置，全部来自环境变量（可由 .env 提供）。
type AppConfig struct {
	Port        int    `envconfig:"PORT" default:"4000" validate:"min=1,max=65535"`
	FrontendURL string `envconfig:"FRONTEND_URL"`
	NodeID      int64  `envconfig:"NODE_ID" default:"1" validate:"min=0,max=1023"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true" validate:"required"`
	JWTAlg    string `envconfig:"JWT_ALG" default:"HS256" validate:"oneof=HS256 HS384 HS512"`

	StoreDriver  string `envconfig:"STORE_DRIVER" default:"mongo" validate:"oneof=mongo memory"`
	MongoURL     string `envconfig:"MONGODB_URL" validate:"required_if=StoreDriver mongo"`
	MongoDB      string `envconfig:"MONGODB_DATABASE" default:"PingUp"`
	MongoPool    uint64 `envconfig:"MONGODB_MAX_POOL" default:"20"`
	MongoRetries int    `envconfig:"MONGODB_MAX_RETRY" default:"3" validate:"min=0,max=100"`

	BusDriver     string   `envconfig:"BUS_DRIVER" default:"local" validate:"oneof=local nats redis"`
	NatsServers   []string `envconfig:"NATS_SERVERS" default:"nats://127.0.0.1:4222"`
	NatsSubject   string   `envconfig:"NATS_SUBJECT_PREFIX" default:"pingup.user"`
	RedisAddr     string   `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string   `envconfig:"REDIS_PASSWORD"`
	RedisDB       int      `envconfig:"REDIS_DB" default:"0"`
	RedisChannel  string   `envconfig:"REDIS_CHANNEL_PREFIX" default:"pingup:user"`

	HeartbeatInterval time.Duration `envconfig:"SSE_HEARTBEAT" default:"20s" validate:"gt=0"`
	ChannelBuffer     int           `envconfig:"CHANNEL_BUFFER" default:"64" validate:"min=1"`
	HistoryLimit      int64         `envconfig:"MESSAGE_HISTORY_LIMIT" default:"0" validate:"min=0"`

	ImageKitPrivateKey string `envconfig:"IMAGEKIT_PRIVATE_KEY"`
	ImageKitUploadURL  string `envconfig:"IMAGEKIT_UPLOAD_URL" default:"https://upload.imagekit.io/api/v1/files/upload" validate:"url"`
	ImageKitFolder     string `envconfig:"IMAGEKIT_FOLDER" default:"messages"`
	MediaTransform     string `envconfig:"MEDIA_TRANSFORM" default:"q-auto,f-webp,w-1280"`
	MaxUploadBytes     int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760" validate:"min=1"`

	WorkflowDriver string   `envconfig:"WORKFLOW_DRIVER" default:"none" validate:"oneof=none kafka"`
	KafkaBrokers   []string `envconfig:"KAFKA_BROKERS" default:"127.0.0.1:9092"`
	KafkaTopic     string   `envconfig:"KAFKA_WORKFLOW_TOPIC" default:"pingup.workflow"`

	DigestEnabled bool   `envconfig:"DIGEST_ENABLED" default:"true"`
	DigestHour    int    `envconfig:"DIGEST_HOUR" default:"9" validate:"min=0,max=23"`
	DigestTZ      string `envconfig:"DIGEST_TZ" default:"America/New_York" validate:"timezone"`
}

var validate = validator.New()

// Load 先读 .env（不存在则忽略），再解析环境变量并校验。
func Load(files ...string) (*AppConfig, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			logger.Debug("env file loaded", zap.String("file", f))
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process env")
	}
	cfg.normalize()
	if err := validate.Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &cfg, nil
}

func (c *AppConfig) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.BusDriver = strings.ToLower(strings.TrimSpace(c.BusDriver))
	c.WorkflowDriver = strings.ToLower(strings.TrimSpace(c.WorkflowDriver))
	c.JWTAlg = strings.ToUpper(strings.TrimSpace(c.JWTAlg))
	c.FrontendURL = strings.TrimRight(strings.TrimSpace(c.FrontendURL), "/")
}

// Location 返回摘要任务使用的时区。
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.DigestTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}
