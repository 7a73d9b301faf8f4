package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Configs struct {
	Env string

	Log          LogConfigs
	Database     DatabaseConfigs
	ApiServer    APIServerConfigs
	Auth         AuthConfigs
	Storage      S3Configs
	Redis        RedisConfigs
	Kafka        KafkaConfigs
	Notification NotificationConfigs
	Reward       RewardConfigs
}

type LogConfigs struct {
	Level string
	File  string
}

type DatabaseConfigs struct {
	// Driver is mysql, postgres or sqlite. Database is the file path for
	// sqlite.
	Driver   string
	Host     string
	Port     string
	Database string
	User     string
	Password string
	LogLevel string
}

func (d *DatabaseConfigs) ConnectionString() string {
	switch d.Driver {
	case "sqlite":
		return d.Database
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			d.Host,
			d.Port,
			d.User,
			d.Password,
			d.Database,
		)
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&multiStatements=true",
			d.User,
			d.Password,
			d.Host,
			d.Port,
			d.Database,
		)
	}
}

type APIServerConfigs struct {
	Host string
	Port string

	MaxLimit     int
	DefaultLimit int

	// RateLimit is the number of requests per second allowed for each client
	// address. Zero disables the limiter.
	RateLimit float64
	RateBurst int
}

func (c APIServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type AuthConfigs struct {
	TokenSecret string
	AccessToken TokenConfigs
}

type TokenConfigs struct {
	Name       string
	Expiration time.Duration
}

type S3Configs struct {
	Region         string
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	SSLDisabled    bool
	Bucket         string
	MaxSize        int
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr string
}

type NotificationConfigs struct {
	Workers   int
	QueueSize int

	// Deliverer is store or kafka. The kafka deliverer needs the notifier
	// command to persist notifications.
	Deliverer string
	Topic     string
}

type RewardConfigs struct {
	DistributeConcurrency int
	ReconcileSchedule     string
	LeaderboardSchedule   string
}

func Default() Configs {
	return Configs{
		Env: "local",
		Log: LogConfigs{Level: "info"},
		Database: DatabaseConfigs{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     "3306",
			Database: "impact",
			User:     "mysql",
			Password: "mysql",
			LogLevel: "error",
		},
		ApiServer: APIServerConfigs{
			Port:         "8080",
			MaxLimit:     50,
			DefaultLimit: 10,
			RateLimit:    20,
			RateBurst:    40,
		},
		Auth: AuthConfigs{
			AccessToken: TokenConfigs{
				Name:       "access_token",
				Expiration: 24 * time.Hour,
			},
		},
		Storage: S3Configs{
			Bucket:  "evidence",
			MaxSize: 10 * 1024 * 1024,
		},
		Redis: RedisConfigs{Addr: "localhost:6379"},
		Kafka: KafkaConfigs{Addr: "localhost:9092"},
		Notification: NotificationConfigs{
			Workers:   4,
			QueueSize: 1024,
			Deliverer: "store",
			Topic:     "notification",
		},
		Reward: RewardConfigs{
			DistributeConcurrency: 4,
			ReconcileSchedule:     "*/5 * * * *",
			LeaderboardSchedule:   "0 * * * *",
		},
	}
}

// Load reads the TOML file at path on top of the defaults. Variables found in a
// .env file and the process environment take precedence over the file.
func Load(path string) (Configs, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("cannot decode config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("cannot load .env: %w", err)
	}

	overrideString(&cfg.Env, "ENV")
	overrideString(&cfg.Log.Level, "LOG_LEVEL")
	overrideString(&cfg.Database.Driver, "DB_DRIVER")
	overrideString(&cfg.Database.Host, "DB_HOST")
	overrideString(&cfg.Database.Port, "DB_PORT")
	overrideString(&cfg.Database.Database, "DB_NAME")
	overrideString(&cfg.Database.User, "DB_USER")
	overrideString(&cfg.Database.Password, "DB_PASSWORD")
	overrideString(&cfg.ApiServer.Port, "API_PORT")
	overrideString(&cfg.Auth.TokenSecret, "TOKEN_SECRET")
	overrideString(&cfg.Redis.Addr, "REDIS_ADDRESS")
	overrideString(&cfg.Kafka.Addr, "KAFKA_ADDRESS")
	overrideString(&cfg.Storage.AccessKey, "S3_ACCESS_KEY")
	overrideString(&cfg.Storage.SecretKey, "S3_SECRET_KEY")
	overrideString(&cfg.Notification.Deliverer, "NOTIFICATION_DELIVERER")
	if err := overrideInt(&cfg.Reward.DistributeConcurrency, "REWARD_DISTRIBUTE_CONCURRENCY"); err != nil {
		return cfg, err
	}

	if cfg.Auth.TokenSecret == "" {
		return cfg, fmt.Errorf("auth token secret must be set")
	}

	return cfg, nil
}

func overrideString(field *string, env string) {
	if v, ok := os.LookupEnv(env); ok {
		*field = v
	}
}

func overrideInt(field *int, env string) error {
	v, ok := os.LookupEnv(env)
	if !ok {
		return nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", env, err)
	}

	*field = n
	return nil
}
