package config

import (
	"errors"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTP     HTTP
	Logger   Logger
	Postgres Postgres
	JWT      JWT
	Invoice  Invoice
	Alert    Alert
	Breaker  Breaker
	Kafka    Kafka
}

type HTTP struct {
	Port int `env:"HTTP_PORT" envDefault:"8080"`
}

type Logger struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type Postgres struct {
	DSN     string `env:"POSTGRES_DSN"`
	MaxConn int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
}

type JWT struct {
	PrivateKey string        `env:"JWT_PRIVATE_KEY"` // base64 encoded PEM
	Expiry     time.Duration `env:"JWT_EXPIRY" envDefault:"12h"`
}

type Invoice struct {
	LimitPerUser        decimal.Decimal `env:"INVOICE_LIMIT"`
	SerializeSubmission bool            `env:"INVOICE_SERIALIZE_SUBMISSIONS" envDefault:"true"`
	StatsInterval       time.Duration   `env:"INVOICE_STATS_INTERVAL" envDefault:"5m"` // 0 disables the job
}

type AlertProvider string

const (
	AlertProviderSlack AlertProvider = "slack"
	AlertProviderEmail AlertProvider = "email"
)

type Alert struct {
	Provider   AlertProvider `env:"ALERT_PROVIDER" envDefault:"slack"`
	Channel    string        `env:"ALERT_CHANNEL" envDefault:"#alerts"`
	DetailsURL string        `env:"ALERT_DETAILS_URL" envDefault:"http://www.example.com"`
	Timeout    time.Duration `env:"ALERT_TIMEOUT" envDefault:"5s"`
	Slack      Slack
	SMTP       SMTP
}

type Slack struct {
	Token      string `env:"SLACK_TOKEN" envDefault:""`
	APIURL     string `env:"SLACK_API_URL" envDefault:""`
	RetryCount int    `env:"SLACK_RETRY_COUNT" envDefault:"2"`
}

type SMTP struct {
	Host     string `env:"SMTP_HOST" envDefault:""`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Login    string `env:"SMTP_LOGIN" envDefault:""`
	Password string `env:"SMTP_PASSWORD" envDefault:""`
	From     string `env:"SMTP_FROM" envDefault:""`
	FromName string `env:"SMTP_FROM_NAME" envDefault:"Back office"`
}

type Breaker struct {
	MinRequests      uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"10"`
	FailureRatio     float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	Interval         time.Duration `env:"BREAKER_INTERVAL" envDefault:"1m"`
	OpenTimeout      time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"60s"`
	HalfOpenRequests uint32        `env:"BREAKER_HALF_OPEN_REQUESTS" envDefault:"3"`
}

type Kafka struct {
	Brokers               []string `env:"KAFKA_BROKERS" envDefault:"kafka:9092"`
	InvoiceSubmittedTopic string   `env:"KAFKA_INVOICE_SUBMITTED_TOPIC" envDefault:"invoice-submitted"`
}

func New(envPath string) (Config, error) {
	err := godotenv.Load(envPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	c, err := env.ParseAsWithOptions[Config](env.Options{
		RequiredIfNoDef: true,
	})
	if err != nil {
		return Config{}, err
	}

	if !c.Invoice.LimitPerUser.IsPositive() {
		return Config{}, errors.New("INVOICE_LIMIT must be positive")
	}

	return c, nil
}
