package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	SeatPrice           string `yaml:"seat_price"`
	SeatsCacheTTL       int    `yaml:"seats_cache_ttl_seconds"`
	SelectionTTLMinutes int    `yaml:"selection_ttl_minutes"`
	TicketValidityHours int    `yaml:"ticket_validity_hours"`
}

func (b BookingConfig) Price() (decimal.Decimal, error) {
	return decimal.NewFromString(b.SeatPrice)
}

func (b BookingConfig) SeatsCacheDuration() time.Duration {
	return time.Duration(b.SeatsCacheTTL) * time.Second
}

func (b BookingConfig) SelectionTTL() time.Duration {
	return time.Duration(b.SelectionTTLMinutes) * time.Minute
}

func (b BookingConfig) TicketValidity() time.Duration {
	return time.Duration(b.TicketValidityHours) * time.Hour
}

type AuthConfig struct {
	JWTSecret       string   `yaml:"jwt_secret"`
	TokenTTLMinutes int      `yaml:"token_ttl_minutes"`
	BcryptCost      int      `yaml:"bcrypt_cost"`
	AdminEmails     []string `yaml:"admin_emails"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets secrets live outside the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "metroreserve-notifier"
	}
	if c.Booking.SeatPrice == "" {
		c.Booking.SeatPrice = "25.00"
	}
	if c.Booking.SeatsCacheTTL == 0 {
		c.Booking.SeatsCacheTTL = 30
	}
	if c.Booking.SelectionTTLMinutes == 0 {
		c.Booking.SelectionTTLMinutes = 15
	}
	if c.Booking.TicketValidityHours == 0 {
		c.Booking.TicketValidityHours = 24
	}
	if c.Auth.TokenTTLMinutes == 0 {
		c.Auth.TokenTTLMinutes = 60
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	price, err := c.Booking.Price()
	if err != nil {
		return fmt.Errorf("invalid booking.seat_price %q: %w", c.Booking.SeatPrice, err)
	}
	if price.IsNegative() {
		return fmt.Errorf("booking.seat_price must not be negative, got %s", price)
	}
	return nil
}
