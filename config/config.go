package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"neonx-web/models"
	"neonx-web/series"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      Server             `yaml:"server"`
	Database    Database           `yaml:"database"`
	Redis       Redis              `yaml:"redis"`
	Telegram    Telegram           `yaml:"telegram"`
	Feed        Feed               `yaml:"feed"`
	OHLCPeriods []string           `yaml:"ohlc_periods"`
	Timeframes  []models.Timeframe `yaml:"timeframes"`
	Token       Token              `yaml:"token"`
	Links       models.Links       `yaml:"links"`
	Countdown   Countdown          `yaml:"countdown"`
	Alerts      Alerts             `yaml:"alerts"`
	Proxy       string             `yaml:"proxy"`
}

type Server struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Redis is optional; an empty Addr selects the in-memory price cache.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Telegram is optional; an empty BotToken disables the bot. ChatID is the
// channel that receives the launch announcement.
type Telegram struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

type Feed struct {
	Symbol   string        `yaml:"symbol"`
	MinPrice float64       `yaml:"min_price"`
	MaxPrice float64       `yaml:"max_price"`
	Interval time.Duration `yaml:"interval"`
	Seed     int64         `yaml:"seed"`
}

type Token struct {
	Address string `yaml:"address"`
}

// Countdown takes either a fixed RFC3339 target or a duration from startup.
type Countdown struct {
	Target   string        `yaml:"target"`
	Duration time.Duration `yaml:"duration"`
}

type Alerts struct {
	CheckCron string `yaml:"check_cron"`
	FlushCron string `yaml:"flush_cron"`
}

// TargetFrom resolves the countdown target relative to start.
func (c Countdown) TargetFrom(start time.Time) (time.Time, error) {
	if c.Target != "" {
		t, err := time.Parse(time.RFC3339, c.Target)
		if err != nil {
			return time.Time{}, fmt.Errorf("countdown.target: %w", err)
		}
		return t, nil
	}
	return start.Add(c.Duration), nil
}

// PeriodInfo represents a parsed OHLC period
type PeriodInfo struct {
	Value    int    // Value in seconds
	Original string // Original string (e.g., "10s", "1m")
}

// ParsePeriod parses a period string like "10s", "1m" or "1h" and returns seconds
func ParsePeriod(periodStr string) (int, error) {
	if len(periodStr) < 2 {
		return 0, fmt.Errorf("invalid period format: %s", periodStr)
	}

	unit := periodStr[len(periodStr)-1:]
	valueStr := periodStr[:len(periodStr)-1]

	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid period value: %s", periodStr)
	}

	switch unit {
	case "s":
		return value, nil
	case "m":
		return value * 60, nil
	case "h":
		return value * 3600, nil
	default:
		return 0, fmt.Errorf("unsupported period unit: %s", unit)
	}
}

// GetPeriodInfo parses a period string and returns PeriodInfo
func GetPeriodInfo(periodStr string) (*PeriodInfo, error) {
	value, err := ParsePeriod(periodStr)
	if err != nil {
		return nil, err
	}

	return &PeriodInfo{
		Value:    value,
		Original: periodStr,
	}, nil
}

// PeriodSeconds parses every configured OHLC period.
func (c *Config) PeriodSeconds() ([]int, error) {
	periods := make([]int, 0, len(c.OHLCPeriods))
	for _, p := range c.OHLCPeriods {
		v, err := ParsePeriod(p)
		if err != nil {
			return nil, err
		}
		periods = append(periods, v)
	}
	return periods, nil
}

// Load reads an optional .env file and an optional YAML file, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("NEONX_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("NEONX_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NEONX_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("NEONX_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	} else if v := os.Getenv("BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("COIN_ADDRESS"); v != "" {
		c.Token.Address = v
	}
	if v := os.Getenv("COUNTDOWN_TARGET"); v != "" {
		c.Countdown.Target = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite3" {
		c.Database.DSN = "neonx.db"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 5 * time.Minute
	}
	if c.Feed.Symbol == "" {
		c.Feed.Symbol = "NEONX"
	}
	if c.Feed.MinPrice == 0 && c.Feed.MaxPrice == 0 {
		c.Feed.MinPrice = 0.00011
		c.Feed.MaxPrice = 0.00013
	}
	if c.Feed.Interval == 0 {
		c.Feed.Interval = 2 * time.Second
	}
	if c.Feed.Seed == 0 {
		c.Feed.Seed = time.Now().UnixNano()
	}
	if len(c.OHLCPeriods) == 0 {
		c.OHLCPeriods = []string{"1m", "5m", "1h"}
	}
	if len(c.Timeframes) == 0 {
		c.Timeframes = append([]models.Timeframe(nil), series.Presets...)
	}
	if c.Countdown.Target == "" && c.Countdown.Duration == 0 {
		c.Countdown.Duration = 30 * 24 * time.Hour
	}
	if c.Links.Website == "" {
		c.Links.Website = "https://neonxcoin.xyz"
	}
	if c.Links.TelegramGroup == "" {
		c.Links.TelegramGroup = "https://t.me/neonxcoin_sol"
	}
	if c.Links.PumpFun == "" && c.Token.Address != "" {
		c.Links.PumpFun = "https://pump.fun/coin/" + c.Token.Address
	}
	if c.Alerts.CheckCron == "" {
		c.Alerts.CheckCron = "*/30 * * * * *"
	}
	if c.Alerts.FlushCron == "" {
		c.Alerts.FlushCron = "*/10 * * * * *"
	}
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Driver != "sqlite3" && c.Database.Driver != "postgres" {
		return fmt.Errorf("database.driver must be sqlite3 or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Feed.MinPrice <= 0 || c.Feed.MinPrice >= c.Feed.MaxPrice {
		return fmt.Errorf("feed.min_price must be positive and below feed.max_price")
	}
	if c.Feed.Interval <= 0 {
		return fmt.Errorf("feed.interval must be positive")
	}
	if _, err := c.PeriodSeconds(); err != nil {
		return fmt.Errorf("ohlc_periods: %w", err)
	}
	if _, err := series.NewTimeframes(c.Timeframes); err != nil {
		return fmt.Errorf("timeframes: %w", err)
	}
	if _, err := c.Countdown.TargetFrom(time.Now()); err != nil {
		return err
	}
	links := map[string]string{
		"links.website":        c.Links.Website,
		"links.pump_fun":       c.Links.PumpFun,
		"links.mexc":           c.Links.MEXC,
		"links.telegram_group": c.Links.TelegramGroup,
		"links.twitter":        c.Links.Twitter,
	}
	for name, link := range links {
		if link == "" {
			continue
		}
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an http(s) URL, got %q", name, link)
		}
	}
	return nil
}
