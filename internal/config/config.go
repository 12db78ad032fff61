package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Site and weather collaborators.
	Location       string
	Latitude       float64
	Longitude      float64
	WeatherAPIKey  string
	SolarAPIKey    string
	WeatherTimeout time.Duration
	SolarCacheSize int

	// Plant roster and demand model.
	CatalogPath     string
	PlantRoster     []string
	DefaultSoilType domain.SoilType
	KcStrategy      string

	// Supply line.
	Line           domain.Hydraulics
	DepthThreshold float64
	PlantWorkers   int

	// Daily trigger.
	CycleTime       TimeOfDay
	IrrigationStart TimeOfDay
	Timezone        *time.Location

	// Persistence.
	DBPath             string
	StoreTimeout       time.Duration
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaScheduleTopic string
	InfluxURL          string
	InfluxToken        string
	InfluxOrg          string
	InfluxBucket       string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// TimeOfDay is a local wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" in 24-hour notation.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time of day %q: expected HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the time of day on the calendar date of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	p := &parser{}
	cfg := &Config{
		Location:       sharedcfg.EnvOrDefault("LOCATION", "New Orleans"),
		Latitude:       p.float("LATITUDE", "29.951065"),
		Longitude:      p.float("LONGITUDE", "-90.071533"),
		WeatherAPIKey:  os.Getenv("WEATHER_API_KEY"),
		SolarAPIKey:    os.Getenv("SOLAR_API_KEY"),
		WeatherTimeout: p.duration("WEATHER_TIMEOUT", "10s"),
		SolarCacheSize: p.positiveInt("SOLAR_CACHE_SIZE", "64"),

		CatalogPath: os.Getenv("CATALOG_PATH"),
		PlantRoster: parseList(os.Getenv("PLANT_ROSTER")),
		KcStrategy:  sharedcfg.EnvOrDefault("KC_STRATEGY", "mid"),

		Line: domain.Hydraulics{
			ZoneCount: p.positiveInt("ZONE_COUNT", "9"),
			FlowRate:  p.positiveFloat("FLOW_RATE", "0.11"),
			ZoneArea:  p.positiveFloat("ZONE_AREA", "100"),
		},
		DepthThreshold: p.float("DEPTH_THRESHOLD", "0.5"),
		PlantWorkers:   p.positiveInt("PLANT_WORKERS", "4"),

		CycleTime:       p.timeOfDay("CYCLE_TIME", "04:00"),
		IrrigationStart: p.timeOfDay("IRRIGATION_START", "05:00"),
		Timezone:        p.location("TIMEZONE", "Local"),

		DBPath:             sharedcfg.EnvOrDefault("DB_PATH", "irrigation.db"),
		StoreTimeout:       p.duration("STORE_TIMEOUT", "5s"),
		KafkaEnabled:       sharedcfg.EnvOrDefault("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaScheduleTopic: sharedcfg.EnvOrDefault("KAFKA_SCHEDULE_TOPIC", "irrigation-schedules"),
		InfluxURL:          os.Getenv("INFLUX_URL"),
		InfluxToken:        os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:          sharedcfg.EnvOrDefault("INFLUX_ORG", "irrigation"),
		InfluxBucket:       sharedcfg.EnvOrDefault("INFLUX_BUCKET", "irrigation"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}
	cfg.DefaultSoilType = p.soilType("DEFAULT_SOIL_TYPE", "clay")
	if p.err != nil {
		return nil, p.err
	}

	if cfg.DepthThreshold < 0 {
		return nil, errors.New("DEPTH_THRESHOLD must not be negative")
	}
	if _, err := domain.ParseKcStrategy(cfg.KcStrategy); err != nil {
		return nil, fmt.Errorf("invalid KC_STRATEGY: %w", err)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaScheduleTopic == "" {
		return nil, errors.New("KAFKA_SCHEDULE_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.InfluxURL != "" && cfg.InfluxToken == "" {
		return nil, errors.New("INFLUX_URL is set but INFLUX_TOKEN is not")
	}

	return cfg, nil
}

// RequireWeatherCredentials reports whether the weather and solar API keys
// needed to run a cycle are present.
func (c *Config) RequireWeatherCredentials() error {
	if c.WeatherAPIKey == "" {
		return errors.New("WEATHER_API_KEY is required")
	}
	if c.SolarAPIKey == "" {
		return errors.New("SOLAR_API_KEY is required")
	}
	return nil
}

// InfluxEnabled reports whether decisions are mirrored to InfluxDB.
func (c *Config) InfluxEnabled() bool {
	return c.InfluxURL != ""
}

// parser collects the first parse error so Load can build the struct in one
// expression.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, reason string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %s", key, value, reason)
	}
}

func (p *parser) float(key, def string) float64 {
	s := sharedcfg.EnvOrDefault(key, def)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(key, s, "not a number")
		return 0
	}
	return v
}

func (p *parser) positiveFloat(key, def string) float64 {
	v := p.float(key, def)
	if v <= 0 {
		p.fail(key, sharedcfg.EnvOrDefault(key, def), "must be positive")
	}
	return v
}

func (p *parser) positiveInt(key, def string) int {
	s := sharedcfg.EnvOrDefault(key, def)
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		p.fail(key, s, "must be a positive integer")
		return 0
	}
	return n
}

func (p *parser) duration(key, def string) time.Duration {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		p.fail(key, s, "must be a positive duration")
		return 0
	}
	return d
}

func (p *parser) timeOfDay(key, def string) TimeOfDay {
	s := sharedcfg.EnvOrDefault(key, def)
	t, err := ParseTimeOfDay(s)
	if err != nil {
		p.fail(key, s, "expected HH:MM")
	}
	return t
}

func (p *parser) location(key, def string) *time.Location {
	s := sharedcfg.EnvOrDefault(key, def)
	loc, err := time.LoadLocation(s)
	if err != nil {
		p.fail(key, s, "unknown time zone")
		return time.Local
	}
	return loc
}

func (p *parser) soilType(key, def string) domain.SoilType {
	s := sharedcfg.EnvOrDefault(key, def)
	st, err := domain.ParseSoilType(s)
	if err != nil {
		p.fail(key, s, "unknown soil type")
	}
	return st
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
