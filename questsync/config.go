package questsync

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/lovequest/questsync/internal/domain/ledger"
	"github.com/lovequest/questsync/internal/domain/partnersync"
	"github.com/lovequest/questsync/internal/domain/quests"
	"github.com/lovequest/questsync/internal/gateways/backend"
	"github.com/lovequest/questsync/internal/gateways/database"
)

const envPrefix = "QUESTSYNC_"

// LoadConfig reads the TOML file at path, fills defaults and applies
// QUESTSYNC_* environment overrides. An empty path skips the file.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config: %w", err)
		}
		defer file.Close()

		if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig is the configuration used when no file is given.
func DefaultConfig() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

type Config struct {
	Log       LogConfig         `toml:"log"`
	DB        database.DBConfig `toml:"db"`
	Backend   BackendConfig     `toml:"backend"`
	Sync      SyncConfig        `toml:"sync"`
	Quests    QuestsConfig      `toml:"quests"`
	Ledger    LedgerConfig      `toml:"ledger"`
	Content   ContentConfig     `toml:"content"`
	Rollover  RolloverConfig    `toml:"rollover"`
	DevServer DevServerConfig   `toml:"devserver"`
}

type LogConfig struct {
	Level  slog.Level `toml:"level"`
	Format string     `toml:"format"`
	Color  *bool      `toml:"color"`
}

type BackendConfig struct {
	URL string `toml:"url"`
	// Token is used as is. When empty the token is read from the OS keyring.
	Token   string   `toml:"token"`
	Timeout Duration `toml:"timeout"`
}

type SyncConfig struct {
	PollInterval Duration `toml:"poll_interval"`
	TickTimeout  Duration `toml:"tick_timeout"`
}

type QuestsConfig struct {
	AwardAmount int64 `toml:"award_amount"`
	// Timezone names the IANA location calendar days are computed in.
	Timezone string `toml:"timezone"`
}

type LedgerConfig struct {
	ProvisionalTTL Duration `toml:"provisional_ttl"`
	PokeAmount     int64    `toml:"poke_amount"`
	HistoryLimit   int      `toml:"history_limit"`
}

type ContentConfig struct {
	CacheSize int      `toml:"cache_size"`
	CacheTTL  Duration `toml:"cache_ttl"`
}

type RolloverConfig struct {
	Disabled bool   `toml:"disabled"`
	Schedule string `toml:"schedule"`
}

type DevServerConfig struct {
	Addr  string `toml:"addr"`
	Token string `toml:"token"`
}

// Duration decodes TOML strings such as "10s" or "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

const (
	DefaultPokeAmount       int64 = 5
	DefaultHistoryLimit           = 50
	DefaultContentCacheSize       = 128
	DefaultContentCacheTTL        = 6 * time.Hour
	DefaultRolloverSchedule       = "0 0 * * *"
	DefaultDevServerAddr          = "127.0.0.1:8787"
)

func (c *Config) applyDefaults() {
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = database.DriverSQLite
	}
	if c.Backend.Timeout.Duration == 0 {
		c.Backend.Timeout.Duration = backend.DefaultTimeout
	}
	if c.Sync.PollInterval.Duration == 0 {
		c.Sync.PollInterval.Duration = partnersync.DefaultInterval
	}
	if c.Sync.TickTimeout.Duration == 0 {
		c.Sync.TickTimeout.Duration = min(partnersync.DefaultTickTimeout, c.Sync.PollInterval.Duration)
	}
	if c.Quests.AwardAmount == 0 {
		c.Quests.AwardAmount = quests.DefaultAwardAmount
	}
	if c.Ledger.ProvisionalTTL.Duration == 0 {
		c.Ledger.ProvisionalTTL.Duration = ledger.DefaultProvisionalTTL
	}
	if c.Ledger.PokeAmount == 0 {
		c.Ledger.PokeAmount = DefaultPokeAmount
	}
	if c.Ledger.HistoryLimit == 0 {
		c.Ledger.HistoryLimit = DefaultHistoryLimit
	}
	if c.Content.CacheSize == 0 {
		c.Content.CacheSize = DefaultContentCacheSize
	}
	if c.Content.CacheTTL.Duration == 0 {
		c.Content.CacheTTL.Duration = DefaultContentCacheTTL
	}
	if c.Rollover.Schedule == "" {
		c.Rollover.Schedule = DefaultRolloverSchedule
	}
	if c.DevServer.Addr == "" {
		c.DevServer.Addr = DefaultDevServerAddr
	}
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(envPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
		}
		*dst = d
		return nil
	}
	num := func(name string, dst *int64) error {
		v, ok := lookup(envPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("BACKEND_URL", &c.Backend.URL)
	str("BACKEND_TOKEN", &c.Backend.Token)
	str("DB_DRIVER", &c.DB.Driver)
	str("DB_PATH", &c.DB.Path)
	str("DB_HOST", &c.DB.Host)
	str("DB_PASSWORD", &c.DB.Password)
	str("TIMEZONE", &c.Quests.Timezone)
	str("DEVSERVER_ADDR", &c.DevServer.Addr)
	str("DEVSERVER_TOKEN", &c.DevServer.Token)

	if v, ok := lookup(envPrefix + "LOG_LEVEL"); ok && v != "" {
		if err := c.Log.Level.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid %sLOG_LEVEL: %w", envPrefix, err)
		}
	}

	return errors.Join(
		dur("POLL_INTERVAL", &c.Sync.PollInterval.Duration),
		num("AWARD_AMOUNT", &c.Quests.AwardAmount),
	)
}

func (c *Config) Validate() error {
	var errs []error
	if p := c.Sync.PollInterval.Duration; p < partnersync.MinInterval || p > partnersync.MaxInterval {
		errs = append(errs, fmt.Errorf("sync.poll_interval %s out of range [%s, %s]", p, partnersync.MinInterval, partnersync.MaxInterval))
	}
	if c.Sync.TickTimeout.Duration > c.Sync.PollInterval.Duration {
		errs = append(errs, fmt.Errorf("sync.tick_timeout %s exceeds poll interval", c.Sync.TickTimeout.Duration))
	}
	if c.Quests.AwardAmount <= 0 {
		errs = append(errs, errors.New("quests.award_amount must be positive"))
	}
	if c.Ledger.PokeAmount <= 0 {
		errs = append(errs, errors.New("ledger.poke_amount must be positive"))
	}
	if c.Content.CacheSize < 0 {
		errs = append(errs, errors.New("content.cache_size must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := cron.ParseStandard(c.Rollover.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("rollover.schedule: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Location resolves quests.timezone, defaulting to the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Quests.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Quests.Timezone)
	if err != nil {
		return nil, fmt.Errorf("quests.timezone: %w", err)
	}
	return loc, nil
}

// ColorEnabled defaults to true.
func (c LogConfig) ColorEnabled() bool {
	return c.Color == nil || *c.Color
}
