package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DoyleJ11/jankenpon-server/internal/engine"
	"github.com/DoyleJ11/jankenpon-server/internal/hub"
	"github.com/DoyleJ11/jankenpon-server/internal/session"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	ListenAddr string
	// HTTPAddr serves health, room listing and the websocket gateway.
	// Empty disables it.
	HTTPAddr string
	LogLevel string
	LogDev   bool

	RoundSeconds int
	RoundTick    time.Duration
	OutboxSize   int
	Teardown     hub.Teardown

	IdleTimeout  time.Duration
	WriteTimeout time.Duration
	WSOrigins    []string
}

// Load reads .env if there is one, then the environment. Every invalid value
// is reported, not just the first.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var env parser
	cfg := Config{
		ListenAddr:   getenv("LISTEN_ADDR", ":8094"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8095"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogDev:       env.getBool("LOG_DEV", false),
		RoundSeconds: env.getInt("ROUND_SECONDS", 10),
		RoundTick:    env.getDuration("ROUND_TICK", time.Second),
		OutboxSize:   env.getInt("OUTBOX_SIZE", 64),
		IdleTimeout:  env.getDuration("IDLE_TIMEOUT", 0),
		WriteTimeout: env.getDuration("WRITE_TIMEOUT", 5*time.Second),
		WSOrigins:    splitList(os.Getenv("WS_ORIGINS")),
	}

	teardown, err := hub.ParseTeardown(getenv("TEARDOWN_POLICY", string(hub.TeardownMember)))
	env.err = multierr.Append(env.err, err)
	cfg.Teardown = teardown

	if cfg.RoundSeconds < 0 {
		env.err = multierr.Append(env.err, fmt.Errorf("ROUND_SECONDS must not be negative, got %d", cfg.RoundSeconds))
	}
	if cfg.RoundTick <= 0 {
		env.err = multierr.Append(env.err, fmt.Errorf("ROUND_TICK must be positive, got %s", cfg.RoundTick))
	}
	if cfg.OutboxSize <= 0 {
		env.err = multierr.Append(env.err, fmt.Errorf("OUTBOX_SIZE must be positive, got %d", cfg.OutboxSize))
	}

	if env.err != nil {
		return Config{}, env.err
	}
	return cfg, nil
}

func (c Config) Hub() hub.Config {
	return hub.Config{
		Round:      engine.Config{Seconds: c.RoundSeconds, Tick: c.RoundTick},
		OutboxSize: c.OutboxSize,
		Teardown:   c.Teardown,
	}
}

func (c Config) Session() session.Config {
	return session.Config{IdleTimeout: c.IdleTimeout, WriteTimeout: c.WriteTimeout}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parser collects conversion errors so Load can report them together.
type parser struct {
	err error
}

func (p *parser) getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return i
}

func (p *parser) getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func (p *parser) getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
