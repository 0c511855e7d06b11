package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"

	"studybuddy/internal/scheduler"
)

type PlanConfig struct {
	scheduler.Rules     `mapstructure:",squash"`
	DefaultTotalMinutes int `mapstructure:"default_total_minutes"`
}

type Config struct {
	DatabasePath   string        `mapstructure:"database_path"`
	SocketPath     string        `mapstructure:"socket_path"`
	SnapshotPath   string        `mapstructure:"snapshot_path"`
	RestoreOnStart bool          `mapstructure:"restore_on_start"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	NotifyCommand  string        `mapstructure:"notify_command"` // e.g. "notify-send", empty disables
	Plan           PlanConfig    `mapstructure:"plan"`
}

func setDefaults(v *viper.Viper) {
	rules := scheduler.DefaultRules()
	v.SetDefault("database_path", "studybuddy.db")
	v.SetDefault("socket_path", "/tmp/studybuddy.sock")
	v.SetDefault("snapshot_path", "studybuddy-state.yaml")
	v.SetDefault("restore_on_start", true)
	v.SetDefault("tick_interval", "1s")
	v.SetDefault("notify_command", "")
	v.SetDefault("plan.work_minutes", rules.WorkMinutes)
	v.SetDefault("plan.short_break_minutes", rules.ShortBreakMinutes)
	v.SetDefault("plan.long_break_minutes", rules.LongBreakMinutes)
	v.SetDefault("plan.long_break_every", rules.LongBreakEvery)
	v.SetDefault("plan.long_break_threshold_minutes", rules.LongBreakThresholdMinutes)
	v.SetDefault("plan.default_total_minutes", 120)
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/studybuddy")
		v.AddConfigPath("/etc/studybuddy/")
	}

	v.SetEnvPrefix("STUDYBUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Println("Config file not found, using defaults.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	log.Printf("Configuration loaded: %+v", cfg)
	return &cfg, nil
}

func (c *Config) normalize() {
	if c.TickInterval <= 0 {
		log.Printf("Warning: tick_interval %s invalid, setting to 1s", c.TickInterval)
		c.TickInterval = time.Second
	}
	if err := c.Plan.Rules.Validate(); err != nil {
		log.Printf("Warning: invalid plan rules (%v), using defaults", err)
		c.Plan.Rules = scheduler.DefaultRules()
	}
	if c.Plan.DefaultTotalMinutes < 1 {
		log.Printf("Warning: plan.default_total_minutes %d too low, setting to 120", c.Plan.DefaultTotalMinutes)
		c.Plan.DefaultTotalMinutes = 120
	}
}

// SchedulerConfig returns the runtime options for the session scheduler.
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		TickInterval: c.TickInterval,
		Rules:        c.Plan.Rules,
	}
}
