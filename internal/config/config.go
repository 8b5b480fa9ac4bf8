package config

import "time"

type Config struct {
	Sources      []string          `yaml:"sources" validate:"required,min=1,uniquebase,dive,required"`
	Destination  DestinationConfig `yaml:"destination"`
	Schedule     ScheduleConfig    `yaml:"schedule"`
	Retention    RetentionConfig   `yaml:"retention"`
	Copy         CopyConfig        `yaml:"copy"`
	Logging      LoggingConfig     `yaml:"logging"`
	ConfigReload ReloadConfig      `yaml:"configReload"`
	Metrics      MetricsConfig     `yaml:"metrics"`
}

type DestinationConfig struct {
	Root       string `yaml:"root" validate:"required"`
	KeepFailed bool   `yaml:"keepFailed"` // keep failed staging dirs as <name>.failed
}

type ScheduleConfig struct {
	Enabled      bool          `yaml:"enabled"`
	InitialDelay time.Duration `yaml:"initialDelay" validate:"gte=0"`
	Interval     time.Duration `yaml:"interval" validate:"gt=0"`
	StopTimeout  time.Duration `yaml:"stopTimeout" validate:"gte=0"`
}

type RetentionConfig struct {
	KeepLast int `yaml:"keepLast" validate:"gte=0"` // 0 disables pruning after runs
}

type CopyConfig struct {
	Workers int `yaml:"workers" validate:"gte=1"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	File   string `yaml:"file"`
}

type ReloadConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Method         string        `yaml:"method" validate:"omitempty,oneof=auto fsnotify poll"`
	PollInterval   time.Duration `yaml:"pollInterval" validate:"gte=0"`
	DebounceWindow time.Duration `yaml:"debounceWindow" validate:"gte=0"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"` // e.g. ":9109"; empty disables /metrics
}

// Default mirrors the layout the surrounding application has always used:
// data/ and bills/ protected into backup/, a day between automatic runs.
func Default() *Config {
	return &Config{
		Sources: []string{"data", "bills"},
		Destination: DestinationConfig{
			Root: "backup",
		},
		Schedule: ScheduleConfig{
			Interval:    24 * time.Hour,
			StopTimeout: 5 * time.Second,
		},
		Copy: CopyConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "logs/app.log",
		},
		ConfigReload: ReloadConfig{
			Method:         "auto",
			PollInterval:   5 * time.Second,
			DebounceWindow: 500 * time.Millisecond,
		},
	}
}
