package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"linkbot/internal/action"
	"linkbot/internal/schedule"
)

// Load reads, strictly decodes, and validates the config file.
// Any problem here is fatal at startup; the scheduler never runs on a
// partially valid config.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, errors.New("invalid config: trailing data")
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.DailyCaps) == 0 {
		return errors.New("daily_caps: at least one action type is required")
	}
	for name, cap := range c.DailyCaps {
		if !action.Type(name).Valid() {
			return fmt.Errorf("daily_caps: unknown action type %q", name)
		}
		if cap < 0 {
			return fmt.Errorf("daily_caps.%s: cap must be >= 0", name)
		}
	}
	if _, err := c.Windows(); err != nil {
		return err
	}
	if c.DelaySeconds.Min < 0 || c.DelaySeconds.Max < 0 {
		return errors.New("delay_seconds: bounds must be >= 0")
	}
	if c.DelaySeconds.Min > c.DelaySeconds.Max {
		return fmt.Errorf("delay_seconds: min (%d) exceeds max (%d)", c.DelaySeconds.Min, c.DelaySeconds.Max)
	}
	if _, err := ParseDurationField("poll_interval", c.PollInterval); err != nil {
		return err
	}
	if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("executor.call_timeout", c.Executor.CallTimeout); err != nil {
		return err
	}
	if c.Executor.RatePerMin < 0 {
		return errors.New("executor.rate_per_min: must be >= 0")
	}
	if !c.Mock && len(c.Executor.Command) == 0 {
		return errors.New("executor.command: required unless mock mode is enabled")
	}
	return nil
}

// Caps returns the cap table keyed by action type.
func (c *Config) Caps() map[action.Type]int {
	caps := make(map[action.Type]int, len(c.DailyCaps))
	for name, cap := range c.DailyCaps {
		caps[action.Type(name)] = cap
	}
	return caps
}

// Windows parses the configured schedule blocks.
func (c *Config) Windows() ([]schedule.Window, error) {
	ws := make([]schedule.Window, 0, len(c.ScheduleBlocks))
	for i, b := range c.ScheduleBlocks {
		w, err := schedule.ParseWindow(b.Start, b.End)
		if err != nil {
			return nil, fmt.Errorf("schedule_blocks[%d]: %w", i, err)
		}
		ws = append(ws, w)
	}
	return ws, nil
}

// Enforce reports whether the schedule gate applies (default true).
func (c *Config) Enforce() bool {
	if c.EnforceSchedule == nil {
		return true
	}
	return *c.EnforceSchedule
}

// ModerationEnabled reports whether comment moderation applies (default true).
func (c *Config) ModerationEnabled() bool {
	if c.Comment.Moderation == nil {
		return true
	}
	return *c.Comment.Moderation
}

// Pacing returns the delay bounds as durations.
func (c *Config) Pacing() (min, max time.Duration) {
	return time.Duration(c.DelaySeconds.Min) * time.Second,
		time.Duration(c.DelaySeconds.Max) * time.Second
}

// Poll returns the idle poll interval (default 1s).
func (c *Config) Poll() time.Duration {
	d, _ := ParseDurationOrDefault("poll_interval", c.PollInterval, time.Second)
	return d
}
