package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daily.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
storage:
  path: ./state.db
  busy_timeout: "5s"
daily_caps:
  invite: 25
  like: 50
  comment: 10
schedule_blocks:
  - start: "09:00"
    end: "11:30"
  - start: "19:00"
    end: "21:00"
delay_seconds:
  min: 40
  max: 180
poll_interval: "1s"
mock: true
comment:
  model: gpt-4.1-nano
`

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	caps := cfg.Caps()
	if caps["invite"] != 25 || caps["like"] != 50 || caps["comment"] != 10 {
		t.Fatalf("unexpected caps: %+v", caps)
	}
	ws, err := cfg.Windows()
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}
	if len(ws) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(ws))
	}
	if !cfg.Enforce() {
		t.Fatalf("enforce_schedule should default to true")
	}
	if !cfg.ModerationEnabled() {
		t.Fatalf("comment moderation should default to true")
	}
	min, max := cfg.Pacing()
	if min.Seconds() != 40 || max.Seconds() != 180 {
		t.Fatalf("unexpected pacing bounds: %v..%v", min, max)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unknown key", validYAML + "\nsurprise: 1\n"},
		{"unknown action type", `
daily_caps:
  invites: 3
delay_seconds: {min: 1, max: 2}
mock: true
`},
		{"negative cap", `
daily_caps:
  invite: -1
delay_seconds: {min: 1, max: 2}
mock: true
`},
		{"inverted delay bounds", `
daily_caps:
  invite: 1
delay_seconds: {min: 10, max: 2}
mock: true
`},
		{"midnight-crossing window", `
daily_caps:
  invite: 1
schedule_blocks:
  - {start: "22:00", end: "02:00"}
delay_seconds: {min: 1, max: 2}
mock: true
`},
		{"missing executor command", `
daily_caps:
  invite: 1
delay_seconds: {min: 1, max: 2}
`},
		{"empty caps", `
delay_seconds: {min: 1, max: 2}
mock: true
`},
	}
	for _, c := range cases {
		if _, err := Load(writeConfig(t, c.yaml)); err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
}
