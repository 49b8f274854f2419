package config

// Config is the full daemon configuration. It is loaded once at startup
// and immutable for the process lifetime; components receive the pieces
// they need at construction time and never read ambient state.
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Storage StorageConfig `json:"storage"`

	// DailyCaps maps an action type (invite/like/comment) to its daily
	// ceiling. A cap of 0 disables the type.
	DailyCaps map[string]int `json:"daily_caps"`

	// ScheduleBlocks are the active time-of-day windows ("HH:MM" pairs).
	ScheduleBlocks []ScheduleBlock `json:"schedule_blocks"`

	// EnforceSchedule gates candidate selection on the schedule blocks.
	// Defaults to true; nil means unset.
	EnforceSchedule *bool `json:"enforce_schedule,omitempty"`

	// DelaySeconds bounds the randomized pacing delay between actions.
	DelaySeconds DelayBounds `json:"delay_seconds"`

	// PollInterval is the idle re-check delay when nothing is eligible.
	// Go duration string; default "1s".
	PollInterval string `json:"poll_interval,omitempty"`

	// FastTest bypasses all cap checks (rapid iteration / testing).
	FastTest bool `json:"fast_test,omitempty"`

	// Mock replaces every external effect with an always-succeeds stub.
	Mock bool `json:"mock,omitempty"`

	Executor  ExecutorConfig  `json:"executor"`
	Comment   CommentConfig   `json:"comment"`
	Report    ReportConfig    `json:"report,omitempty"`
	Dashboard DashboardConfig `json:"dashboard,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type StorageConfig struct {
	// Path is the sqlite database file for the action log.
	Path string `json:"path"`
	// BusyTimeout is a Go duration string; 0 means the sqlite default.
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type ScheduleBlock struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type DelayBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ExecutorConfig describes the external browser tool server and how the
// dispatcher talks to it.
type ExecutorConfig struct {
	// Command spawns the tool server over stdio, e.g.
	// ["fastmcp", "run", "mcp_server.py"].
	Command []string `json:"command"`
	// ProfileURL is the target profile for invite actions.
	ProfileURL string `json:"profile_url,omitempty"`
	// FeedURL is the feed page used by like/comment actions.
	FeedURL string `json:"feed_url,omitempty"`
	// CallTimeout is a Go duration string per tool call; default "2m".
	CallTimeout string `json:"call_timeout,omitempty"`
	// RatePerMin caps platform calls per minute across all action types.
	// 0 disables the floor.
	RatePerMin int `json:"rate_per_min,omitempty"`
}

type CommentConfig struct {
	// Model is the chat model used to draft replies.
	Model string `json:"model,omitempty"`
	// Moderation gates both the source post and the generated reply.
	// Defaults to true; nil means unset.
	Moderation *bool `json:"moderation,omitempty"`
}

type ReportConfig struct {
	Enabled bool `json:"enabled"`
	// Cron is a 5-field cron spec for the daily summary; default "0 21 * * *".
	Cron string `json:"cron,omitempty"`
}

type DashboardConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default "127.0.0.1:8090"
}
