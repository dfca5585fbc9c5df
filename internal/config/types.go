package config

// Config is the full homehub configuration.
//
// The file may be YAML or JSON; YAML is coerced to JSON and decoded
// strictly, so unknown keys are rejected in both formats.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Logging  LoggingConfig  `json:"logging"`
	Database DatabaseConfig `json:"database"`
	Push     PushConfig     `json:"push"`

	// Scheduler controls the in-process periodic job runner.
	Scheduler SchedulerConfig `json:"scheduler"`

	Auth    AuthConfig     `json:"auth,omitempty"`
	Scrape  ScrapeConfig   `json:"scrape,omitempty"`
	Weather *WeatherConfig `json:"weather,omitempty"`
}

type ServerConfig struct {
	Addr string `json:"addr"` // default ":8080"

	// StaticDir is where uploaded images land; served under /static/.
	StaticDir string `json:"static_dir,omitempty"`

	// Server timeouts (Go duration strings).
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level"`
	Console bool          `json:"console"`
	File    LogFileConfig `json:"file,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type DatabaseConfig struct {
	// Path is the sqlite database file. ":memory:" is accepted for tests.
	Path string `json:"path"`

	// BusyTimeout is a Go duration string (sqlite busy_timeout pragma).
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// PushConfig controls the outbound push-notification sender (Bark-style).
type PushConfig struct {
	URL        string `json:"url"`
	RatePerSec int    `json:"rate_per_sec,omitempty"` // default 5
	Timeout    string `json:"timeout,omitempty"`      // default "10s"
}

type SchedulerConfig struct {
	// Timezone is an IANA TZ, e.g. "Asia/Shanghai". Empty means local.
	Timezone string `json:"timezone,omitempty"`

	// MenuPushAt is the fixed daily menu push time as HH:MM.
	// Empty disables the built-in daily registration.
	MenuPushAt string `json:"menu_push_at,omitempty"`
}

type AuthConfig struct {
	// TokenTTL is a Go duration string; default "1h".
	TokenTTL string `json:"token_ttl,omitempty"`

	// QRLoginTTL bounds a pending QR-code login session; default "5m".
	QRLoginTTL string `json:"qr_login_ttl,omitempty"`

	// WechatAppID feeds the QR login URL builder.
	WechatAppID string `json:"wechat_app_id,omitempty"`

	// WechatRedirect is the OAuth callback URL encoded into the QR login URL.
	WechatRedirect string `json:"wechat_redirect,omitempty"`
}

type ScrapeConfig struct {
	// ExploreURL is a printf pattern with one %d for the page number.
	ExploreURL string `json:"explore_url,omitempty"`

	// BaseURL prefixes relative recipe links found in the page.
	BaseURL string `json:"base_url,omitempty"`

	Timeout string `json:"timeout,omitempty"` // default "15s"
}

type WeatherConfig struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	City string `json:"city"`
}
