package config

import "time"

// Config contains all application settings
type Config struct {
	BindPort int    `mapstructure:"PORT" yaml:"port"`
	BindHost string `mapstructure:"HOST" yaml:"host"`

	// Vendor API
	DeveloperToken string `mapstructure:"LOVENSE_DEVELOPER_TOKEN" yaml:"developer_token"`
	CallbackURL    string `mapstructure:"LOVENSE_CALLBACK_URL" yaml:"callback_url"`
	APIBaseURL     string `mapstructure:"LOVENSE_API_URL" yaml:"api_url"`

	// Routing
	RouterMode    string        `mapstructure:"ROUTER_MODE" yaml:"router_mode"`
	GameModeIP    string        `mapstructure:"GAME_MODE_IP" yaml:"game_mode_ip"`
	GameModePort  int           `mapstructure:"GAME_MODE_PORT" yaml:"game_mode_port"`
	DirectTimeout time.Duration `mapstructure:"DIRECT_TIMEOUT" yaml:"direct_timeout"`
	RelayTimeout  time.Duration `mapstructure:"RELAY_TIMEOUT" yaml:"relay_timeout"`
	DirectStrict  bool          `mapstructure:"DIRECT_STRICT" yaml:"direct_strict"`
	TokenScope    string        `mapstructure:"TOKEN_SCOPE" yaml:"token_scope"`

	// Sessions
	DefaultUID  string        `mapstructure:"DEFAULT_UID" yaml:"default_uid"`
	SessionTTL  time.Duration `mapstructure:"SESSION_TTL" yaml:"session_ttl"`
	Storage     string        `mapstructure:"STORAGE" yaml:"storage"`
	DatabaseURL string        `mapstructure:"DATABASE_URL" yaml:"database_url"`

	NATSServerURL string `mapstructure:"NATS_URL" yaml:"nats_url"`

	LogLevel  string `mapstructure:"LOG_LEVEL" yaml:"log_level"`
	LogFormat string `mapstructure:"LOG_FORMAT" yaml:"log_format"`

	// Version
	BuildVersion string `yaml:"-"`
	BuildHash    string `yaml:"-"`
	BuildTime    string `yaml:"-"`
}

// MaskedDeveloperToken returns the developer token with everything but the
// first 8 and the last 4 characters hidden.
func (c *Config) MaskedDeveloperToken() string {
	t := c.DeveloperToken
	if len(t) <= 12 {
		return "****"
	}
	return t[:8] + "..." + t[len(t)-4:]
}
