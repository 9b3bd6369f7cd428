package config

// Config holds bindery configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Library  string      `mapstructure:"library" yaml:"library"`
	Acquire  AcquireCfg  `mapstructure:"acquire" yaml:"acquire"`
	Navigate NavigateCfg `mapstructure:"navigate" yaml:"navigate"`
	Image    ImageCfg    `mapstructure:"image" yaml:"image"`
	Browser  BrowserCfg  `mapstructure:"browser" yaml:"browser"`
}

// AcquireCfg configures the image acquisition worker pool.
//
// Attempts and TransportRetries are two independent retry budgets: the
// transport retries transient HTTP statuses inside a single fetch, the
// per-URL loop retries the whole fetch-and-normalize cycle. They are
// deliberately not unified; see the acquire package.
type AcquireCfg struct {
	Workers          int     `mapstructure:"workers" yaml:"workers"`                     // Worker cap, also bounded by GOMAXPROCS
	Attempts         int     `mapstructure:"attempts" yaml:"attempts"`                   // Per-URL fetch+normalize attempts
	BackoffSeconds   float64 `mapstructure:"backoff_seconds" yaml:"backoff_seconds"`     // Base delay, doubles per attempt
	TransportRetries int     `mapstructure:"transport_retries" yaml:"transport_retries"` // HTTP-status retry budget inside one fetch
	TimeoutSeconds   int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`     // Per-request timeout
	UserAgent        string  `mapstructure:"user_agent" yaml:"user_agent"`
}

// NavigateCfg configures chapter navigation against the rendering engine.
type NavigateCfg struct {
	Attempts       int `mapstructure:"attempts" yaml:"attempts"`               // Navigation attempts per chapter
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // Per-navigation timeout
}

// ImageCfg configures image normalization.
type ImageCfg struct {
	PreferredWidth int `mapstructure:"preferred_width" yaml:"preferred_width"` // Target page width in pixels
	JPEGQuality    int `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
}

// BrowserCfg configures the headless browser session.
type BrowserCfg struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Acquire: AcquireCfg{
			Workers:          20,
			Attempts:         3,
			BackoffSeconds:   1,
			TransportRetries: 5,
			TimeoutSeconds:   20,
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		Navigate: NavigateCfg{
			Attempts:       3,
			TimeoutSeconds: 15,
		},
		Image: ImageCfg{
			PreferredWidth: 1600,
			JPEGQuality:    90,
		},
		Browser: BrowserCfg{
			Headless: true,
		},
	}
}
