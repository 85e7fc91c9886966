package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for both tools
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Content ContentConfig `mapstructure:"content"`
	Email   EmailConfig   `mapstructure:"email"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Overlay OverlayConfig `mapstructure:"overlay"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ContentConfig locates the static data the daily email is assembled from
type ContentConfig struct {
	MessagesFile   string `mapstructure:"messages_file"`
	ActivitiesFile string `mapstructure:"activities_file"`
	ResourcesFile  string `mapstructure:"resources_file"`
	BackgroundsDir string `mapstructure:"backgrounds_dir"`
	LogoFile       string `mapstructure:"logo_file"`
	// BackgroundBaseURL is the public root the background images are served from
	BackgroundBaseURL string `mapstructure:"background_base_url"`
	ActivityCount     int    `mapstructure:"activity_count"`
}

// EmailConfig holds rendering and provider configuration
type EmailConfig struct {
	// Provider is the delivery backend: "smtp" or "gmail"
	Provider      string `mapstructure:"provider"`
	SenderName    string `mapstructure:"sender_name"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	// CIDDomain is the domain label of generated content-IDs
	CIDDomain string `mapstructure:"cid_domain"`
	// ResourceQR embeds a QR code of the featured resource link
	ResourceQR  bool             `mapstructure:"resource_qr"`
	PreviewPath string           `mapstructure:"preview_path"`
	Gmail       GmailEmailConfig `mapstructure:"gmail"`
}

// GmailEmailConfig holds Gmail API configuration
type GmailEmailConfig struct {
	// CredentialsJSON is the service account credentials JSON content
	CredentialsJSON string `mapstructure:"credentials_json"`
	// ClientID for OAuth2 token-based auth (alternative to service account)
	ClientID string `mapstructure:"client_id"`
	// ClientSecret for OAuth2 token-based auth
	ClientSecret string `mapstructure:"client_secret"`
	// RefreshToken for OAuth2 token-based auth
	RefreshToken string `mapstructure:"refresh_token"`
}

// SMTPConfig holds the relay credentials. Their env names are fixed because
// the scheduler running the job already provides them.
type SMTPConfig struct {
	User      string `mapstructure:"user"`
	Recipient string `mapstructure:"recipient"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
}

// RedisConfig holds the optional send guard store. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// Enabled reports whether a redis address was configured
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// OverlayConfig holds the image overlay batch settings
type OverlayConfig struct {
	InputDir    string  `mapstructure:"input_dir"`
	OutputDir   string  `mapstructure:"output_dir"`
	Color       string  `mapstructure:"color"`
	Opacity     float64 `mapstructure:"opacity"`
	JPEGQuality int     `mapstructure:"jpeg_quality"`
}

// envBindings maps config keys to their externally fixed variable names
var envBindings = map[string]string{
	"smtp.user":      "EMAIL_USER",
	"smtp.recipient": "RECIPIENT_EMAIL",
	"smtp.host":      "EMAIL_HOST",
	"smtp.port":      "EMAIL_PORT",
	"smtp.password":  "EMAIL_PASSWORD",
}

// Load reads configuration from an optional file, a .env file and the
// environment. An empty configFile searches the default locations.
func Load(configFile string) (*Config, error) {
	// A missing .env is the normal case for scheduled runs
	_ = godotenv.Load()

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/dailyemail")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("DAILYEMAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Content defaults
	v.SetDefault("content.messages_file", "data/messages_of_support.txt")
	v.SetDefault("content.activities_file", "data/selfcare_activities.txt")
	v.SetDefault("content.resources_file", "data/ymhc_resources.json")
	v.SetDefault("content.backgrounds_dir", "data/backgrounds")
	v.SetDefault("content.logo_file", "data/img/logo-transparent.png")
	v.SetDefault("content.background_base_url",
		"https://raw.githubusercontent.com/YMHC-Charitable-Foundation/selfcare-message-emails/refs/heads/main")
	v.SetDefault("content.activity_count", 4)

	// Email defaults
	v.SetDefault("email.provider", "smtp")
	v.SetDefault("email.sender_name", "Youth Mental Health Canada")
	v.SetDefault("email.subject_prefix", "Daily Message of Support")
	v.SetDefault("email.cid_domain", "ymhc.ngo")
	v.SetDefault("email.resource_qr", false)
	v.SetDefault("email.preview_path", "email_preview.html")
	v.SetDefault("email.gmail.credentials_json", "")
	v.SetDefault("email.gmail.client_id", "")
	v.SetDefault("email.gmail.client_secret", "")
	v.SetDefault("email.gmail.refresh_token", "")

	// SMTP defaults
	v.SetDefault("smtp.port", 587)

	// Redis defaults
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "20h")

	// Overlay defaults
	v.SetDefault("overlay.input_dir", "tools/image_input")
	v.SetDefault("overlay.output_dir", "tools/image_output")
	v.SetDefault("overlay.color", "#0f777c")
	v.SetDefault("overlay.opacity", 0.4)
	v.SetDefault("overlay.jpeg_quality", 95)
}
