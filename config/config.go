// Package config - runtime configuration of the refchat service
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// masterSecretEnvVar environment variable carrying the message encryption
// master secret. The secret never lives in a config file.
const masterSecretEnvVar = "REFCHAT_ENCRYPTION_KEY"

// HTTPConfig HTTP server configuration
type HTTPConfig struct {
	// ListenOn host interface to listen on
	ListenOn string `mapstructure:"listenOn" validate:"required,ip"`
	// Port port to listen on
	Port int `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	// PublicBaseURL public base URL referee chat links are built against
	PublicBaseURL string `mapstructure:"publicBaseUrl" validate:"required,url"`
}

// DatabaseConfig persistence configuration
type DatabaseConfig struct {
	// SqliteFile path of the sqlite database file
	SqliteFile string `mapstructure:"sqliteFile" validate:"required"`
}

// SMTPConfig outbound email configuration. An empty host disables email
// delivery; notifications are logged and skipped.
type SMTPConfig struct {
	// Host mail relay host
	Host string `mapstructure:"host"`
	// Port mail relay port
	Port int `mapstructure:"port"`
	// Username relay auth username
	Username string `mapstructure:"username"`
	// Password relay auth password
	Password string `mapstructure:"password"`
	// From sender address
	From string `mapstructure:"from"`
}

// WhatsAppConfig Twilio WhatsApp configuration. An empty account SID disables
// the channel.
type WhatsAppConfig struct {
	// AccountSID Twilio account SID
	AccountSID string `mapstructure:"accountSid"`
	// AuthToken Twilio auth token
	AuthToken string `mapstructure:"authToken"`
	// FromNumber sending WhatsApp number
	FromNumber string `mapstructure:"fromNumber"`
}

// PlatformConfig location of the surrounding recruitment platform's internal
// APIs
type PlatformConfig struct {
	// DirectoryURL base URL of the internal directory API
	DirectoryURL string `mapstructure:"directoryUrl" validate:"required,url"`
}

// Config refchat service top level configuration
type Config struct {
	// HTTP HTTP server configuration
	HTTP HTTPConfig `mapstructure:"http"`
	// Database persistence configuration
	Database DatabaseConfig `mapstructure:"database"`
	// Platform recruitment platform internal API locations
	Platform PlatformConfig `mapstructure:"platform"`
	// SMTP outbound email configuration
	SMTP SMTPConfig `mapstructure:"smtp"`
	// WhatsApp Twilio WhatsApp configuration
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
}

// InstallDefaultConfigValues installs default config parameters in viper
func InstallDefaultConfigValues() {
	viper.SetDefault("http.listenOn", "0.0.0.0")
	viper.SetDefault("http.port", 3000)
	viper.SetDefault("http.publicBaseUrl", "http://localhost:3000")
	viper.SetDefault("database.sqliteFile", "refchat.db")
	viper.SetDefault("platform.directoryUrl", "http://localhost:4000")
	viper.SetDefault("smtp.port", 587)
}

/*
LoadConfig load and validate the service configuration

	@param configFile string - optional config file path; defaults apply when empty
	@returns parsed configuration
*/
func LoadConfig(configFile string) (Config, error) {
	InstallDefaultConfigValues()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s [%w]", configFile, err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration [%w]", err)
	}

	validate := validator.New()
	if err := validate.Struct(&config); err != nil {
		return Config{}, fmt.Errorf("invalid configuration [%w]", err)
	}

	return config, nil
}

/*
ReadMasterSecret read the message encryption master secret from the process
environment

	@returns the master secret
*/
func ReadMasterSecret() (string, error) {
	secret := os.Getenv(masterSecretEnvVar)
	if secret == "" {
		return "", fmt.Errorf("environment variable %s is not set", masterSecretEnvVar)
	}
	return secret, nil
}
