package traderz

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/rxtech-lab/traderz-go/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadConfig. They override values from the YAML file.
const (
	EnvBaseURL    = "TRADERZ_BASE_URL"
	EnvBrokerID   = "TRADERZ_BROKER_ID"
	EnvSystemUUID = "TRADERZ_SYSTEM_UUID"
	EnvLogLevel   = "TRADERZ_LOG_LEVEL"
)

// Config holds the platform coordinates every request depends on.
type Config struct {
	BaseURL    string `yaml:"base_url" json:"baseUrl" jsonschema:"title=Base URL,description=Root URL of the trading platform API" validate:"required,url"`
	BrokerID   string `yaml:"broker_id" json:"brokerId" jsonschema:"title=Broker ID,description=Broker identifier sent with the login request" validate:"required"`
	SystemUUID string `yaml:"system_uuid" json:"systemUuid" jsonschema:"title=System UUID,description=Trading system identifier used in every mtr-api path" validate:"required"`
	LogLevel   string `yaml:"log_level" json:"logLevel,omitempty" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error" validate:"omitempty,oneof=debug info warn error"`
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid traderz config", err)
	}

	return nil
}

// LoadConfig reads the YAML file at path and applies environment overrides.
// An empty path skips the file and builds the config from the environment only.
// The result is not validated; NewSession validates it.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", path)
		}
	}

	applyEnvOverrides(cfg)
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return cfg, nil
}

// LoadDotEnv loads the given .env files (".env" when none are given) into the
// process environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}

			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to load env file %s", p)
		}
	}

	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}

	if v := os.Getenv(EnvBrokerID); v != "" {
		cfg.BrokerID = v
	}

	if v := os.Getenv(EnvSystemUUID); v != "" {
		cfg.SystemUUID = v
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}

// ConfigSchema returns the JSON schema describing Config.
func ConfigSchema() (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(Config{})

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
