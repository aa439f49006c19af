package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Classifier struct {
	Interpreter     string   `yaml:"interpreter"`
	InterpreterArgs []string `yaml:"interpreterArgs"`
	ScriptPath      string   `yaml:"scriptPath"`
	TimeoutSeconds  int      `yaml:"timeoutSeconds"`
}

type Upload struct {
	Directory    string `yaml:"directory"`
	MaxSizeBytes int64  `yaml:"maxSizeBytes"`
}

type Cache struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	TTLSeconds int    `yaml:"ttlSeconds"`
}

type ServiceConfig struct {
	Port       int        `yaml:"port"`
	Database   Database   `yaml:"database"`
	Classifier Classifier `yaml:"classifier"`
	Upload     Upload     `yaml:"upload"`
	Cache      Cache      `yaml:"cache"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return &config, nil
}

func applyDefaults(config *ServiceConfig) {
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.Database.Type == "" {
		config.Database.Type = "sqlite"
	}
	if config.Upload.Directory == "" {
		config.Upload.Directory = "./uploads"
	}
}

func validateConfig(config *ServiceConfig) error {
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("port %d is out of range", config.Port)
	}
	// The service is useless without its store; refuse to start instead of
	// failing on the first request.
	if config.Database.ConnectionString == "" {
		return fmt.Errorf("database connection string is not set")
	}
	if config.Classifier.Interpreter == "" {
		return fmt.Errorf("classifier interpreter is not set")
	}
	if config.Classifier.ScriptPath == "" {
		return fmt.Errorf("classifier script path is not set")
	}
	if config.Classifier.TimeoutSeconds < 0 {
		return fmt.Errorf("classifier timeout must not be negative")
	}
	if config.Upload.MaxSizeBytes < 0 {
		return fmt.Errorf("upload size limit must not be negative")
	}
	return nil
}

// ClassifierTimeout converts the configured seconds into a duration; zero
// leaves the invoker's default in place.
func (c *ServiceConfig) ClassifierTimeout() time.Duration {
	return time.Duration(c.Classifier.TimeoutSeconds) * time.Second
}

// CacheTTL converts the configured seconds into a duration.
func (c *ServiceConfig) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
