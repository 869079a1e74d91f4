package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"proxy-deploy-backend/internal/pkg/ssh"
	"proxy-deploy-backend/internal/pkg/tcpproxy"
	"proxy-deploy-backend/pkg/utils"
)

type Config struct {
	Server  ServerConfig
	SSH     SSHConfig
	Deploy  DeployConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	AllowOrigins []string
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type SSHConfig struct {
	ConnectTimeout    time.Duration
	KeepaliveInterval time.Duration
}

// DeployConfig holds the fixed deployment parameters. They are not caller
// configurable; a YAML profile may override the environment defaults.
type DeployConfig struct {
	DiscoveryCommand string `yaml:"discoveryCommand"`
	Marker           string `yaml:"marker"`
	ArtifactURL      string `yaml:"artifactURL"`
	Image            string `yaml:"image"`
	ContainerName    string `yaml:"containerName"`
	Network          string `yaml:"network"`
	DatabaseAddress  string `yaml:"databaseAddress"`
	ProxyPort        int    `yaml:"proxyPort"`
	SudoCreate       bool   `yaml:"sudoCreate"`
}

func (d DeployConfig) ProxyParams() tcpproxy.Params {
	return tcpproxy.Params{
		ArtifactURL:     d.ArtifactURL,
		Image:           d.Image,
		ContainerName:   d.ContainerName,
		Network:         d.Network,
		DatabaseAddress: d.DatabaseAddress,
		ProxyPort:       d.ProxyPort,
		SudoCreate:      d.SudoCreate,
	}
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// Load reads an optional .env file, the environment and the optional YAML
// deployment profile named by DEPLOY_PROFILE, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := LoadConfig()
	if profile := os.Getenv("DEPLOY_PROFILE"); profile != "" {
		if err := cfg.Deploy.applyProfile(profile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnvAsString("SERVER_HOST", "127.0.0.1"),
			Port:         getEnvAsInt("SERVER_PORT", 8091),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 900),
			AllowOrigins: getEnvAsList("CORS_ALLOW_ORIGINS", []string{"http://localhost:8091"}),
		},
		SSH: SSHConfig{
			// Operator override only; the defaults are the fixed transport timings.
			ConnectTimeout:    getEnvAsDuration("SSH_CONNECT_TIMEOUT", ssh.DefaultConnectTimeout),
			KeepaliveInterval: getEnvAsDuration("SSH_KEEPALIVE_INTERVAL", ssh.DefaultKeepaliveInterval),
		},
		Deploy: DeployConfig{
			DiscoveryCommand: getEnvAsString("DISCOVERY_COMMAND", "ws.sh -showInfo"),
			Marker:           getEnvAsString("DISCOVERY_MARKER", "ws-tsdb"),
			ArtifactURL:      getEnvAsString("PROXY_ARTIFACT_URL", "http://135.250.143.187:8090/tcpproxy.tar.gz"),
			Image:            getEnvAsString("PROXY_IMAGE", "135.250.140.175:5000/tcp_proxy_nfmt"),
			ContainerName:    getEnvAsString("PROXY_CONTAINER_NAME", "pinottcpproxy"),
			Network:          getEnvAsString("PROXY_NETWORK", "nfmt-net"),
			DatabaseAddress:  getEnvAsString("PROXY_DATABASE_ADDRESS", "ws-tsdb:9443"),
			ProxyPort:        getEnvAsInt("PROXY_PORT", 9444),
			SudoCreate:       getEnvAsBool("PROXY_SUDO_CREATE", true),
		},
		Logging: LoggingConfig{
			Level:  getEnvAsString("LOG_LEVEL", "info"),
			Format: getEnvAsString("LOG_FORMAT", "console"),
			File:   getEnvAsString("LOG_FILE", ""),
		},
	}
}

func (d *DeployConfig) applyProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read deploy profile: %w", err)
	}

	var profile struct {
		Deploy *DeployConfig `yaml:"deploy"`
	}
	profile.Deploy = d
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return fmt.Errorf("parse deploy profile %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := utils.ValidatePort(c.Server.Port); err != nil {
		return fmt.Errorf("SERVER_PORT: %w", err)
	}
	if c.SSH.ConnectTimeout <= 0 || c.SSH.KeepaliveInterval <= 0 {
		return fmt.Errorf("SSH timeouts must be positive")
	}
	if strings.TrimSpace(c.Deploy.DiscoveryCommand) == "" {
		return fmt.Errorf("discovery command must not be empty")
	}
	if strings.TrimSpace(c.Deploy.Marker) == "" {
		return fmt.Errorf("discovery marker must not be empty")
	}
	if err := c.Deploy.ProxyParams().Validate(); err != nil {
		return fmt.Errorf("deploy profile: %w", err)
	}
	return nil
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("45s") or plain seconds ("45").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
