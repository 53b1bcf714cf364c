package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	"github.com/sirupsen/logrus"
)

const (
	ModeLambda = "lambda"
	ModeHTTP   = "http"

	BackendSecretsManager = "secretsmanager"
	BackendKubernetes     = "kubernetes"

	DefaultTimeout  = 5 * time.Second
	DefaultListen   = ":8080"
	DefaultCacheTTL = time.Hour
)

// Duration reads Go duration strings such as "5s" from YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"5s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

type SecretStoreConfig struct {
	Backend    string   `json:"backend"`
	Namespace  string   `json:"namespace,omitempty"`
	Name       string   `json:"name,omitempty"`
	Kubeconfig string   `json:"kubeconfig,omitempty"`
	CacheTTL   Duration `json:"cacheTTL"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type Config struct {
	HostedZoneID string            `json:"hostedZoneId"`
	Timeout      Duration          `json:"timeout"`
	DryRun       bool              `json:"dryRun"`
	Mode         string            `json:"mode"`
	Listen       string            `json:"listen"`
	AWSRegion    string            `json:"awsRegion,omitempty"`
	SecretStore  SecretStoreConfig `json:"secretStore"`
	Log          LogConfig         `json:"log"`
}

// Load reads the optional file named by DYNDNS_CONFIG, applies environment
// overrides and defaults, and validates the result.
func Load() (*Config, error) {
	return LoadWithLookup(os.LookupEnv)
}

func LoadWithLookup(lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}

	if path, ok := lookupEnv("DYNDNS_CONFIG"); ok && path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults(lookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func LoadFile(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	str := func(key string, target *string) {
		if v, ok := lookupEnv(key); ok && v != "" {
			*target = v
		}
	}
	duration := func(key string, target *Duration) error {
		v, ok := lookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		target.Duration = parsed
		return nil
	}

	str("ROUTE_53_HOSTED_ZONE_ID", &c.HostedZoneID)
	str("DYNDNS_MODE", &c.Mode)
	str("DYNDNS_LISTEN", &c.Listen)
	str("AWS_REGION", &c.AWSRegion)
	str("DYNDNS_SECRET_BACKEND", &c.SecretStore.Backend)
	str("DYNDNS_SECRET_NAMESPACE", &c.SecretStore.Namespace)
	str("DYNDNS_SECRET_NAME", &c.SecretStore.Name)
	str("KUBECONFIG", &c.SecretStore.Kubeconfig)
	str("DYNDNS_LOG_LEVEL", &c.Log.Level)
	str("DYNDNS_LOG_FORMAT", &c.Log.Format)

	if v, ok := lookupEnv("DYNDNS_DRY_RUN"); ok && v != "" {
		c.DryRun = v == "true"
	}

	if err := duration("DYNDNS_TIMEOUT", &c.Timeout); err != nil {
		return err
	}
	return duration("DYNDNS_SECRET_CACHE_TTL", &c.SecretStore.CacheTTL)
}

func (c *Config) applyDefaults(lookupEnv func(string) (string, bool)) {
	if c.Timeout.Duration == 0 {
		c.Timeout.Duration = DefaultTimeout
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Mode == "" {
		c.Mode = ModeHTTP
		if v, ok := lookupEnv("AWS_LAMBDA_RUNTIME_API"); ok && v != "" {
			c.Mode = ModeLambda
		}
	}
	if c.SecretStore.Backend == "" {
		c.SecretStore.Backend = BackendSecretsManager
	}
	if c.SecretStore.CacheTTL.Duration == 0 {
		c.SecretStore.CacheTTL.Duration = DefaultCacheTTL
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
		if c.Mode == ModeLambda {
			c.Log.Format = "json"
		}
	}
}

func (c *Config) Validate() error {
	var problems []string

	if c.HostedZoneID == "" {
		problems = append(problems, "hosted zone id is required (ROUTE_53_HOSTED_ZONE_ID)")
	}
	if c.Timeout.Duration <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if c.Mode != ModeLambda && c.Mode != ModeHTTP {
		problems = append(problems, fmt.Sprintf("unknown mode %q", c.Mode))
	}

	switch c.SecretStore.Backend {
	case BackendSecretsManager:
	case BackendKubernetes:
		if c.SecretStore.Namespace == "" || c.SecretStore.Name == "" {
			problems = append(problems, "kubernetes secret store needs namespace and name")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown secret store backend %q", c.SecretStore.Backend))
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// ConfigureLogging applies level and formatter to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err == nil {
		logrus.SetLevel(level)
	}

	if c.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}
}
