package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"

	"branch-deployer/internal/kube"
	"branch-deployer/internal/manifest"
)

type Config struct {
	ListenAddr string `default:":3000"`
	Namespace  string `default:"default"`
	APIFlavor  string `default:"legacy"`
	LogLevel   string `default:"info"`

	ImageTemplate    string `default:"enyachoke/etl-services:{branch}"`
	ConfigMapName    string `default:"etl-config"`
	UploadsClaimName string `default:"etl-uploads-claim"`
	Timezone         string `default:"Africa/Nairobi"`
	Port             int32  `default:"8002"`

	KubeAPIURL          string
	KubeToken           string
	KubeCAFile          string
	KubeInsecureSkipTLS bool
	Kubeconfig          string
}

// LoadDotenv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotenv(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("load dotenv %s: %w", path, err)
	}
	return true, nil
}

// FromEnv applies defaults, then environment overrides, then validates.
func FromEnv() (Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("apply defaults: %w", err)
	}

	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.Namespace, "DEPLOY_NAMESPACE")
	setString(&cfg.APIFlavor, "KUBE_API_FLAVOR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.ImageTemplate, "IMAGE_REF_TEMPLATE")
	setString(&cfg.ConfigMapName, "DEPLOY_CONFIGMAP")
	setString(&cfg.UploadsClaimName, "DEPLOY_UPLOADS_CLAIM")
	setString(&cfg.Timezone, "DEPLOY_TIMEZONE")
	setString(&cfg.KubeAPIURL, "KUBE_API_URL")
	setString(&cfg.KubeToken, "KUBE_TOKEN")
	setString(&cfg.KubeCAFile, "KUBE_CA_CERT")
	setString(&cfg.Kubeconfig, "KUBECONFIG")
	cfg.KubeInsecureSkipTLS = os.Getenv("KUBE_INSECURE_SKIP_TLS_VERIFY") == "true"

	if rawPort := os.Getenv("DEPLOY_PORT"); rawPort != "" {
		parsed, err := strconv.ParseInt(rawPort, 10, 32)
		if err != nil {
			return Config{}, fmt.Errorf("DEPLOY_PORT invalid: %w", err)
		}
		cfg.Port = int32(parsed)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}
	if c.Namespace == "" {
		return fmt.Errorf("DEPLOY_NAMESPACE is required")
	}
	if _, err := manifest.ParseFlavor(c.APIFlavor); err != nil {
		return fmt.Errorf("KUBE_API_FLAVOR invalid: %w", err)
	}
	if _, err := manifest.RenderImage(c.ImageTemplate, "main"); err != nil {
		return fmt.Errorf("IMAGE_REF_TEMPLATE invalid: %w", err)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("DEPLOY_PORT out of range: %d", c.Port)
	}
	if _, err := c.SlogLevel(); err != nil {
		return fmt.Errorf("LOG_LEVEL invalid: %w", err)
	}
	return nil
}

func (c Config) Flavor() manifest.Flavor {
	return manifest.Flavor(c.APIFlavor)
}

func (c Config) ManifestOptions() manifest.Options {
	return manifest.Options{
		ImageTemplate:    c.ImageTemplate,
		ConfigMapName:    c.ConfigMapName,
		UploadsClaimName: c.UploadsClaimName,
		Timezone:         c.Timezone,
		Port:             c.Port,
	}
}

func (c Config) Connection() kube.ConnectionConfig {
	return kube.ConnectionConfig{
		APIURL:                c.KubeAPIURL,
		Token:                 c.KubeToken,
		CAFile:                c.KubeCAFile,
		InsecureSkipTLSVerify: c.KubeInsecureSkipTLS,
		Kubeconfig:            c.Kubeconfig,
	}
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}

func setString(dst *string, key string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*dst = value
	}
}
