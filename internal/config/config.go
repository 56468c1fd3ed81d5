// Package config provides configuration loading and validation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "workshop.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CDKW_"

// Config is the root configuration structure.
type Config struct {
	StackName   string `yaml:"stack_name" validate:"required,max=128"`
	Description string `yaml:"description"`
	Region      string `yaml:"region"`
	// AssetBucket receives Lambda and layer archives on deploy.
	AssetBucket string `yaml:"asset_bucket"`
	OutDir      string `yaml:"out_dir" validate:"required"`
	// Format is the synthesized template format.
	Format string `yaml:"format" validate:"oneof=json yaml"`

	Assets  AssetsConfig  `yaml:"assets"`
	Site    SiteConfig    `yaml:"site"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// AssetsConfig locates the code directories packaged into Lambda archives.
type AssetsConfig struct {
	HelloHandler  string `yaml:"hello_handler" validate:"required"`
	NodeJSHandler string `yaml:"nodejs_handler" validate:"required"`
	PythonHandler string `yaml:"python_handler" validate:"required"`
	NodeJSLayer1  string `yaml:"nodejs_layer_1" validate:"required"`
	NodeJSLayer2  string `yaml:"nodejs_layer_2" validate:"required"`
	PythonLayer1  string `yaml:"python_layer_1" validate:"required"`
	PythonLayer2  string `yaml:"python_layer_2" validate:"required"`
}

// SiteConfig configures the static website.
type SiteConfig struct {
	ContentsDir   string `yaml:"contents_dir" validate:"required"`
	IndexDocument string `yaml:"index_document" validate:"required"`
	ErrorDocument string `yaml:"error_document" validate:"required"`
	// ErrorCachingTTL is how long CloudFront caches the 403 error page.
	ErrorCachingTTL time.Duration `yaml:"error_caching_ttl"`
	// DomainName is an optional alias; it needs a certificate in us-east-1.
	DomainName     string `yaml:"domain_name" validate:"omitempty,fqdn"`
	CertificateARN string `yaml:"certificate_arn" validate:"required_with=DomainName"`
}

// ServerConfig configures the local API emulator.
type ServerConfig struct {
	Addr         string        `yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// Load reads the config file at path, the .env file next to it, and the
// CDKW_* environment, then applies defaults and validates the result.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Dir(path)); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return finish(&cfg)
}

// LoadFromEnv builds a configuration from defaults and the environment only.
func LoadFromEnv() (*Config, error) {
	if err := loadDotEnv("."); err != nil {
		return nil, err
	}
	return finish(&Config{})
}

// LoadWithFallback loads path when it exists and falls back to LoadFromEnv.
// An explicitly named file that is missing is an error.
func LoadWithFallback(path string, explicit bool) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if explicit {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return LoadFromEnv()
}

func finish(cfg *Config) (*Config, error) {
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	setDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	var errs []error
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: invalid duration %q", EnvPrefix, name, v))
				return
			}
			*dst = d
		}
	}

	str("STACK_NAME", &cfg.StackName)
	str("REGION", &cfg.Region)
	str("ASSET_BUCKET", &cfg.AssetBucket)
	str("OUT_DIR", &cfg.OutDir)
	str("FORMAT", &cfg.Format)

	// Site configuration
	str("SITE_CONTENTS_DIR", &cfg.Site.ContentsDir)
	str("SITE_DOMAIN_NAME", &cfg.Site.DomainName)
	str("SITE_CERTIFICATE_ARN", &cfg.Site.CertificateARN)
	dur("SITE_ERROR_CACHING_TTL", &cfg.Site.ErrorCachingTTL)

	// Server configuration
	str("SERVER_ADDR", &cfg.Server.Addr)
	dur("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	dur("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)

	// Logging configuration
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)

	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_REGION")
	}
	return errors.Join(errs...)
}

func setDefaults(cfg *Config) {
	def := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}

	def(&cfg.StackName, "CdkWorkshopStack")
	def(&cfg.OutDir, "cdk.out")
	def(&cfg.Format, "json")

	def(&cfg.Assets.HelloHandler, "lambda/helloHandler")
	def(&cfg.Assets.NodeJSHandler, "lambda/nodeJsLayerHandler")
	def(&cfg.Assets.PythonHandler, "lambda/pythonLayerHandler")
	def(&cfg.Assets.NodeJSLayer1, "lambda/layers/nodejs_layers/layer_1")
	def(&cfg.Assets.NodeJSLayer2, "lambda/layers/nodejs_layers/layer_2")
	def(&cfg.Assets.PythonLayer1, "lambda/layers/python_layers/layer_1")
	def(&cfg.Assets.PythonLayer2, "lambda/layers/python_layers/layer_2")

	def(&cfg.Site.ContentsDir, "site-contents")
	def(&cfg.Site.IndexDocument, "index.html")
	def(&cfg.Site.ErrorDocument, "error.html")
	if cfg.Site.ErrorCachingTTL == 0 {
		cfg.Site.ErrorCachingTTL = 30 * time.Minute
	}

	def(&cfg.Server.Addr, ":3000")
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}

	def(&cfg.Logging.Level, "info")
	def(&cfg.Logging.Format, "console")
}

var validate = func() func(*Config) error {
	v := validator.New()
	return func(cfg *Config) error {
		err := v.Struct(cfg)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
		}
		return errors.New(strings.Join(msgs, "; "))
	}
}()

// Validate re-checks a configuration built or modified in code.
func (c *Config) Validate() error {
	return validate(c)
}

// RequireDeploy checks the settings only deploy and destroy need.
func (c *Config) RequireDeploy() error {
	if c.AssetBucket == "" {
		return fmt.Errorf("asset_bucket is required to deploy (set %sASSET_BUCKET)", EnvPrefix)
	}
	if c.Region == "" {
		return fmt.Errorf("region is required to deploy (set %sREGION or AWS_REGION)", EnvPrefix)
	}
	return nil
}
