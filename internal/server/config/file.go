package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/credauth/internal/flagx"
	"github.com/dmitrijs2005/credauth/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// strings such as "5m" or integer nanoseconds. Zero values leave the
// current setting alone.
type FileConfig struct {
	HTTPAddr          string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr          string         `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDSN       string         `json:"database_dsn" yaml:"database_dsn"`
	RunMigrations     *bool          `json:"run_migrations" yaml:"run_migrations"`
	PrivateKeySource  string         `json:"private_key_source" yaml:"private_key_source"`
	PublicKeySource   *string        `json:"public_key_source" yaml:"public_key_source"`
	TokenIssuer       string         `json:"token_issuer" yaml:"token_issuer"`
	TokenValidity     timex.Duration `json:"token_validity" yaml:"token_validity"`
	S3Region          string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3AccessKey       string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey       string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	RedisURL          string         `json:"redis_url" yaml:"redis_url"`
	LocationsCacheTTL timex.Duration `json:"locations_cache_ttl" yaml:"locations_cache_ttl"`
	LogLevel          string         `json:"log_level" yaml:"log_level"`
}

// parseFile loads the file named by -c/-config, if any, into config.
// Files ending in .yaml or .yml are decoded as YAML, anything else as
// JSON. An unreadable or malformed file panics.
func parseFile(config *Config) {

	// try flags
	path := flagx.ConfigFileFlag()

	// nothing to load
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.RunMigrations != nil {
		config.RunMigrations = *c.RunMigrations
	}
	setString(&config.PrivateKeySource, c.PrivateKeySource)
	if c.PublicKeySource != nil {
		config.PublicKeySource = *c.PublicKeySource
	}
	setString(&config.TokenIssuer, c.TokenIssuer)
	setDuration(&config.TokenValidity, c.TokenValidity.Duration)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.RedisURL, c.RedisURL)
	setDuration(&config.LocationsCacheTTL, c.LocationsCacheTTL.Duration)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
