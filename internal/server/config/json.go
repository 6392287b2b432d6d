package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/storefront/internal/flagx"
	"github.com/dmitrijs2005/storefront/internal/timex"
)

// JSONConfig is the on-disk shape of the config file. Duration fields accept
// either strings such as "30m" or integer nanoseconds. Fields left out of the
// file keep their previous values.
type JSONConfig struct {
	HTTPAddr                    *string         `json:"http_addr"`
	GRPCAddr                    *string         `json:"grpc_addr"`
	ServerURL                   *string         `json:"server_url"`
	Persistence                 *string         `json:"persistence"`
	DataDir                     *string         `json:"data_dir"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	MPAccessToken               *string         `json:"mp_access_token"`
	MPPublicKey                 *string         `json:"mp_public_key"`
	MPBaseURL                   *string         `json:"mp_base_url"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJSON overlays the file named by -c/-config, if any, onto config.
func parseJSON(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JSONConfig{}
	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JSONConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.ServerURL, c.ServerURL)
	setString(&config.Persistence, c.Persistence)
	setString(&config.DataDir, c.DataDir)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&config.MPAccessToken, c.MPAccessToken)
	setString(&config.MPPublicKey, c.MPPublicKey)
	setString(&config.MPBaseURL, c.MPBaseURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
