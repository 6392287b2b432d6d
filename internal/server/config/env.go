package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// envFile is read when present. Variables set in the real environment take
// precedence over it.
var envFile = ".env"

// Environment variable names.
const (
	EnvHTTPAddr            = "HTTP_ADDR"
	EnvGRPCAddr            = "GRPC_ADDR"
	EnvServerURL           = "SERVER_URL"
	EnvPersistence         = "PERSISTENCE"
	EnvDataDir             = "DATA_DIR"
	EnvDatabaseDSN         = "DATABASE_DSN"
	EnvSecretKey           = "SECRET_KEY"
	EnvAccessTokenValidity = "ACCESS_TOKEN_VALIDITY"
	EnvMPAccessToken       = "MP_ACCESS_TOKEN"
	EnvMPPublicKey         = "MP_PUBLIC_KEY"
	EnvMPBaseURL           = "MP_BASE_URL"
	EnvS3RootUser          = "S3_ROOT_USER"
	EnvS3RootPassword      = "S3_ROOT_PASSWORD"
	EnvS3Bucket            = "S3_BUCKET"
	EnvS3Region            = "S3_REGION"
	EnvS3BaseEndpoint      = "S3_BASE_ENDPOINT"
	EnvLogLevel            = "LOG_LEVEL"
)

func parseEnv(config *Config, lookupEnv func(string) (string, bool)) error {
	fileVars, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", envFile, err)
	}

	get := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}
	set := func(dst *string, key string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	set(&config.HTTPAddr, EnvHTTPAddr)
	set(&config.GRPCAddr, EnvGRPCAddr)
	set(&config.ServerURL, EnvServerURL)
	set(&config.Persistence, EnvPersistence)
	set(&config.DataDir, EnvDataDir)
	set(&config.DatabaseDSN, EnvDatabaseDSN)
	set(&config.SecretKey, EnvSecretKey)
	set(&config.MPAccessToken, EnvMPAccessToken)
	set(&config.MPPublicKey, EnvMPPublicKey)
	set(&config.MPBaseURL, EnvMPBaseURL)
	set(&config.S3RootUser, EnvS3RootUser)
	set(&config.S3RootPassword, EnvS3RootPassword)
	set(&config.S3Bucket, EnvS3Bucket)
	set(&config.S3Region, EnvS3Region)
	set(&config.S3BaseEndpoint, EnvS3BaseEndpoint)
	set(&config.LogLevel, EnvLogLevel)

	if v, ok := get(EnvAccessTokenValidity); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAccessTokenValidity, err)
		}
		config.AccessTokenValidityDuration = d
	}
	return nil
}
