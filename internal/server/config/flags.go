package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/storefront/internal/flagx"
)

var flagNames = []string{
	"-a", "-grpc", "-url", "-persistence", "-data", "-d", "-s", "-t",
	"-mp-token", "-mp-public-key", "-mp-url",
	"-u", "-p", "-b", "-g", "-e", "-l",
}

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-a string              REST bind address (e.g. ":8080")
//	-grpc string           admin gRPC bind address
//	-url string            public server URL
//	-persistence string    FILE or POSTGRES
//	-data string           data directory for FILE persistence
//	-d string              PostgreSQL DSN
//	-s string              JWT HMAC secret key
//	-t int                 session token validity, minutes
//	-mp-token string       MercadoPago access token
//	-mp-public-key string  MercadoPago public key
//	-mp-url string         MercadoPago API base URL
//	-u, -p string          S3 root user and password
//	-b, -g, -e string      S3 bucket, region and base endpoint
//	-l string              log level
//
// Arguments not in the list above are ignored.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, flagNames)

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "REST address and port")
	fs.StringVar(&config.GRPCAddr, "grpc", config.GRPCAddr, "admin gRPC address and port")
	fs.StringVar(&config.ServerURL, "url", config.ServerURL, "public server URL")
	fs.StringVar(&config.Persistence, "persistence", config.Persistence, "FILE or POSTGRES")
	fs.StringVar(&config.DataDir, "data", config.DataDir, "data directory")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "session token validity (in minutes)")
	fs.StringVar(&config.MPAccessToken, "mp-token", config.MPAccessToken, "MercadoPago access token")
	fs.StringVar(&config.MPPublicKey, "mp-public-key", config.MPPublicKey, "MercadoPago public key")
	fs.StringVar(&config.MPBaseURL, "mp-url", config.MPBaseURL, "MercadoPago API base URL")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// -t applies only when given; the current validity is kept otherwise.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*tokenMinutes) * time.Minute
		}
	})
	return nil
}
