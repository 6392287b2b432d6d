package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/storefront/internal/admincli"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/services"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	opts, err := admincli.ParseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	pw, err := admincli.ReadPassword(os.Stdout, os.LookupEnv)
	if err != nil {
		log.Fatalf("password: %v", err)
	}
	defer clear(pw)

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	m, err := repomanager.Open(ctx, repomanager.Persistence(cfg.Persistence), cfg.DataDir, cfg.DatabaseDSN, logger)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer m.Close()

	u, err := admincli.CreateAdmin(ctx, services.NewUserService(m, logger), opts, pw)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	fmt.Printf("administrator %s created (id %s)\n", u.Email, u.ID)
}
