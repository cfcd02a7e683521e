package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/voicesync/internal/buildinfo"
	"github.com/dmitrijs2005/voicesync/internal/logging"
	"github.com/dmitrijs2005/voicesync/internal/server"
	"github.com/dmitrijs2005/voicesync/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.ForFile(os.Stdout, logging.ParseLevel(cfg.LogLevel))

	app, err := server.NewApp(cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
