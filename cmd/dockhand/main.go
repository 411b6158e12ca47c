package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"dockhand/cli"
	"dockhand/cmdutil"
	"dockhand/config"
	"dockhand/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.New()
	if err := logger.Init(cfg.LogLevel); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cli.New(cfg).Execute(); err != nil {
		cmdutil.PrintE(err.Error())
		os.Exit(1)
	}
}
