package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"linkbot/internal/app"
	"linkbot/internal/config"
)

func main() {
	var cfgPath, envPath string
	flag.StringVar(&cfgPath, "config", "./config/daily.yml", "path to config yaml")
	flag.StringVar(&envPath, "env", ".env", "path to env file with credentials")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Credentials come from the environment; a missing env file is fine
	// when the variables are already exported.
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	creds := app.Credentials{
		Username:  os.Getenv("LINKEDIN_USERNAME"),
		Password:  os.Getenv("LINKEDIN_PASSWORD"),
		OpenAIKey: os.Getenv("OPENAI_API_KEY"),
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	a, err := app.New(cfg, creds)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	if err := a.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		_ = a.Stop(context.Background())
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-a.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	_ = a.Stop(stopCtx)
	stopCancel()

	if err := a.Err(); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}
