package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const ENV_PROD_CONFIG = ".env"

func main() {
	configFile := flag.String("config", ENV_PROD_CONFIG, "Configuration file to load (e.g., .env, .dev.env)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Studocu Telegram Bot\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fmt.Fprintf(os.Stderr, "  -config string\n")
		fmt.Fprintf(os.Stderr, "        Configuration file to load (default: .env)\n")
		fmt.Fprintf(os.Stderr, "  -help, -h\n")
		fmt.Fprintf(os.Stderr, "        Show this help information\n\n")
		fmt.Fprintf(os.Stderr, "Required environment variables: %s, %s, %s\n", ENV_TELEGRAM_BOT_TOKEN, ENV_STUDOCU_EMAIL, ENV_STUDOCU_PASSWORD)
		fmt.Fprintf(os.Stderr, "Note: Environment variables override config file values\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(EXIT_OK)
	}

	os.Exit(run(*configFile))
}

func run(configFile string) int {
	ConfigureStandardLogger()

	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			logrus.Warnf("Failed to load config file %s: %v, continuing with environment variables", configFile, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := BuildContainer()
	if err != nil {
		logrus.Errorf("Unexpected error: %v", err)
		return EXIT_ERROR
	}

	exitCode := EXIT_ERROR
	err = container.Invoke(func(app *Application) {
		defer app.Shutdown()
		exitCode = app.Run(ctx)
	})
	if err != nil {
		logrus.Errorf("Unexpected error: %v", err)
		return EXIT_ERROR
	}

	return exitCode
}
