// Command docsrag crawls documentation sites into a local index and answers
// questions with a Gemini chat agent grounded in the ranked excerpts.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/docsrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/docsrag/internal/config"
	"github.com/custodia-labs/docsrag/internal/logger"
)

var version = "dev"

func main() {
	// ./.env may set DOCSRAG_HOME, so it is read before the home one.
	if err := config.LoadEnv(".env"); err != nil {
		logger.Warn("%v", err)
	}
	if err := config.LoadEnv(envInHome()); err != nil {
		logger.Warn("%v", err)
	}

	cli.SetVersion(version)
	cli.SetBootstrap(buildServices)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// envInHome is the .env file in the default data directory.
func envInHome() string {
	home, err := config.ResolveHome("")
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".env")
}
