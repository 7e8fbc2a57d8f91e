// Command register-commands installs the slash-command manifest for an
// application. Run it once per deployment, or whenever the manifest
// changes.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/pairrank/internal/commands"
	"github.com/okian/pairrank/pkg/logger"
)

func main() {
	appID := flag.String("app-id", os.Getenv("PAIRRANK_APP_ID"), "application id")
	token := flag.String("token", os.Getenv("PAIRRANK_BOT_TOKEN"), "bot token")
	apiBase := flag.String("api", commands.DefaultAPIBaseURL, "API base URL")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *appID == "" || *token == "" {
		log.Fatal(ctx, "both -app-id and -token are required")
	}

	client := commands.NewClient(
		commands.WithBaseURL(*apiBase),
		commands.WithTimeout(*timeout),
	)

	manifest := commands.Manifest()
	if err := client.InstallGlobalCommands(ctx, *appID, *token, manifest); err != nil {
		log.Fatal(ctx, "failed to install commands", logger.Error(err))
	}
	log.Info(ctx, "installed global commands", logger.Int("count", len(manifest)))
}
