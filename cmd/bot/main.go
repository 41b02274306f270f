package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robalyx/raidbot/internal/bot"
	"github.com/robalyx/raidbot/internal/roster"
	"github.com/robalyx/raidbot/internal/setup"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	// BotLogDir specifies where bot log files are stored.
	BotLogDir = "logs/bot_logs"

	// shutdownTimeout bounds how long closing the gateway may take.
	shutdownTimeout = 10 * time.Second
)

func main() {
	app := &cli.Command{
		Name:  "bot",
		Usage: "Start the raid sign-up bot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-dir",
				Value: BotLogDir,
				Usage: "Directory for log sessions",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, c.String("log-dir"))
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logDir string) error {
	app, err := setup.InitializeApp(logDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup()

	// Raids only live for the lifetime of the process
	store := roster.NewStore()

	discordBot, err := bot.New(&app.Config.Bot, store, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := discordBot.Start(ctx); err != nil {
		return fmt.Errorf("failed to start bot: %w", err)
	}

	log.Println("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	discordBot.Close(shutdownCtx)
	app.Logger.Info("Bot stopped", zap.Int("raids", store.Len()))

	return nil
}
