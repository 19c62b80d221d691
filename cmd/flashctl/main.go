package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/flashboard/cmd/flashctl/command"
	"github.com/mklimuk/flashboard/cmd/flashctl/console"
	"github.com/mklimuk/flashboard/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := cli.NewApp()
	app.Name = "flashctl"
	app.EnableBashCompletion = true
	app.Version = config.Version()
	app.Usage = "W25Q serial NOR flash tool"
	app.Flags = append(command.GlobalFlags(),
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
	)
	app.Before = func(c *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
			Prefix:          "flashctl",
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if c.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
			c.Context = console.WithVerbose(c.Context, true)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = command.Commands()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			return exerr.ExitCode()
		}
		console.Errorf("%v", err)
		return console.ExitFailure
	}
	return 0
}
