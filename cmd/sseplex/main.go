// Command sseplex serves Server-Sent Events topics over HTTP.
//
//	GET  /<topic>  subscribe (text/event-stream)
//	POST /<topic>  publish the form field "text"
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/kbukum/sseplex/authgate"
	"github.com/kbukum/sseplex/version"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "sseplex:", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	f := &flags{}

	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Root().Writer, version.Get().String())
	}

	serveAction := func(ctx context.Context, cmd *cli.Command) error {
		f.PrefixSet = cmd.IsSet("prefix")
		cfg, err := loadConfig(*f)
		if err != nil {
			return err
		}
		return serve(ctx, cfg)
	}

	return &cli.Command{
		Name:      "sseplex",
		Usage:     "Server-Sent Events topic multiplexer",
		UsageText: "sseplex [global options] [command]",
		Description: `sseplex keeps one event stream per GET /<topic> request open and fans
every POST /<topic> out to all of them.

Configuration is read from ./cmd/sseplex/config.yml, ./config.yml and .env,
then from SSEPLEX_* environment variables, then from the flags below.`,
		Version: version.Get().Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("SSEPLEX_CONFIG"),
				Destination: &f.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "path to a .env file",
				Destination: &f.EnvFile,
			},
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address host:port (default 127.0.0.1:8080)",
				Destination: &f.Addr,
			},
			&cli.StringFlag{
				Name:        "prefix",
				Usage:       "URL path prefix for topic routes",
				Destination: &f.Prefix,
			},
			&cli.BoolFlag{
				Name:        "heartbeat",
				Usage:       `publish "event <n>" to every topic each heartbeat interval`,
				Destination: &f.Heartbeat,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() > 0 {
				return fmt.Errorf("unknown command %q. Run 'sseplex --help' for usage", cmd.Args().First())
			}
			return serveAction(ctx, cmd)
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server (default)",
				Action: serveAction,
			},
			newTokenCommand(f),
		},
	}
}

// newTokenCommand prints a bearer token for the configured auth secret.
func newTokenCommand(f *flags) *cli.Command {
	var (
		verb string
		ttl  time.Duration
	)
	return &cli.Command{
		Name:  "token",
		Usage: "print a bearer token accepted for the given verb",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "verb",
				Usage:       "HTTP verb the token is for (GET subscribes, POST publishes)",
				Value:       http.MethodGet,
				Destination: &verb,
			},
			&cli.DurationFlag{
				Name:        "ttl",
				Usage:       "token lifetime",
				Value:       time.Hour,
				Destination: &ttl,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(*f)
			if err != nil {
				return err
			}
			cfg.Auth.ApplyDefaults()
			if !cfg.Auth.Enabled() {
				return fmt.Errorf("auth.secret is not configured")
			}
			token, err := authgate.NewFromConfig(cfg.Auth).Issue(verb, "", ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, token)
			return nil
		},
	}
}
