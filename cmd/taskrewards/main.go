// Command taskrewards is the terminal client for the shared task and
// reward board.
//
//	taskrewards [--config path]   run the interactive shell
//	taskrewards token set         store the remote write credential
//	taskrewards token clear       remove it
//	taskrewards config            edit the remote settings
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nhle/task-rewards/internal/app"
	"github.com/nhle/task-rewards/internal/auth"
	"github.com/nhle/task-rewards/internal/credential"
	"github.com/nhle/task-rewards/internal/docstore"
	"github.com/nhle/task-rewards/internal/logging"
	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/remote"
	"github.com/nhle/task-rewards/internal/rewards"
	"github.com/nhle/task-rewards/internal/store"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "taskrewards:", err)
		os.Exit(1)
	}
}

// command is the parsed command line.
type command struct {
	configPath string
	sub        []string
}

func parseArgs(args []string, out io.Writer) (command, error) {
	fs := pflag.NewFlagSet("taskrewards", pflag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.StringP("config", "c", model.DefaultConfigPath(), "path to the YAML config file")
	fs.Usage = func() {
		fmt.Fprintln(out, "Usage: taskrewards [--config path] [token set|clear | config]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return command{}, err
	}

	cmd := command{configPath: *configPath, sub: fs.Args()}
	if len(cmd.sub) == 0 {
		return cmd, nil
	}
	switch cmd.sub[0] {
	case "token":
		if len(cmd.sub) != 2 || (cmd.sub[1] != "set" && cmd.sub[1] != "clear") {
			return command{}, errors.New("usage: taskrewards token set|clear")
		}
	case "config":
		if len(cmd.sub) != 1 {
			return command{}, errors.New("usage: taskrewards config")
		}
	default:
		return command{}, fmt.Errorf("unknown command %q", cmd.sub[0])
	}
	return cmd, nil
}

func run(args []string, out io.Writer) error {
	cmd, err := parseArgs(args, out)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(cmd.sub) > 0 {
		if cmd.sub[0] == "config" {
			return runConfigure(cmd.configPath, out)
		}
		return runToken(cmd.sub[1], out)
	}

	cfg, err := model.LoadConfig(cmd.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	cache, err := store.NewSQLiteStore(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer cache.Close()

	token, err := credential.RemoteToken()
	if err != nil {
		logger.Warn("reading remote credential, continuing read-only", zap.Error(err))
	}
	client := remote.NewClient(cfg.Remote, token)
	logger.Info("starting",
		zap.String("config", cmd.configPath),
		zap.String("document_url", cfg.Remote.DocumentURL),
		zap.Bool("writable", client.Writable()),
	)

	docs := docstore.New(cache, client, logger.Named("docstore"),
		docstore.WithCommitMessage(cfg.Remote.CommitMessage),
	)
	mgr := auth.NewManager(cache, docs, logger.Named("auth"))
	svc := rewards.New(docs, mgr, logger.Named("rewards"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := mgr.Restore(ctx); err != nil {
		logger.Warn("restoring session", zap.Error(err))
	}
	created, err := svc.Bootstrap(ctx, cfg.Bootstrap)
	if err != nil {
		return fmt.Errorf("loading data: %w", err)
	}
	if created {
		fmt.Fprintf(out, "Created the default admin account %q. Change its password after signing in.\n",
			cfg.Bootstrap.AdminUsername)
	}

	return app.New(app.Deps{
		Cache:   cache,
		Docs:    docs,
		Auth:    mgr,
		Service: svc,
		Logger:  logger.Named("app"),
		Out:     out,

		PollInterval: cfg.Remote.PollInterval,
	}).Run(ctx)
}
