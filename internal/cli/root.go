// Package cli provides the datasetctl command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/on-the-ground/ymir_dataset/effects/binding"
	"github.com/on-the-ground/ymir_dataset/effects/concurrency"
	"github.com/on-the-ground/ymir_dataset/effects/gateway"
	"github.com/on-the-ground/ymir_dataset/effects/log"
	"github.com/on-the-ground/ymir_dataset/effects/notify"
	"github.com/on-the-ground/ymir_dataset/effects/store"
	"github.com/on-the-ground/ymir_dataset/effects/task"
	"github.com/on-the-ground/ymir_dataset/internal/config"
	"github.com/on-the-ground/ymir_dataset/internal/ymirapi"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// app holds the global flags and the effect scope of one invocation.
type app struct {
	configPath string
	server     string
	token      string

	cfg      config.Config
	teardown []func()
}

// Execute runs datasetctl with the process arguments.
func Execute() error {
	return Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

// Run runs datasetctl with args, writing command output to stdout. The
// effect handlers set up for the command are torn down before Run returns.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "datasetctl",
		Short: "Query and reconcile datasets of a YMIR backend",
		Long: `datasetctl calls the dataset API of a YMIR backend and prints the
results as JSON.

Configuration is read from --config (YAML), then YMIR_API_URL,
YMIR_API_TOKEN and YMIR_LOG_LEVEL, then the --server and --token flags.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.server, "server", "", "backend API base URL")
	root.PersistentFlags().StringVar(&a.token, "token", "", "backend API bearer token")

	root.AddCommand(
		a.listCmd(),
		a.getCmd(),
		a.batchCmd(),
		a.assetsCmd(),
		a.assetCmd(),
		a.deleteCmd(),
		a.createCmd(),
		a.updateCmd(),
		a.publicCmd(),
		a.hotCmd(),
		a.watchCmd(),
	)
	return root
}

// setup loads the configuration and registers every effect handler the
// commands perform, in the context of cmd.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.server != "" {
		cfg.API.URL = a.server
	}
	if a.token != "" {
		cfg.API.Token = a.token
	}
	a.cfg = cfg

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	var client gateway.Client
	client, err = ymirapi.New(cfg.API.URL,
		ymirapi.WithToken(cfg.API.Token),
		ymirapi.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
	)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}
	if cfg.API.CacheEntries > 0 {
		cached, err := ymirapi.NewCachedClient(client, cfg.API.CacheEntries)
		if err != nil {
			return fmt.Errorf("init api cache: %w", err)
		}
		a.teardown = append(a.teardown, cached.Close)
		client = cached
	}

	repo, err := store.NewMemDBRepo()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	ctx := cmd.Context()
	ctx = a.enter(log.WithZapEffectHandler(ctx, cfg.Log.BufferSize, logger))
	ctx = a.enter(binding.WithEffectHandler(ctx, 1, 1, cfg.Bindings()))
	ctx = a.enter(notify.WithLogEffectHandler(ctx, cfg.Log.BufferSize))
	ctx = a.enter(store.WithEffectHandler(ctx, cfg.Store.BufferSize, cfg.Store.NumWorkers, repo, nil))
	ctx = a.enter(gateway.WithEffectHandler(ctx, cfg.Gateway.BufferSize, cfg.Gateway.NumWorkers, client))
	ctx = a.enter(task.WithEffectHandler[any](ctx, cfg.Gateway.BufferSize))
	ctx = a.enter(concurrency.WithEffectHandler(ctx, 2))
	cmd.SetContext(ctx)
	return nil
}

// enter records the teardown of a handler registered in ctx.
func (a *app) enter(ctx context.Context, end func() context.Context) context.Context {
	a.teardown = append(a.teardown, func() { end() })
	return ctx
}

// close tears the effect handlers down, innermost first.
func (a *app) close() {
	for i := len(a.teardown) - 1; i >= 0; i-- {
		a.teardown[i]()
	}
	a.teardown = nil
}

func (a *app) authHeader() http.Header {
	header := http.Header{}
	if a.cfg.API.Token != "" {
		header.Set("Authorization", "Bearer "+a.cfg.API.Token)
	}
	return header
}
