// Command paperscout runs the research pipeline HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/avrilo/paperscout"
	"github.com/avrilo/paperscout/arxiv"
	"github.com/avrilo/paperscout/cache"
	"github.com/avrilo/paperscout/config"
	"github.com/avrilo/paperscout/logging"
	"github.com/avrilo/paperscout/model"
	"github.com/avrilo/paperscout/model/anthropic"
	"github.com/avrilo/paperscout/model/openai"
	"github.com/avrilo/paperscout/server"
	"github.com/avrilo/paperscout/tool"
	"github.com/avrilo/paperscout/workflow"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "paperscout",
		Short:         "Research paper discovery and scoring service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	root.AddCommand(serve)
	return root
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    cfg.Log.Format,
		Output:    os.Stdout,
		Component: "paperscout",
	})

	llm, err := buildModel(cfg.Model)
	if err != nil {
		return err
	}

	searcher := arxiv.NewClient(func(o *arxiv.Options) {
		o.BaseURL = cfg.Search.BaseURL
		o.RequestInterval = cfg.Search.RequestInterval
		o.Logger = logger.WithComponent("arxiv")
	})

	searchTool := tool.NewSearchPapersTool(searcher, func(o *tool.SearchPapersOptions) {
		o.MaxResults = cfg.Search.MaxResults
	})
	finder := workflow.NewFinder(llm, searchTool, logger.WithComponent("finder"))
	scorer := workflow.NewScorer(llm, logger.WithComponent("scorer"))

	exchange := workflow.NewExchange(finder, scorer, func(o *workflow.Options) {
		o.MaxTurns = cfg.Model.MaxTurns
		o.Logger = logger.WithComponent("workflow")
	})

	store := cache.NewStore(func(o *cache.Options) {
		o.TTL = cfg.Cache.TTL
		o.Logger = logger.WithComponent("cache")
	})

	assistant := paperscout.NewAssistant(exchange,
		paperscout.WithCache(store),
		paperscout.WithLogger(logger.WithComponent("assistant")),
	)

	srv := server.New(assistant,
		server.WithAddr(cfg.Server.Addr()),
		server.WithRequestTimeout(cfg.Server.RequestTimeout),
		server.WithLogger(logger.WithComponent("server")),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}

func buildModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			o.APIKey = cfg.APIKey
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			o.APIKey = cfg.APIKey
		}), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
}
