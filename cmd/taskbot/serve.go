package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/taskbot/internal/adapters/discord"
	httpadapter "github.com/PabloGalante/taskbot/internal/adapters/http"
	"github.com/PabloGalante/taskbot/internal/adapters/storage"
	"github.com/PabloGalante/taskbot/internal/app/agenda"
	"github.com/PabloGalante/taskbot/internal/app/commands"
	"github.com/PabloGalante/taskbot/internal/app/daily"
	"github.com/PabloGalante/taskbot/internal/app/flows"
	"github.com/PabloGalante/taskbot/internal/app/panel"
	"github.com/PabloGalante/taskbot/internal/config"
	"github.com/PabloGalante/taskbot/internal/observability"
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and run the daily reminder loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := observability.Logger()
	defer func() { _ = log.Sync() }()

	store, closeStore, err := storage.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("closing storage", zap.Error(err))
		}
	}()
	log.Info("storage ready", zap.String("backend", string(cfg.Storage.Backend)))

	bot, err := discord.New(cfg.Discord.Token, cfg.Discord.GuildID)
	if err != nil {
		return err
	}
	tr := bot.Router()
	loc := cfg.Location()
	agendaSvc := agenda.NewService(store, loc)

	panels := panel.NewManager(tr, store, agendaSvc, cfg.Timeouts.PanelView)
	defer panels.Stop()

	f := flows.New(tr, store, loc, flows.Timeouts{
		Form:    cfg.Timeouts.Form,
		Picker:  cfg.Timeouts.Picker,
		Details: cfg.Timeouts.Details,
	})
	svc := commands.NewService(f, panels)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bot.Run(ctx, svc, panels.Start)
	})

	g.Go(func() error {
		return daily.NewDefaultRunner(tr, store, cfg.DailyAt(), loc).Loop(ctx)
	})

	if cfg.HTTP.Addr != "" {
		g.Go(func() error {
			return httpadapter.Serve(ctx, cfg.HTTP.Addr, httpadapter.NewServer(agendaSvc, store, loc))
		})
	}

	err = g.Wait()
	log.Info("taskbot stopped")
	return err
}
