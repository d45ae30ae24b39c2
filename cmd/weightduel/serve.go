package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	adapthttp "weightduel/internal/adapter/http"
	"weightduel/internal/adapter/telegram"
	"weightduel/internal/app"
	"weightduel/internal/meals"
	"weightduel/internal/reminder"
	"weightduel/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot, the reminder schedule and the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// services are the application services shared by the adapters.
type services struct {
	store        *store.Store
	source       *meals.Source
	weight       *app.WeightService
	registration *app.RegistrationService
	progress     *app.ProgressService
	menu         *app.MenuService
}

func (rt *runtime) services(ctx context.Context) (*services, error) {
	p, closer, err := openPersister(rt.cfg.Storage, rt.logger)
	if err != nil {
		return nil, err
	}
	rt.onClose(closer)

	st, err := store.Open(ctx, p, rt.cfg.Roles,
		store.WithLocation(rt.loc),
		store.WithLogger(rt.logger),
		store.WithRecorder(rt.metrics))
	if err != nil {
		return nil, err
	}
	src, err := meals.NewSource(meals.FilesIn(rt.cfg.MealsDir),
		meals.WithSourceLogger(rt.logger),
		meals.WithReloadRecorder(rt.metrics))
	if err != nil {
		return nil, err
	}
	return &services{
		store:        st,
		source:       src,
		weight:       app.NewWeightService(st),
		registration: app.NewRegistrationService(st),
		progress:     app.NewProgressService(st),
		menu:         app.NewMenuService(src, st),
	}, nil
}

func (rt *runtime) sender() (*telegram.Sender, error) {
	if err := rt.cfg.RequireBot(); err != nil {
		return nil, err
	}
	api, err := tgbotapi.NewBotAPI(rt.cfg.BotToken)
	if err != nil {
		return nil, err
	}
	rt.logger.Info("bot authorized", slog.String("username", api.Self.UserName))
	return telegram.NewSender(api, rt.cfg.Telegram.SendRate, rt.cfg.Telegram.SendBurst), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := rt.services(ctx)
	if err != nil {
		return err
	}
	sender, err := rt.sender()
	if err != nil {
		return err
	}

	bot := telegram.NewBot(sender, telegram.Deps{
		Weight:       svc.weight,
		Registration: svc.registration,
		Progress:     svc.progress,
		Menu:         svc.menu,
		Logger:       rt.logger,
		Recorder:     rt.metrics,
	})
	broadcaster := reminder.NewBroadcaster(svc.store, telegram.NewNotifier(sender), rt.cfg.Reminder.Text, rt.logger, rt.metrics)
	sched, err := reminder.NewScheduler(rt.cfg.Reminder.Spec, rt.loc, func(ctx context.Context) {
		broadcaster.Fire(ctx)
	}, rt.logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(gctx) })
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error { return svc.source.Watch(gctx) })

	if rt.cfg.HTTP.Addr != "" {
		srv := &http.Server{
			Addr: rt.cfg.HTTP.Addr,
			Handler: adapthttp.New(adapthttp.Deps{
				Weight:       svc.weight,
				Registration: svc.registration,
				Progress:     svc.progress,
				Menu:         svc.menu,
				Gatherer:     rt.registry,
				Recorder:     rt.metrics,
				Logger:       rt.logger,
				TokenHash:    rt.cfg.HTTP.APITokenHash,
			}).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			rt.logger.Info("http listening", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	rt.logger.Info("shutdown complete")
	return err
}
