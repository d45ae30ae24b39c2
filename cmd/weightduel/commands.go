package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"weightduel/internal/adapter/telegram"
	"weightduel/internal/app"
	"weightduel/internal/domain"
	"weightduel/internal/meals"
	"weightduel/internal/reminder"
	"weightduel/internal/store"
	"weightduel/internal/supervisor"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send the reminder to every registered participant once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := setup()
		if err != nil {
			return err
		}
		defer rt.Close()
		ctx := commandContext(cmd)

		p, closer, err := openPersister(rt.cfg.Storage, rt.logger)
		if err != nil {
			return err
		}
		rt.onClose(closer)
		st, err := store.Open(ctx, p, rt.cfg.Roles, store.WithLocation(rt.loc), store.WithLogger(rt.logger))
		if err != nil {
			return err
		}
		sender, err := rt.sender()
		if err != nil {
			return err
		}

		report := reminder.NewBroadcaster(st, telegram.NewNotifier(sender), rt.cfg.Reminder.Text, rt.logger, nil).Fire(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "attempted %d, delivered %d, failed %d\n",
			report.Attempted, report.Delivered, len(report.Failed))
		if len(report.Failed) > 0 {
			return fmt.Errorf("%d deliveries failed", len(report.Failed))
		}
		return nil
	},
}

var menuDate string

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print the meal plan for a date (default today)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := setup()
		if err != nil {
			return err
		}
		defer rt.Close()

		src, err := meals.NewSource(meals.FilesIn(rt.cfg.MealsDir), meals.WithSourceLogger(rt.logger))
		if err != nil {
			return err
		}
		svc := app.NewMenuService(src, wallClock{loc: rt.loc})

		plan := svc.Today()
		if menuDate != "" {
			day, err := domain.ParseDay(menuDate)
			if err != nil {
				return err
			}
			t, _ := day.Time(rt.loc)
			plan = svc.For(t)
		}
		fmt.Fprintln(cmd.OutOrStdout(), telegram.RenderMenu(plan))
		return nil
	},
}

var superviseCmd = &cobra.Command{
	Use:   "supervise",
	Short: "Run serve in a child process and restart it when it crashes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := setup()
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		exe, err := os.Executable()
		if err != nil {
			return err
		}
		args := []string{"serve"}
		if configPath != "" {
			args = append(args, "--config", configPath)
		}

		opts := []supervisor.Option{
			supervisor.WithLogger(rt.logger),
			supervisor.WithBackoff(rt.cfg.Supervisor.MinBackoff, rt.cfg.Supervisor.MaxBackoff),
		}
		if rt.cfg.Supervisor.NotifyRole != "" {
			sender, err := rt.sender()
			if err != nil {
				return err
			}
			target := supervisor.DocumentTarget{
				Persister: onDemandPersister{cfg: rt.cfg.Storage, logger: rt.logger},
				RoleKey:   rt.cfg.Supervisor.NotifyRole,
			}
			opts = append(opts, supervisor.WithNotify(telegram.NewNotifier(sender), target))
		}

		child := supervisor.Command{Path: exe, Args: args, Stdout: os.Stdout, Stderr: os.Stderr}
		return supervisor.New(child, opts...).Run(ctx)
	},
}

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token [token]",
	Short: "Print the bcrypt hash to configure as http.api_token_hash",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string
		if len(args) == 1 {
			token = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read token: %w", err)
			}
			token = strings.TrimSpace(line)
		}
		if token == "" {
			return errors.New("token is empty")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(hash))
		return nil
	},
}

func init() {
	menuCmd.Flags().StringVar(&menuDate, "date", "", "date as YYYY-MM-DD")
	rootCmd.AddCommand(remindCmd, menuCmd, superviseCmd, hashTokenCmd)
}
