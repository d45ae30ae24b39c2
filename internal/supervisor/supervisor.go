// Package supervisor keeps the bot process running, restarting it with
// exponential backoff and telling a participant when it crashes.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"weightduel/internal/domain"
)

// CrashText is sent to the notify target after every crash.
const CrashText = "⚠️ Бот упал и перезапускается автоматически."

// Runner runs the supervised process once and reports its exit code. err is
// set only when the process could not be run at all.
type Runner interface {
	Run(ctx context.Context) (exitCode int, err error)
}

// Command runs an executable.
type Command struct {
	Path   string
	Args   []string
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts the command and waits for it.
func (c Command) Run(ctx context.Context) (int, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	err := cmd.Run()
	var ee *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &ee):
		return ee.ExitCode(), nil
	default:
		return -1, fmt.Errorf("run %s: %w", c.Path, err)
	}
}

// Target resolves who to tell about a crash.
type Target interface {
	Resolve(ctx context.Context) (domain.Identity, bool, error)
}

// DocumentTarget reads the identity bound to RoleKey from the persisted
// document without opening a store.
type DocumentTarget struct {
	Persister domain.DocumentPersister
	RoleKey   string
}

// Resolve loads the document and looks the role up.
func (t DocumentTarget) Resolve(ctx context.Context) (domain.Identity, bool, error) {
	doc, err := t.Persister.Load(ctx)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	b, ok := doc.Roles[t.RoleKey]
	if !ok || b.Identity == nil {
		return 0, false, nil
	}
	return *b.Identity, true, nil
}

// Supervisor restarts a Runner until it exits cleanly or ctx is cancelled.
type Supervisor struct {
	runner     Runner
	notifier   domain.Notifier
	target     Target
	minBackoff time.Duration
	maxBackoff time.Duration
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithBackoff sets the first delay and the cap.
func WithBackoff(first, limit time.Duration) Option {
	return func(s *Supervisor) {
		s.minBackoff = first
		s.maxBackoff = limit
	}
}

// WithNotify sets who is told about crashes.
func WithNotify(n domain.Notifier, t Target) Option {
	return func(s *Supervisor) {
		s.notifier = n
		s.target = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// WithSleep replaces the backoff wait.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Supervisor) { s.sleep = fn }
}

// New creates a Supervisor with 2s initial backoff capped at 60s.
func New(r Runner, opts ...Option) *Supervisor {
	s := &Supervisor{
		runner:     r,
		minBackoff: 2 * time.Second,
		maxBackoff: 60 * time.Second,
		logger:     slog.Default(),
		sleep:      sleepCtx,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run loops until the process exits with code 0 or ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	backoff := s.minBackoff
	for restarts := 0; ; restarts++ {
		s.logger.Info("starting supervised process", slog.Int("restarts", restarts))
		code, err := s.runner.Run(ctx)
		if ctx.Err() != nil {
			s.logger.Info("supervisor stopping")
			return nil
		}
		if err == nil && code == 0 {
			s.logger.Info("supervised process exited normally")
			return nil
		}

		attrs := []any{slog.Int("exit_code", code), slog.Duration("backoff", backoff)}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		s.logger.Error("supervised process crashed", attrs...)
		s.notifyCrash(ctx)

		if err := s.sleep(ctx, backoff); err != nil {
			return nil
		}
		backoff = min(s.maxBackoff, backoff*2)
	}
}

func (s *Supervisor) notifyCrash(ctx context.Context) {
	if s.notifier == nil || s.target == nil {
		return
	}
	id, ok, err := s.target.Resolve(ctx)
	if err != nil {
		s.logger.Warn("cannot resolve crash notify target", slog.String("error", err.Error()))
		return
	}
	if !ok {
		s.logger.Warn("crash notify target unknown, skip notify")
		return
	}
	if err := s.notifier.Notify(ctx, id, CrashText); err != nil {
		s.logger.Warn("crash notify failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("crash notify sent", slog.Int64("identity", int64(id)))
}
