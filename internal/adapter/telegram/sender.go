// Package telegram is the chat adapter: it routes bot updates to the
// application services and delivers outbound messages.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"weightduel/internal/domain"
)

// API is the part of *tgbotapi.BotAPI the adapter uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ API = (*tgbotapi.BotAPI)(nil)

// Sender serializes outbound calls through a token bucket so bursts of
// replies and broadcasts stay under the Bot API flood limits.
type Sender struct {
	api     API
	limiter *rate.Limiter
}

// NewSender creates a Sender allowing perSecond messages with the given
// burst.
func NewSender(api API, perSecond float64, burst int) *Sender {
	if burst < 1 {
		burst = 1
	}
	return &Sender{api: api, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Send waits for the limiter and sends c.
func (s *Sender) Send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := s.api.Send(c)
	return err
}

// Request waits for the limiter and performs a request that returns no
// message, such as a callback answer.
func (s *Sender) Request(ctx context.Context, c tgbotapi.Chattable) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := s.api.Request(c)
	return err
}

// Notifier delivers plain text to an identity's private chat.
type Notifier struct {
	sender *Sender
}

// NewNotifier creates a Notifier over sender.
func NewNotifier(sender *Sender) *Notifier {
	return &Notifier{sender: sender}
}

var _ domain.Notifier = (*Notifier)(nil)

// Notify sends text to the private chat of to.
func (n *Notifier) Notify(ctx context.Context, to domain.Identity, text string) error {
	if err := n.sender.Send(ctx, tgbotapi.NewMessage(int64(to), text)); err != nil {
		return fmt.Errorf("notify %d: %w", to, err)
	}
	return nil
}
