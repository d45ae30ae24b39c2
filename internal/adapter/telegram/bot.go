package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"weightduel/internal/app"
	"weightduel/internal/domain"
)

// Recorder counts handled updates by route.
type Recorder interface {
	RecordUpdate(kind string)
}

type nopRecorder struct{}

func (nopRecorder) RecordUpdate(string) {}

// Deps are the services the bot routes to.
type Deps struct {
	Weight       *app.WeightService
	Registration *app.RegistrationService
	Progress     *app.ProgressService
	Menu         *app.MenuService
	Logger       *slog.Logger
	Recorder     Recorder
}

// Bot routes chat updates to the application services.
type Bot struct {
	sender       *Sender
	weight       *app.WeightService
	registration *app.RegistrationService
	progress     *app.ProgressService
	menu         *app.MenuService
	logger       *slog.Logger
	recorder     Recorder
	conv         *conversations
}

// NewBot creates a Bot replying through sender.
func NewBot(sender *Sender, d Deps) *Bot {
	b := &Bot{
		sender:       sender,
		weight:       d.Weight,
		registration: d.Registration,
		progress:     d.Progress,
		menu:         d.Menu,
		logger:       d.Logger,
		recorder:     d.Recorder,
		conv:         newConversations(),
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.recorder == nil {
		b.recorder = nopRecorder{}
	}
	return b
}

// ErrUpdatesClosed is returned by Run when the update stream ends before ctx
// is cancelled.
var ErrUpdatesClosed = errors.New("telegram updates channel closed")

// Run long-polls for updates and handles them one at a time until ctx is
// cancelled.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.sender.api.GetUpdatesChan(cfg)
	defer b.sender.api.StopReceivingUpdates()

	b.logger.Info("bot polling started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot polling stopped")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return ErrUpdatesClosed
			}
			b.Handle(ctx, upd)
		}
	}
}

// Handle processes a single update.
func (b *Bot) Handle(ctx context.Context, upd tgbotapi.Update) {
	kind := "ignored"
	switch {
	case upd.CallbackQuery != nil:
		kind = b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.From != nil:
		kind = b.handleMessage(ctx, upd.Message)
	}
	b.recorder.RecordUpdate(kind)
	b.logger.Debug("update handled", slog.Int("update_id", upd.UpdateID), slog.String("kind", kind))
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.deliver(ctx, msg)
}

func (b *Bot) sendHTML(ctx context.Context, chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	b.deliver(ctx, msg)
}

func (b *Bot) deliver(ctx context.Context, c tgbotapi.Chattable) {
	if err := b.sender.Send(ctx, c); err != nil {
		b.logger.Warn("send failed", slog.String("error", err.Error()))
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) string {
	id := domain.Identity(m.From.ID)
	chat := m.Chat.ID

	if m.IsCommand() {
		switch m.Command() {
		case "start":
			b.start(ctx, id, chat)
			return "start"
		case "weight":
			b.weightCommand(ctx, id, chat, m.CommandArguments())
			return "weight_command"
		case "today", "menu":
			b.sendHTML(ctx, chat, RenderMenu(b.menu.Today()), nil)
			return "menu_today"
		case "tomorrow":
			b.sendHTML(ctx, chat, RenderMenu(b.menu.Tomorrow()), nil)
			return "menu_tomorrow"
		default:
			return "ignored"
		}
	}

	switch strings.TrimSpace(m.Text) {
	case ButtonAddWeight:
		if b.requireRegistration(ctx, id, chat) {
			b.conv.set(id, conversation{mode: modeAwaitingWeight})
			b.send(ctx, chat, msgAskWeight, nil)
		}
		return "add_weight"
	case ButtonResults:
		if b.requireRegistration(ctx, id, chat) {
			b.sendHTML(ctx, chat, RenderSummary(b.progress.ChallengeStart(), b.progress.Summary()), nil)
		}
		return "results"
	case ButtonEdit:
		b.editMenu(ctx, id, chat)
		return "edit_menu"
	case ButtonMenu:
		b.sendHTML(ctx, chat, RenderMenu(b.menu.Today()), nil)
		return "menu_today"
	}

	switch conv := b.conv.get(id); conv.mode {
	case modeAwaitingWeight:
		b.weightInput(ctx, id, chat, m.Text)
		return "weight_input"
	case modeAwaitingCorrection:
		b.applyCorrection(ctx, id, chat, conv.entryID, m.Text)
		return "edit_apply"
	}
	return "ignored"
}

func (b *Bot) requireRegistration(ctx context.Context, id domain.Identity, chat int64) bool {
	if _, ok := b.registration.Whoami(id); ok {
		return true
	}
	b.send(ctx, chat, msgNeedRegistration, nil)
	return false
}

func (b *Bot) start(ctx context.Context, id domain.Identity, chat int64) {
	b.conv.clear(id)
	if binding, ok := b.registration.Whoami(id); ok {
		b.send(ctx, chat, greeting(binding.DisplayName), mainMenuKeyboard())
		return
	}
	open := b.registration.Open()
	if len(open) == 0 {
		b.send(ctx, chat, msgNoOpenRoles, nil)
		return
	}
	b.send(ctx, chat, msgGreetingNew, registrationKeyboard(open))
}

func (b *Bot) weightCommand(ctx context.Context, id domain.Identity, chat int64, args string) {
	if !b.requireRegistration(ctx, id, chat) {
		return
	}
	if strings.TrimSpace(args) == "" {
		b.send(ctx, chat, msgWeightUsage, nil)
		return
	}
	b.record(ctx, id, chat, args)
}

func (b *Bot) weightInput(ctx context.Context, id domain.Identity, chat int64, text string) {
	b.record(ctx, id, chat, text)
}

// record stores today's weight. A prompt stays open after a rejected value
// so the user can try again.
func (b *Bot) record(ctx context.Context, id domain.Identity, chat int64, text string) {
	v, err := domain.ParseWeight(text)
	if err != nil {
		b.send(ctx, chat, msgBadNumber, nil)
		return
	}
	if _, err := b.weight.RecordToday(ctx, id, v); err != nil {
		b.logFailure("record weight", id, err)
		b.send(ctx, chat, weightErrorText(err), nil)
		return
	}
	b.conv.clear(id)
	b.send(ctx, chat, msgRecorded, mainMenuKeyboard())
}

func (b *Bot) editMenu(ctx context.Context, id domain.Identity, chat int64) {
	entries, err := b.weight.Recent(id, app.RecentLimit)
	if err != nil {
		b.send(ctx, chat, weightErrorText(err), nil)
		return
	}
	if len(entries) == 0 {
		b.send(ctx, chat, msgNoEntries, nil)
		return
	}
	b.send(ctx, chat, msgPickEntry, editKeyboard(entries))
}

func (b *Bot) applyCorrection(ctx context.Context, id domain.Identity, chat int64, entryID int64, text string) {
	v, err := domain.ParseWeight(text)
	if err != nil {
		b.send(ctx, chat, msgBadNumber, nil)
		return
	}
	if _, err := b.weight.Correct(ctx, id, entryID, v); err != nil {
		b.logFailure("correct weight", id, err)
		if domain.KindOf(err) != domain.KindValidation {
			b.conv.clear(id)
		}
		b.send(ctx, chat, weightErrorText(err), nil)
		return
	}
	b.conv.clear(id)
	b.send(ctx, chat, msgCorrected, mainMenuKeyboard())
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) string {
	if err := b.sender.Request(ctx, tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.logger.Warn("answer callback failed", slog.String("error", err.Error()))
	}
	if q.From == nil || q.Message == nil {
		return "ignored"
	}
	id := domain.Identity(q.From.ID)
	chat := q.Message.Chat.ID

	switch {
	case strings.HasPrefix(q.Data, prefixRegister):
		b.register(ctx, id, chat, q.Message.MessageID, strings.TrimPrefix(q.Data, prefixRegister))
		return "register"
	case strings.HasPrefix(q.Data, prefixEditPick):
		entryID, err := strconv.ParseInt(strings.TrimPrefix(q.Data, prefixEditPick), 10, 64)
		if err != nil {
			return "ignored"
		}
		if !b.requireRegistration(ctx, id, chat) {
			return "edit_pick"
		}
		b.conv.set(id, conversation{mode: modeAwaitingCorrection, entryID: entryID})
		b.send(ctx, chat, msgAskCorrection, nil)
		return "edit_pick"
	}
	return "ignored"
}

func (b *Bot) register(ctx context.Context, id domain.Identity, chat int64, messageID int, roleKey string) {
	name, err := b.registration.Register(ctx, roleKey, id)
	if err != nil {
		b.logFailure("register", id, err)
		b.send(ctx, chat, b.registrationErrorText(id, roleKey, err), nil)
		return
	}
	b.conv.clear(id)
	b.deliver(ctx, tgbotapi.NewEditMessageText(chat, messageID, registered(name)))
	b.send(ctx, chat, msgMainMenu, mainMenuKeyboard())
}

func (b *Bot) registrationErrorText(id domain.Identity, roleKey string, err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownRole):
		return msgUnknownRole
	case errors.Is(err, domain.ErrRoleTaken):
		for _, r := range b.registration.Roles() {
			if r.RoleKey == roleKey {
				return roleTaken(r.DisplayName)
			}
		}
		return roleTaken(roleKey)
	case errors.Is(err, domain.ErrAlreadyRegistered):
		binding, _ := b.registration.Whoami(id)
		return alreadyRegistered(binding.DisplayName)
	case domain.KindOf(err) == domain.KindPersistence:
		return msgPersistenceFailed
	default:
		return msgUnexpected
	}
}

func (b *Bot) logFailure(op string, id domain.Identity, err error) {
	level := slog.LevelInfo
	if domain.KindOf(err) == domain.KindPersistence {
		level = slog.LevelError
	}
	b.logger.Log(context.Background(), level, op+" rejected",
		slog.Int64("identity", int64(id)),
		slog.String("kind", domain.KindOf(err).String()),
		slog.String("error", err.Error()))
}
