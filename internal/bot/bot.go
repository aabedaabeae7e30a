package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"asteritime/internal/auth"
	"asteritime/internal/model"
	"asteritime/internal/service"
)

const (
	cbStartPrefix = "start:"
	cbDonePrefix  = "done:"
)

// sender is the part of the Telegram client the bot writes through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps groups the services the bot talks to.
type Deps struct {
	Users     *service.UserService
	Tasks     *service.TaskService
	Journal   *service.JournalService
	Reminders *service.ReminderService
	Tokens    *auth.TokenManager
	Revoker   auth.Revoker
	Logger    *zap.Logger
	Location  *time.Location
}

// Bot delivers daily summaries to linked chats and answers a few commands.
// A chat is linked to an account with /link <token>; logged-out tokens are
// refused.
type Bot struct {
	client    *tgbotapi.BotAPI
	api       sender
	users     *service.UserService
	tasks     *service.TaskService
	journal   *service.JournalService
	reminders *service.ReminderService
	tokens    *auth.TokenManager
	revoker   auth.Revoker
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

func New(token string, deps Deps) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	deps.Logger.Info("bot authorized", zap.String("account", client.Self.UserName))

	b := newBot(client, deps)
	b.client = client
	return b, nil
}

func newBot(api sender, deps Deps) *Bot {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		api:       api,
		users:     deps.Users,
		tasks:     deps.Tasks,
		journal:   deps.Journal,
		reminders: deps.Reminders,
		tokens:    deps.Tokens,
		revoker:   deps.Revoker,
		logger:    deps.Logger,
		loc:       loc,
		now:       time.Now,
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot has no telegram client")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.client.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.logger.Warn("handle callback", zap.Error(err))
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.logger.Warn("handle message", zap.Error(err))
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "I only understand commands. See /help.")
	}

	b.logger.Debug("command",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.String("command", msg.Command()),
	)
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "link":
		return b.handleLink(ctx, msg)
	case "unlink":
		return b.handleUnlink(ctx, msg)
	case "today":
		return b.handleToday(ctx, msg)
	case "tasks":
		return b.handleTasks(ctx, msg)
	case "focus":
		return b.handleFocus(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I send your AsteriTime day summary.</b>\n\n"+
			"Your chat id is <code>%d</code>.\n"+
			"Link this chat with /link &lt;token&gt; using the token you get on login.",
		escape(name), msg.Chat.ID,
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /link &lt;token&gt; — link this chat to your account\n" +
		"• /unlink — stop receiving summaries here\n" +
		"• /today — today's summary\n" +
		"• /tasks — tasks in progress and to do\n" +
		"• /focus &lt;minutes&gt; — log focus time for today"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) error {
	raw := strings.TrimSpace(msg.CommandArguments())
	if raw == "" {
		return b.sendText(msg.Chat.ID, "Send the token you got on login: /link &lt;token&gt;")
	}
	claims, err := b.tokens.Parse(raw)
	if err != nil {
		return b.sendText(msg.Chat.ID, "This token is invalid or expired.")
	}
	revoked, err := b.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	if revoked {
		return b.sendText(msg.Chat.ID, "This token was logged out. Log in again and send the new token.")
	}

	chatID := msg.Chat.ID
	user, err := b.users.LinkTelegram(ctx, claims.UserID, &chatID)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	b.logger.Info("telegram chat linked", zap.Uint("user_id", user.ID), zap.Int64("chat_id", chatID))
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Linked to <b>%s</b>. Daily summaries will arrive here.", escape(user.Username)))
}

func (b *Bot) handleUnlink(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID)
	if !ok {
		return err
	}
	if _, err := b.users.LinkTelegram(ctx, user.ID, nil); err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	b.logger.Info("telegram chat unlinked", zap.Uint("user_id", user.ID))
	return b.sendText(msg.Chat.ID, "This chat is no longer linked.")
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID)
	if !ok {
		return err
	}
	text, err := b.reminders.DailySummary(ctx, *user, b.now().In(b.loc))
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleFocus(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID)
	if !ok {
		return err
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
	if err != nil || minutes <= 0 {
		return b.sendText(msg.Chat.ID, "Give a positive number of minutes, for example /focus 25")
	}

	today := b.now().In(b.loc)
	if _, err := b.journal.AddFocusMinutes(ctx, user.ID, today, minutes); err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	total, err := b.journal.TotalFocusMinutes(ctx, user.ID, today)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("⏱ +%d min. Focus today: <b>%d min</b>.", minutes, total))
}

// SendDailyReports sends a summary to every linked chat.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.users.WithTelegram(ctx)
	if err != nil {
		return err
	}
	now := b.now().In(b.loc)
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if user.TelegramChatID == nil {
			continue
		}
		text, err := b.reminders.DailySummary(ctx, user, now)
		if err != nil {
			b.logger.Warn("build summary", zap.Uint("user_id", user.ID), zap.Error(err))
			continue
		}
		if err := b.sendText(*user.TelegramChatID, text); err != nil {
			b.logger.Warn("send summary", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

// linkedUser resolves the account of a chat. When ok is false the chat has
// already been answered and err is the result of that reply.
func (b *Bot) linkedUser(ctx context.Context, chatID int64) (*model.User, bool, error) {
	user, err := b.users.ByTelegramChat(ctx, chatID)
	if err == nil {
		return user, true, nil
	}
	if errors.Is(err, service.ErrNotFound) {
		return nil, false, b.sendText(chatID, "This chat is not linked yet. Use /link &lt;token&gt;.")
	}
	return nil, false, b.sendError(chatID, err)
}

func (b *Bot) sendError(chatID int64, err error) error {
	var text string
	switch {
	case errors.Is(err, service.ErrNotFound):
		text = "Not found or already deleted."
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidState):
		text = fmt.Sprintf("Not allowed: %s", escape(err.Error()))
	case errors.Is(err, service.ErrConflict):
		text = "Someone changed this at the same time, try again."
	default:
		b.logger.Error("bot request failed", zap.Int64("chat_id", chatID), zap.Error(err))
		text = "Something went wrong, try again later."
	}
	return b.sendText(chatID, text)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func escape(s string) string {
	return html.EscapeString(s)
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
