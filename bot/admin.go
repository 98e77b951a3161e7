package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"

	"digital-menu/models"
	"digital-menu/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// adminOps is satisfied by *services.AdminService.
type adminOps interface {
	Items(ctx context.Context) ([]models.MenuItem, error)
	Categories(ctx context.Context) ([]models.Category, error)
	ToggleItem(ctx context.Context, id string) (bool, error)
}

type loginThrottle interface {
	Wait(ctx context.Context, subject string) (int, error)
	Failed(ctx context.Context, subject string) error
	Success(ctx context.Context, subject string) error
}

type dbThrottle struct{}

func (dbThrottle) Wait(ctx context.Context, subject string) (int, error) {
	return services.LoginThrottleWaitSeconds(ctx, subject)
}

func (dbThrottle) Failed(ctx context.Context, subject string) error {
	return services.RecordLoginFailed(ctx, subject)
}

func (dbThrottle) Success(ctx context.Context, subject string) error {
	return services.RecordLoginSuccess(ctx, subject)
}

// AdminBot lets staff flip item availability from Telegram (TOKEN). Users log in
// by sending the LOGIN password; wrong guesses are throttled.
type AdminBot struct {
	api      sender
	updates  func() tgbotapi.UpdatesChannel
	stop     func()
	login    string
	admin    adminOps
	throttle loginThrottle
	log      *zap.Logger

	mu       sync.RWMutex
	loggedIn map[int64]bool
	lastList map[int64][]models.MenuItem // per-user numbering used by /toggle N
}

func NewAdminBot(token, login string, admin adminOps, log *zap.Logger) (*AdminBot, error) {
	if token == "" {
		return nil, fmt.Errorf("TOKEN not set")
	}
	if strings.TrimSpace(login) == "" {
		return nil, fmt.Errorf("LOGIN not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	b := newAdminBot(api, login, admin, dbThrottle{}, log)
	b.updates = func() tgbotapi.UpdatesChannel {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		return api.GetUpdatesChan(u)
	}
	b.stop = api.StopReceivingUpdates
	return b, nil
}

func newAdminBot(api sender, login string, admin adminOps, throttle loginThrottle, log *zap.Logger) *AdminBot {
	return &AdminBot{
		api:      api,
		login:    strings.TrimSpace(login),
		admin:    admin,
		throttle: throttle,
		log:      log,
		loggedIn: make(map[int64]bool),
		lastList: make(map[int64][]models.MenuItem),
	}
}

// Start consumes updates until ctx is cancelled.
func (b *AdminBot) Start(ctx context.Context) {
	updates := b.updates()
	go func() {
		<-ctx.Done()
		b.stop()
	}()
	for update := range updates {
		if update.Message == nil || update.Message.From == nil {
			continue
		}
		b.handleMessage(ctx, update.Message.Chat.ID, update.Message.From.ID, update.Message.Text)
	}
}

func (b *AdminBot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("admin bot send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *AdminBot) isLoggedIn(userID int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loggedIn[userID]
}

func (b *AdminBot) setLoggedIn(userID int64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ok {
		b.loggedIn[userID] = true
		return
	}
	delete(b.loggedIn, userID)
	delete(b.lastList, userID)
}

func (b *AdminBot) handleMessage(ctx context.Context, chatID, userID int64, text string) {
	text = strings.TrimSpace(text)

	if !b.isLoggedIn(userID) {
		b.handleLogin(ctx, chatID, userID, text)
		return
	}

	cmd, arg, _ := strings.Cut(text, " ")
	switch cmd {
	case "/start", "/help":
		b.send(chatID, helpText)
	case "/items":
		b.handleItems(ctx, chatID, userID)
	case "/categories":
		b.handleCategories(ctx, chatID)
	case "/toggle":
		b.handleToggle(ctx, chatID, userID, strings.TrimSpace(arg))
	case "/logout":
		b.setLoggedIn(userID, false)
		b.send(chatID, "👋 Logged out.")
	default:
		b.send(chatID, helpText)
	}
}

const helpText = "/items – list menu items\n/toggle N – enable or disable item N from /items\n/categories – list categories\n/logout – log out"

func (b *AdminBot) handleLogin(ctx context.Context, chatID, userID int64, text string) {
	subject := services.TelegramSubject(userID)
	if wait, err := b.throttle.Wait(ctx, subject); err == nil && wait > 0 {
		b.send(chatID, fmt.Sprintf("⏳ Too many attempts. Try again in %d seconds.", wait))
		return
	}
	if text == "" || strings.HasPrefix(text, "/") {
		b.send(chatID, "🔒 Send the admin password to access the panel.")
		return
	}
	if text != b.login {
		if err := b.throttle.Failed(ctx, subject); err != nil {
			b.log.Warn("record bot login failure", zap.Error(err))
		}
		b.send(chatID, "❌ Wrong password.")
		return
	}
	if err := b.throttle.Success(ctx, subject); err != nil {
		b.log.Warn("record bot login success", zap.Error(err))
	}
	b.setLoggedIn(userID, true)
	b.log.Info("admin bot login", zap.Int64("tg_user_id", userID))
	b.send(chatID, "✅ Logged in.\n\n"+helpText)
}

func (b *AdminBot) handleItems(ctx context.Context, chatID, userID int64) {
	items, err := b.admin.Items(ctx)
	if err != nil {
		b.log.Error("admin bot list items", zap.Error(err))
		b.send(chatID, "⚠️ Could not load items.")
		return
	}
	b.mu.Lock()
	b.lastList[userID] = items
	b.mu.Unlock()
	for _, msg := range ItemsMessages(items) {
		b.send(chatID, msg)
	}
}

func (b *AdminBot) handleCategories(ctx context.Context, chatID int64) {
	cats, err := b.admin.Categories(ctx)
	if err != nil {
		b.log.Error("admin bot list categories", zap.Error(err))
		b.send(chatID, "⚠️ Could not load categories.")
		return
	}
	if len(cats) == 0 {
		b.send(chatID, "No categories yet.")
		return
	}
	var sb strings.Builder
	for _, c := range cats {
		fmt.Fprintf(&sb, "%d. %s\n", c.SortOrder, c.Name)
	}
	b.send(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *AdminBot) handleToggle(ctx context.Context, chatID, userID int64, arg string) {
	n, err := strconv.Atoi(arg)
	b.mu.RLock()
	list := b.lastList[userID]
	b.mu.RUnlock()
	if err != nil || n < 1 || n > len(list) {
		b.send(chatID, "Use /items first, then /toggle N with a number from the list.")
		return
	}
	item := list[n-1]
	available, err := b.admin.ToggleItem(ctx, item.ID)
	if err != nil {
		b.log.Error("admin bot toggle", zap.String("item_id", item.ID), zap.Error(err))
		b.send(chatID, "⚠️ Could not update the item.")
		return
	}
	b.mu.Lock()
	if n-1 < len(b.lastList[userID]) {
		b.lastList[userID][n-1].Available = available
	}
	b.mu.Unlock()
	state := "disabled"
	if available {
		state = "enabled"
	}
	b.send(chatID, fmt.Sprintf("%s is now %s.", item.Name, state))
}

// maxMessageLen is Telegram's limit on message text, in UTF-16 code units.
const maxMessageLen = 4096

// ItemsMessages numbers the items for /toggle and marks availability and veg.
// The list is split on line boundaries into messages Telegram accepts.
func ItemsMessages(items []models.MenuItem) []string {
	if len(items) == 0 {
		return []string{"No items yet."}
	}
	var (
		msgs []string
		sb   strings.Builder
		size int
	)
	for i, it := range items {
		line := truncateUTF16(itemLine(i+1, it), maxMessageLen)
		n := utf16Len(line)
		if sb.Len() > 0 && size+1+n > maxMessageLen {
			msgs = append(msgs, sb.String())
			sb.Reset()
			size = 0
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
			size++
		}
		sb.WriteString(line)
		size += n
	}
	return append(msgs, sb.String())
}

func itemLine(n int, it models.MenuItem) string {
	mark := "✅"
	if !it.Available {
		mark = "⛔"
	}
	veg := "🟢"
	if !it.Veg {
		veg = "🔴"
	}
	line := fmt.Sprintf("%d. %s %s %s", n, mark, veg, it.Name)
	if it.Price != nil {
		line += " – " + strconv.FormatFloat(*it.Price, 'f', -1, 64)
	}
	if it.EffectiveMinQty() > 1 {
		line += fmt.Sprintf(" (min %d)", it.EffectiveMinQty())
	}
	return line
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func truncateUTF16(s string, limit int) string {
	n := 0
	for i, r := range s {
		l := utf16.RuneLen(r)
		if n+l > limit {
			return s[:i]
		}
		n += l
	}
	return s
}
