package commands

import (
	"strings"

	"github.com/m3rciful/orderbot/core/dialog"
	"github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/core/telegram/keyboard"
	"github.com/m3rciful/orderbot/internal/orderbot/order"

	tele "gopkg.in/telebot.v4"
)

// Start menu entries.
const (
	MenuOrder         = "Заказать технику"
	MenuBroken        = "Не работает: (интернет, ПК, стул, стол, наушники и т.д)"
	MenuAccess        = "Нужен доступ к (впн, жира, еще что нить куда нужен доступ)"
	MenuAdminHelp     = "Нужна помощь админов (отедл ИТ)"
	MenuInfinity      = "Беда с инфинити"
	MenuLeave         = "Увольняюсь"
	GreetingText      = "Привет, я бот!\nЧем я могу тебе помочь?\nВсе команды /help"
	InDevelopmentText = "Функция в разработке"
)

var menuRows = [][]string{
	{MenuOrder, MenuBroken},
	{MenuAccess, MenuAdminHelp},
	{MenuInfinity, MenuLeave},
}

// MenuKeyboard is the persistent start menu: full size, hidden after use,
// shown to everyone in the chat.
func MenuKeyboard() *dialog.Keyboard {
	return &dialog.Keyboard{Rows: menuRows, OneTime: true}
}

// IsMenuItem reports whether text is one of the start menu entries.
func IsMenuItem(text string) bool {
	return MenuKeyboard().Contains(strings.TrimSpace(text))
}

// Dialogs is what the bot commands need from the dialog manager.
type Dialogs interface {
	Active(c tele.Context) (string, bool)
	Start(c tele.Context, name, text string) error
	Cancel(c tele.Context) (bool, error)
}

// chooseMenu answers a start menu selection. Unknown text gets the greeting.
func chooseMenu(c tele.Context, dialogs Dialogs, text string) error {
	switch strings.TrimSpace(text) {
	case MenuOrder:
		if !isPrivate(c) {
			return PrivateOnlyReply(c)
		}
		return dialogs.Start(c, order.Name, "")
	case MenuBroken, MenuAccess, MenuAdminHelp, MenuInfinity, MenuLeave:
		return helpers.SendText(c, InDevelopmentText, keyboard.Reply(MenuKeyboard()))
	}
	return helpers.SendText(c, GreetingText, keyboard.Reply(MenuKeyboard()))
}

// StartHandler greets the user with the request menu. A menu entry passed as
// the command payload is handled as if it was pressed.
func StartHandler(dialogs Dialogs) tele.HandlerFunc {
	return func(c tele.Context) error {
		return chooseMenu(c, dialogs, payload(c))
	}
}

// MenuFallback handles presses of the start menu outside of a dialog.
// Other text is ignored.
func MenuFallback(dialogs Dialogs) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !IsMenuItem(c.Text()) {
			return nil
		}
		return chooseMenu(c, dialogs, c.Text())
	}
}

func isPrivate(c tele.Context) bool {
	chat := c.Chat()
	return chat != nil && chat.Type == tele.ChatPrivate
}

func payload(c tele.Context) string {
	if msg := c.Message(); msg != nil {
		return strings.TrimSpace(msg.Payload)
	}
	return ""
}
