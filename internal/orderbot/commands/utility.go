package commands

import (
	"fmt"
	"strings"

	tg "github.com/m3rciful/orderbot/core/telegram"
	"github.com/m3rciful/orderbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// WhoAmIHandler replies with the sender's identifiers.
func WhoAmIHandler(c tele.Context) error {
	user, chat := c.Sender(), c.Chat()
	if user == nil || chat == nil {
		return nil
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	username := "-"
	if user.Username != "" {
		username = "@" + user.Username
	}
	return helpers.SendText(c, fmt.Sprintf("Твой id: %d\nЧат: %d\nИмя: %s\nUsername: %s",
		user.ID, chat.ID, name, username))
}

// EchoHandler repeats the command payload.
func EchoHandler(c tele.Context) error {
	text := payload(c)
	if text == "" {
		return helpers.SendText(c, "Использование: /echo <текст>")
	}
	return helpers.SendText(c, text)
}

// HelpHandler lists the public commands of reg.
func HelpHandler(reg *tg.Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		var b strings.Builder
		b.WriteString("Команды:")
		for _, cmd := range reg.ListCommands(true) {
			fmt.Fprintf(&b, "\n/%s - %s", cmd.Text, cmd.Description)
		}
		return helpers.SendText(c, b.String())
	}
}
