package commands

import (
	tg "github.com/m3rciful/orderbot/core/telegram"
	corecommands "github.com/m3rciful/orderbot/core/telegram/commands"
	"github.com/m3rciful/orderbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Deps are the collaborators of the bot commands.
type Deps struct {
	Dialogs  Dialogs
	Username string
}

// Register adds the bot commands, the inline handler and the menu fallback to reg.
func Register(reg *tg.Registry, deps Deps) {
	reg.RegisterCommand("/start", corecommands.Command{
		Handler:     StartHandler(deps.Dialogs),
		Description: "Главное меню",
		PrivateOnly: true,
	})
	reg.RegisterCommand("/order", corecommands.Command{
		Handler:     OrderHandler(deps.Dialogs),
		Description: "Заказать технику",
		PrivateOnly: true,
	})
	reg.RegisterCommand("/cancel", corecommands.Command{
		Handler:     CancelHandler(deps.Dialogs),
		Description: "Отменить заказ",
		Middleware:  []tele.MiddlewareFunc{middleware.DialogRequired(deps.Dialogs, NothingToCancel)},
	})
	reg.RegisterCommand("/help", corecommands.Command{
		Handler:     HelpHandler(reg),
		Description: "Список команд",
	})
	reg.RegisterCommand("/whoami", corecommands.Command{
		Handler:     WhoAmIHandler,
		Description: "Показать мой id",
		Hidden:      true,
	})
	reg.RegisterCommand("/echo", corecommands.Command{
		Handler:     EchoHandler,
		Description: "Повторить текст",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.SetInlineHandler(InlineHandler(deps.Username))
	reg.SetTextFallback(MenuFallback(deps.Dialogs))
}
