package commands

import (
	"strings"

	"github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

const (
	helpQuery      = "help"
	helpArticleID  = "001"
	inlineCacheSec = 300
)

// HelpArticle is the instruction a user can forward to a colleague.
func HelpArticle(username string) ui.Article {
	mention := ""
	if username = strings.TrimPrefix(strings.TrimSpace(username), "@"); username != "" {
		mention = "@" + username
	}
	return ui.Article{
		ID:          helpArticleID,
		Title:       "Отправь меня",
		Description: "Нажми, и ему придёт инструкция",
		Text: " " + mention + "\n" +
			"Выбери что тебе нужно и ответь на необходимые вопросы\n" +
			"После всех шагов проверь и подтверди, всё просто",
	}
}

// InlineHandler answers the "help" query with HelpArticle and everything
// else with an empty result list.
func InlineHandler(username string) tele.HandlerFunc {
	return func(c tele.Context) error {
		q := c.Query()
		if q == nil {
			return nil
		}
		if strings.TrimSpace(q.Text) != helpQuery {
			return helpers.Answer(c, ui.ArticleResponse(inlineCacheSec))
		}
		return helpers.Answer(c, ui.ArticleResponse(inlineCacheSec, HelpArticle(username)))
	}
}
