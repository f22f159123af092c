package commands

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// CronUpdates turns command lines into private messages from adminID so they
// can be replayed through the regular handler chain.
func CronUpdates(lines []string, adminID int64, now time.Time) []tele.Update {
	admin := &tele.User{ID: adminID}
	chat := &tele.Chat{ID: adminID, Type: tele.ChatPrivate}
	updates := make([]tele.Update, 0, len(lines))
	for i, line := range lines {
		updates = append(updates, tele.Update{
			ID: i + 1,
			Message: &tele.Message{
				ID:       i + 1,
				Sender:   admin,
				Chat:     chat,
				Text:     line,
				Unixtime: now.Unix(),
			},
		})
	}
	return updates
}
