package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	// PrivateOnly rejects invocations from group chats.
	PrivateOnly bool
	Hidden      bool
	Aliases     []string
	// Middleware is applied innermost, after the access checks.
	Middleware []tele.MiddlewareFunc
}
