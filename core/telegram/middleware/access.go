package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only the admin user can invoke downstream handlers.
// A zero AdminID rejects everyone.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if user := c.Sender(); opts.AdminID == 0 || user == nil || user.ID != opts.AdminID {
				return reject(c, opts.OnReject)
			}
			return next(c)
		}
	}
}

// PrivateOnlyMiddleware drops invocations that do not come from a private chat.
func PrivateOnlyMiddleware(onReject tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if chat := c.Chat(); chat == nil || chat.Type != tele.ChatPrivate {
				return reject(c, onReject)
			}
			return next(c)
		}
	}
}

func reject(c tele.Context, h tele.HandlerFunc) error {
	if h != nil {
		return h(c)
	}
	return nil
}
