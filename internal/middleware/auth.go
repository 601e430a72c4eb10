package middleware

import (
	"context"

	"supportbot/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// EnsureUser creates the sender's user record before the update is handled.
// A database failure is logged and the update is still handled.
func EnsureUser(authService *service.AuthService, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return next(c)
			}

			if err := authService.EnsureUserExists(context.Background(), sender.ID); err != nil {
				logger.Error("Failed to ensure user exists in middleware",
					zap.Int64("user_id", sender.ID),
					zap.Error(err),
				)
			}
			return next(c)
		}
	}
}

// AdminOnly drops updates from anyone who is not a configured admin
func AdminOnly(authService *service.AuthService, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil || !authService.IsAdmin(sender.ID) {
				var userID int64
				if sender != nil {
					userID = sender.ID
				}
				logger.Warn("Rejected admin action from non-admin",
					zap.Int64("user_id", userID),
					zap.String("text", c.Text()),
				)
				if c.Callback() != nil {
					return c.Respond()
				}
				return nil
			}
			return next(c)
		}
	}
}
