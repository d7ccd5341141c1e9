package notify

import (
	"context"

	"auction-marketplace/pkg/logger"
)

// LogNotifier is the notification port adapter for deployments without
// a delivery channel: winner notifications land in the log.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyUser(ctx context.Context, userID string, message interface{}) error {
	n.log.Info("User notification", "user_id", userID, "message", message)
	return nil
}
