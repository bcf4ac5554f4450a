package worker

import (
	"github.com/spec-kit/ticket-bridge/internal/service"
)

// StartNotificationWorker subscribes the notification service to every
// engine event so counters, logs and the outbound event feed stay current.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
