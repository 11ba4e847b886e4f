package worker

import "github.com/spec-kit/bugtrack-service/internal/service"

// StartNotificationWorker hooks the notification handlers onto the event
// dispatcher. Delivery is synchronous with publication; there is no queue.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
