package enums

import "fmt"

// NotificationType classifies in-app notification records.
type NotificationType string

const (
	NotificationListingPaid      NotificationType = "listing_paid"
	NotificationListingFailed    NotificationType = "listing_payment_failed"
	NotificationBusinessApproved NotificationType = "business_approved"
	NotificationBusinessRejected NotificationType = "business_rejected"
	NotificationNewReview        NotificationType = "new_review"
	NotificationNewFollower      NotificationType = "new_follower"
)

var notificationTypeSet = map[NotificationType]struct{}{
	NotificationListingPaid:      {},
	NotificationListingFailed:    {},
	NotificationBusinessApproved: {},
	NotificationBusinessRejected: {},
	NotificationNewReview:        {},
	NotificationNewFollower:      {},
}

func (n NotificationType) IsValid() bool {
	_, ok := notificationTypeSet[n]
	return ok
}

func ParseNotificationType(value string) (NotificationType, error) {
	t := NotificationType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown notification type %q", value)
	}
	return t, nil
}
