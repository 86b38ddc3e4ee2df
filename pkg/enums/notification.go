package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeAwardWon      NotificationType = "award_won"
	NotificationTypeAwardLost     NotificationType = "award_lost"
	NotificationTypeAwardReplaced NotificationType = "award_replaced"
	NotificationTypeBidReceived   NotificationType = "bid_received"
	NotificationTypeAuctionClosed NotificationType = "auction_closed"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeAwardWon,
	NotificationTypeAwardLost,
	NotificationTypeAwardReplaced,
	NotificationTypeBidReceived,
	NotificationTypeAuctionClosed,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
