package model

import "time"

const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "wpp"
)

type User struct {
	ID        int
	Name      string
	Phone     string
	RegionID  string
	CreatedAt time.Time
}

type Subscription struct {
	ID           int64
	UserID       int
	ProjectID    string
	Channel      string
	Enabled      bool
	SubscribedAt time.Time
}

// UserSubscription is a subscription joined with its project row, as listed
// back to the subscriber.
type UserSubscription struct {
	Subscription
	ProjectName string
	Status      string
	Score       *int
	AlertColor  *string
}

// Subscriber is the delivery view the dispatcher resolves per audit event:
// an enabled subscription joined with the user's contact details.
type Subscriber struct {
	UserID  int
	Name    string
	Phone   string
	Channel string
}
