package model

import "time"

const (
	NotificationTypeSystemAlert = "system_alert"

	NotificationPriorityLow    = "low"
	NotificationPriorityMedium = "medium"
	NotificationPriorityHigh   = "high"
)

type Notification struct {
	UUID      string    `db:"uuid" json:"uuid"`
	UserUUID  string    `db:"user_uuid" json:"userUuid"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Priority  string    `db:"priority" json:"priority"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
