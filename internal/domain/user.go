package domain

import "time"

// User is a community member, created lazily on first interaction.
type User struct {
	ID          int64
	TelegramID  int64
	DisplayName string
	ProfileUID  string
	Crystals    int64
	LastBonusAt *time.Time
	CreatedAt   time.Time
}
