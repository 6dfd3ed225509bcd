package model

import "time"

type UserProfile struct {
	Id        string    `gorm:"type:varchar(255);primaryKey"`
	Username  string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
