package model

import (
	"time"

	"gorm.io/datatypes"
)

type Chatbot struct {
	Id        string         `gorm:"type:varchar(255);primaryKey"`
	UserId    string         `gorm:"type:varchar(255);not null;index"`
	Name      string         `gorm:"type:varchar(255);not null"`
	Settings  datatypes.JSON `gorm:"type:json"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`

	Sessions []ChatSession `gorm:"foreignKey:ChatbotId"`
}

func (Chatbot) TableName() string {
	return "chatbots"
}
