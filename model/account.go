package model

import "time"

// Account represents a user of the web service; submissions are attributed to it.
type Account struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	APIKey    string    `json:"-" gorm:"column:apikey;size:40;uniqueIndex;not null"`
	IsAdmin   bool      `json:"-" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (Account) TableName() string {
	return "account"
}

// Application is a client program identified by its API key.
type Application struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Version   string    `json:"version" gorm:"size:40"`
	APIKey    string    `json:"-" gorm:"column:apikey;size:40;uniqueIndex;not null"`
	AccountID int64     `json:"accountId" gorm:"index;not null"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (Application) TableName() string {
	return "application"
}
