package model

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User 对应数据库中users表
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(255);not null;unique" json:"username"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"` // Hide password in json output
	Role      string    `gorm:"type:enum('USER', 'ADMIN');default:'USER'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// IsAdmin 判断用户是否拥有管理员声明
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// TableName 指定 GORM 使用的表名
func (User) TableName() string {
	return "users"
}
