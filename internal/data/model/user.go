package model

// User 用户表
type User struct {
	BaseModel
	Username     string  `gorm:"column:username;size:64;uniqueIndex;not null"`
	PasswordHash string  `gorm:"column:password_hash;size:128;not null"`
	Nickname     *string `gorm:"column:nickname;size:64"`
	IsAvailable  *bool   `gorm:"column:is_available;default:true"`
	// 角色与用户组随令牌声明下发，JSON 序列化存储
	Roles  []string `gorm:"column:roles;serializer:json"`
	Groups []string `gorm:"column:groups;serializer:json"`
}

func (User) TableName() string { return "users" }
