// file: models/challenge.go
package models

import (
	"time"
)

// Challenge 题目基础信息。平台的判题、计分等逻辑不在本服务范围内，
// 这里只保留管理端列表与 VM 开关所需的字段。
type Challenge struct {
	ID            uint32 `gorm:"primarykey"`
	ChallengeName string `gorm:"size:100;unique;not null"`
	Category      string `gorm:"size:50"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Challenge) TableName() string {
	return "ctfvm_challenge"
}
