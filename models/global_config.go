// file: models/global_config.go
package models

// GlobalConfig VM 全局配置，仅维护一行：克隆源模板与默认可用时长。
// 这一行不存在时系统视为未配置，所有创建请求都会被拒绝。
type GlobalConfig struct {
	ID               uint32 `gorm:"primarykey"`
	TemplateID       uint32 `gorm:"not null"`
	TemplateName     string `gorm:"size:100;default:'CTF VM'"`
	MaxDurationHours uint   `gorm:"default:4"`
}

func (GlobalConfig) TableName() string {
	return "ctfvm_global_config"
}
