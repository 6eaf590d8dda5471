// file: models/vm.go
package models

import (
	"fmt"
	"time"
)

type VMStatus string

const (
	VMStatusCreating VMStatus = "creating"
	VMStatusRunning  VMStatus = "running"
	VMStatusStopped  VMStatus = "stopped"
	VMStatusError    VMStatus = "error"
)

// NormalizeStatus 将 Proxmox 上报的状态归一化为本地枚举，未知状态一律按 error 处理
func NormalizeStatus(remote string) VMStatus {
	switch remote {
	case "running":
		return VMStatusRunning
	case "stopped":
		return VMStatusStopped
	default:
		return VMStatusError
	}
}

// VM 对应 ctfvm_instance 表，每个用户至多一台（user_id 唯一索引兜底）
type VM struct {
	ID          uint32   `gorm:"primarykey"`
	UserID      uint32   `gorm:"unique;not null"`
	ProxmoxVMID uint32   `gorm:"unique;not null"`
	VMName      string   `gorm:"size:100"`
	VMIP        string   `gorm:"size:45"`
	Status      VMStatus `gorm:"size:20;default:'creating'"`
	CreatedAt   time.Time
	LastStarted *time.Time
	ExpiresAt   time.Time `gorm:"not null"`
	Managed     bool      `gorm:"default:true"`
}

func (VM) TableName() string {
	return "ctfvm_instance"
}

// RemainingSeconds 剩余可用秒数，到期后恒为 0
func (v *VM) RemainingSeconds() int64 {
	remaining := time.Until(v.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return int64(remaining.Seconds())
}

func (v *VM) RemainingFormatted() string {
	seconds := v.RemainingSeconds()
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}

// Expired 判断是否已过期
func (v *VM) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
