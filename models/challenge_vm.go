// file: models/challenge_vm.go
package models

// ChallengeVM 标记表：存在记录即表示该题目在前端展示 VM 入口。
// VM 本身是按用户分配的，与具体题目无关。
type ChallengeVM struct {
	ID          uint32 `gorm:"primarykey"`
	ChallengeID uint32 `gorm:"unique;not null"`
}

func (ChallengeVM) TableName() string {
	return "ctfvm_challenge_vm"
}
