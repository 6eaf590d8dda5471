// file: services/vm_store.go
package services

import (
	"errors"
	"time"

	"CTFVM/models"

	"gorm.io/gorm"
)

// VMStore 封装 VM、全局配置与题目开关的数据库读写
type VMStore struct {
	db *gorm.DB
}

func NewVMStore(db *gorm.DB) *VMStore {
	return &VMStore{db: db}
}

func (s *VMStore) ByUser(userID uint32) (*models.VM, error) {
	var vm models.VM
	if err := s.db.Where("user_id = ?", userID).First(&vm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVMNotFound
		}
		return nil, err
	}
	return &vm, nil
}

func (s *VMStore) ByID(id uint32) (*models.VM, error) {
	var vm models.VM
	if err := s.db.First(&vm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVMNotFound
		}
		return nil, err
	}
	return &vm, nil
}

// Create 插入 VM 记录。user_id 上的唯一索引是"每用户一台"的最终仲裁，
// 冲突即视为已存在，先查后插的竞态由这里兜底。
func (s *VMStore) Create(vm *models.VM) error {
	if err := s.db.Create(vm).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrVMExists
		}
		return err
	}
	return nil
}

func (s *VMStore) Save(vm *models.VM) error {
	return s.db.Save(vm).Error
}

// Delete 删除记录。记录不存在视为成功：reaper 与管理员删除可能并发竞争同一行
func (s *VMStore) Delete(id uint32) error {
	return s.db.Delete(&models.VM{}, id).Error
}

func (s *VMStore) ListManaged() ([]models.VM, error) {
	var vms []models.VM
	err := s.db.Where("managed = ?", true).Order("id").Find(&vms).Error
	return vms, err
}

// ListExpired 找出所有到期且由本系统托管的 VM
func (s *VMStore) ListExpired(now time.Time) ([]models.VM, error) {
	var vms []models.VM
	err := s.db.Where("managed = ? AND expires_at <= ?", true, now).Order("id").Find(&vms).Error
	return vms, err
}

func (s *VMStore) UserName(userID uint32) string {
	var user models.User
	if err := s.db.Select("username").First(&user, userID).Error; err != nil {
		return "Unknown"
	}
	return user.Username
}

// LoadConfig 读取全局配置单行，不存在即未配置
func (s *VMStore) LoadConfig() (*models.GlobalConfig, error) {
	var cfg models.GlobalConfig
	if err := s.db.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotConfigured
		}
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig 写入全局配置并保持单行
func (s *VMStore) SaveConfig(templateID uint32, name string, hours uint) error {
	var cfg models.GlobalConfig
	if err := s.db.First(&cfg).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	cfg.TemplateID = templateID
	cfg.TemplateName = name
	cfg.MaxDurationHours = hours
	return s.db.Save(&cfg).Error
}

func (s *VMStore) ListChallenges() ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := s.db.Order("id").Find(&challenges).Error
	return challenges, err
}

// VMEnabledChallengeIDs 返回开启了 VM 入口的题目 ID 集合
func (s *VMStore) VMEnabledChallengeIDs() (map[uint32]bool, error) {
	var flags []models.ChallengeVM
	if err := s.db.Find(&flags).Error; err != nil {
		return nil, err
	}
	set := make(map[uint32]bool, len(flags))
	for _, f := range flags {
		set[f.ChallengeID] = true
	}
	return set, nil
}

// SetChallengeVM 开关题目的 VM 入口，返回状态是否发生了变化
func (s *VMStore) SetChallengeVM(challengeID uint32, enabled bool) (bool, error) {
	var existing models.ChallengeVM
	err := s.db.Where("challenge_id = ?", challengeID).First(&existing).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	switch {
	case enabled && !found:
		if err := s.db.Create(&models.ChallengeVM{ChallengeID: challengeID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	case !enabled && found:
		if err := s.db.Delete(&existing).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}
