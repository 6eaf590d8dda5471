// file: services/vm_store_test.go
package services

import (
	"errors"
	"testing"
	"time"

	"CTFVM/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Challenge{},
		&models.GlobalConfig{},
		&models.ChallengeVM{},
		&models.VM{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreateEnforcesPerUserUniqueness(t *testing.T) {
	store := NewVMStore(testDB(t))
	expires := time.Now().Add(4 * time.Hour)

	first := &models.VM{UserID: 7, ProxmoxVMID: 501, VMName: "ctf-u7", Status: models.VMStatusCreating, ExpiresAt: expires, Managed: true}
	if err := store.Create(first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	second := &models.VM{UserID: 7, ProxmoxVMID: 502, VMName: "ctf-u7", Status: models.VMStatusCreating, ExpiresAt: expires, Managed: true}
	if err := store.Create(second); !errors.Is(err, ErrVMExists) {
		t.Fatalf("second create error = %v, want ErrVMExists", err)
	}

	var count int64
	store.db.Model(&models.VM{}).Count(&count)
	if count != 1 {
		t.Errorf("vm rows = %d, want 1", count)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store := NewVMStore(testDB(t))
	if err := store.Delete(9999); err != nil {
		t.Fatalf("delete of missing row returned error: %v", err)
	}
}

func TestListExpired(t *testing.T) {
	store := NewVMStore(testDB(t))
	now := time.Now()

	rows := []models.VM{
		{UserID: 1, ProxmoxVMID: 601, Status: models.VMStatusRunning, ExpiresAt: now.Add(-time.Second), Managed: true},
		{UserID: 2, ProxmoxVMID: 602, Status: models.VMStatusRunning, ExpiresAt: now.Add(time.Hour), Managed: true},
		{UserID: 3, ProxmoxVMID: 603, Status: models.VMStatusRunning, ExpiresAt: now.Add(-time.Hour), Managed: false},
	}
	for i := range rows {
		if err := store.Create(&rows[i]); err != nil {
			t.Fatalf("seed vm %d: %v", i, err)
		}
	}

	expired, err := store.ListExpired(now)
	if err != nil {
		t.Fatalf("ListExpired: %v", err)
	}
	if len(expired) != 1 || expired[0].ProxmoxVMID != 601 {
		t.Errorf("ListExpired = %+v, want only vmid 601", expired)
	}
}

func TestConfigSingleton(t *testing.T) {
	store := NewVMStore(testDB(t))

	if _, err := store.LoadConfig(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("LoadConfig on empty table = %v, want ErrNotConfigured", err)
	}

	if err := store.SaveConfig(100, "CTF VM", 4); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TemplateID != 100 || cfg.MaxDurationHours != 4 {
		t.Errorf("config = %+v", cfg)
	}

	// 再次保存应更新同一行而不是新增
	if err := store.SaveConfig(200, "Other", 8); err != nil {
		t.Fatalf("SaveConfig update: %v", err)
	}
	var count int64
	store.db.Model(&models.GlobalConfig{}).Count(&count)
	if count != 1 {
		t.Errorf("config rows = %d, want 1", count)
	}
	cfg, _ = store.LoadConfig()
	if cfg.TemplateID != 200 || cfg.MaxDurationHours != 8 {
		t.Errorf("updated config = %+v", cfg)
	}
}

func TestSetChallengeVM(t *testing.T) {
	store := NewVMStore(testDB(t))

	steps := []struct {
		name        string
		enabled     bool
		wantChanged bool
	}{
		{"enable", true, true},
		{"enable again", true, false},
		{"disable", false, true},
		{"disable again", false, false},
	}

	for _, tt := range steps {
		t.Run(tt.name, func(t *testing.T) {
			changed, err := store.SetChallengeVM(42, tt.enabled)
			if err != nil {
				t.Fatalf("SetChallengeVM: %v", err)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
		})
	}
}
