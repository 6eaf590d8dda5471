// file: services/reaper_test.go
package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"CTFVM/models"
)

func TestReaperIsolatesFailures(t *testing.T) {
	hv := &fakeHypervisor{
		statusValue: "running",
		deleteErrs:  map[uint32]error{602: errors.New("storage is locked")},
	}
	svc, store, _ := newTestService(t, hv)
	reaper := NewReaper(store, svc)

	now := time.Now()
	rows := []models.VM{
		{UserID: 1, ProxmoxVMID: 601, Status: models.VMStatusRunning, ExpiresAt: now.Add(-time.Hour), Managed: true},
		{UserID: 2, ProxmoxVMID: 602, Status: models.VMStatusRunning, ExpiresAt: now.Add(-time.Minute), Managed: true},
	}
	for i := range rows {
		if err := store.Create(&rows[i]); err != nil {
			t.Fatalf("seed vm %d: %v", i, err)
		}
	}

	summary, err := reaper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Attempted != 2 || summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want {Attempted:2 Succeeded:1 Failed:1}", summary)
	}

	// 删除失败的那台记录必须还在，等待下一轮重试
	if _, err := store.ByUser(2); err != nil {
		t.Errorf("failed VM row must survive the run: %v", err)
	}
	if _, err := store.ByUser(1); !errors.Is(err, ErrVMNotFound) {
		t.Errorf("reaped VM row should be gone, got %v", err)
	}
}

func TestReaperNothingExpired(t *testing.T) {
	hv := &fakeHypervisor{}
	svc, store, _ := newTestService(t, hv)
	reaper := NewReaper(store, svc)

	row := &models.VM{UserID: 1, ProxmoxVMID: 601, Status: models.VMStatusRunning, ExpiresAt: time.Now().Add(time.Hour), Managed: true}
	if err := store.Create(row); err != nil {
		t.Fatalf("seed vm: %v", err)
	}

	summary, err := reaper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Attempted != 0 {
		t.Errorf("summary = %+v, want no attempts", summary)
	}
	if len(hv.deleted) != 0 {
		t.Errorf("nothing should be deleted, got %v", hv.deleted)
	}
}
