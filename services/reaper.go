// file: services/reaper.go
package services

import (
	"context"
	"log"
	"time"
)

// ReapSummary 单次回收的统计
type ReapSummary struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Reaper 回收到期的托管 VM，由外部调度（cron 执行 vmctl cleanup）触发
type Reaper struct {
	store *VMStore
	svc   *VMService
}

func NewReaper(store *VMStore, svc *VMService) *Reaper {
	return &Reaper{store: store, svc: svc}
}

// Run 删除所有到期 VM。逐台隔离失败：一台删不掉只记日志计数，
// 不影响其余 VM 的回收。
func (r *Reaper) Run(ctx context.Context) (ReapSummary, error) {
	expired, err := r.store.ListExpired(time.Now())
	if err != nil {
		return ReapSummary{}, err
	}

	log.Printf("Deleting %d expired VMs", len(expired))

	summary := ReapSummary{Attempted: len(expired)}
	for _, vm := range expired {
		if err := r.svc.Delete(ctx, vm.ID); err != nil {
			summary.Failed++
			log.Printf("  FAIL VM %d (user %d): %v", vm.ProxmoxVMID, vm.UserID, err)
			continue
		}
		summary.Succeeded++
		log.Printf("  OK Deleted VM %d (user %d)", vm.ProxmoxVMID, vm.UserID)
	}
	return summary, nil
}
