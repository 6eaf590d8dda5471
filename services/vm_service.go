// file: services/vm_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"CTFVM/dto"
	"CTFVM/mappers"
	"CTFVM/models"
	"CTFVM/proxmox"
)

// Hypervisor 抽象 Proxmox 客户端，测试中以假实现替换
type Hypervisor interface {
	NextID(ctx context.Context) (uint32, error)
	Clone(ctx context.Context, templateID, newID uint32, name, description string) (string, error)
	WaitTask(ctx context.Context, upid string) error
	Start(ctx context.Context, vmid uint32) error
	Shutdown(ctx context.Context, vmid uint32) error
	Reboot(ctx context.Context, vmid uint32) error
	Delete(ctx context.Context, vmid uint32) error
	CurrentStatus(ctx context.Context, vmid uint32) (proxmox.VMCurrentStatus, error)
	GuestIPv4(ctx context.Context, vmid uint32) (string, error)
	VNCProxy(ctx context.Context, vmid uint32) (proxmox.VNCTicket, error)
	Host() string
	Node() string
}

type PowerAction string

const (
	ActionStart   PowerAction = "start"
	ActionStop    PowerAction = "stop"
	ActionRestart PowerAction = "restart"
)

func ParsePowerAction(s string) (PowerAction, error) {
	switch PowerAction(s) {
	case ActionStart, ActionStop, ActionRestart:
		return PowerAction(s), nil
	}
	return "", ErrInvalidAction
}

// VMService VM 生命周期编排：创建、状态同步、电源操作、控制台、删除
type VMService struct {
	store *VMStore
	hv    Hypervisor
	cache FleetCache
}

func NewVMService(store *VMStore, hv Hypervisor, cache FleetCache) *VMService {
	return &VMService{store: store, hv: hv, cache: cache}
}

// Create 为用户克隆并启动一台 VM。到期时间在这里一次性确定，
// 之后的电源操作不会延长它。
func (s *VMService) Create(ctx context.Context, userID uint32) (*models.VM, error) {
	cfg, err := s.store.LoadConfig()
	if err != nil {
		return nil, err
	}

	// 先查一次给出带已有记录的友好错误；真正的仲裁在插入时的唯一索引
	if existing, err := s.store.ByUser(userID); err == nil {
		return existing, ErrVMExists
	} else if !errors.Is(err, ErrVMNotFound) {
		return nil, err
	}

	vmid, err := s.hv.NextID(ctx)
	if err != nil {
		return nil, remoteErr("nextid", err)
	}

	name := fmt.Sprintf("ctf-u%d", userID)
	upid, err := s.hv.Clone(ctx, cfg.TemplateID, vmid, name, fmt.Sprintf("CTF VM for user %d", userID))
	if err != nil {
		return nil, remoteErr("clone", err)
	}

	if err := s.hv.WaitTask(ctx, upid); err != nil {
		// 克隆失败或超时：不落库，错误原样上抛（残留的半成品由管理员处理）
		var failed *proxmox.TaskFailedError
		if errors.Is(err, proxmox.ErrTaskTimeout) || errors.As(err, &failed) {
			return nil, err
		}
		return nil, remoteErr("clone task", err)
	}

	now := time.Now()
	vm := &models.VM{
		UserID:      userID,
		ProxmoxVMID: vmid,
		VMName:      name,
		Status:      models.VMStatusCreating,
		ExpiresAt:   now.Add(time.Duration(cfg.MaxDurationHours) * time.Hour),
		Managed:     true,
	}
	if err := s.store.Create(vm); err != nil {
		// 落库失败时本次克隆出的 VM 已无人认领，尽力删掉
		s.cleanupRemote(ctx, vmid)
		if errors.Is(err, ErrVMExists) {
			if existing, lookupErr := s.store.ByUser(userID); lookupErr == nil {
				return existing, ErrVMExists
			}
			return nil, ErrVMExists
		}
		return nil, err
	}

	if err := s.hv.Start(ctx, vmid); err != nil {
		// 记录保留在 creating 状态，管理端可见，可手动重试或删除
		return vm, remoteErr("start", err)
	}

	started := time.Now()
	vm.Status = models.VMStatusRunning
	vm.LastStarted = &started
	if err := s.store.Save(vm); err != nil {
		return vm, err
	}

	s.cache.Invalidate(ctx)
	return vm, nil
}

// cleanupRemote 尽力删除远端残留，失败只记日志
func (s *VMService) cleanupRemote(ctx context.Context, vmid uint32) {
	if err := s.hv.Delete(ctx, vmid); err != nil {
		log.Printf("Warning: failed to clean up remote VM %d: %v", vmid, err)
	}
}

// RefreshStatus 从 Proxmox 同步状态与 IP 到本地记录。
// IP 查询是尽力而为：agent 未上报时不清空已知地址。
func (s *VMService) RefreshStatus(ctx context.Context, userID uint32) (*models.VM, error) {
	vm, err := s.store.ByUser(userID)
	if err != nil {
		return nil, err
	}

	st, err := s.hv.CurrentStatus(ctx, vm.ProxmoxVMID)
	if err != nil {
		return nil, remoteErr("status", err)
	}
	vm.Status = models.NormalizeStatus(st.Status)

	if st.Status == "running" {
		if ip, _ := s.hv.GuestIPv4(ctx, vm.ProxmoxVMID); ip != "" {
			vm.VMIP = ip
		}
	}

	if err := s.store.Save(vm); err != nil {
		return nil, err
	}
	return vm, nil
}

// PowerAction 用户电源操作。过期的 VM 只能被回收，任何操作都拒绝。
func (s *VMService) PowerAction(ctx context.Context, userID uint32, action PowerAction) (*models.VM, error) {
	vm, err := s.store.ByUser(userID)
	if err != nil {
		return nil, err
	}
	if vm.Expired(time.Now()) {
		return nil, ErrVMExpired
	}

	if err := s.applyPower(ctx, vm, action); err != nil {
		return nil, err
	}
	if err := s.store.Save(vm); err != nil {
		return nil, err
	}
	return vm, nil
}

// AdminPowerAction 管理员按本地 ID 操作任意托管 VM，不做过期限制
func (s *VMService) AdminPowerAction(ctx context.Context, vmID uint32, action PowerAction) (*models.VM, error) {
	vm, err := s.store.ByID(vmID)
	if err != nil {
		return nil, err
	}
	if !vm.Managed {
		return nil, ErrVMNotFound
	}

	if err := s.applyPower(ctx, vm, action); err != nil {
		return nil, err
	}
	if err := s.store.Save(vm); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	return vm, nil
}

// applyPower 执行远端电源操作并乐观更新本地状态，不回查远端确认
func (s *VMService) applyPower(ctx context.Context, vm *models.VM, action PowerAction) error {
	switch action {
	case ActionStart:
		if err := s.hv.Start(ctx, vm.ProxmoxVMID); err != nil {
			return remoteErr("start", err)
		}
		now := time.Now()
		vm.Status = models.VMStatusRunning
		vm.LastStarted = &now
	case ActionStop:
		if err := s.hv.Shutdown(ctx, vm.ProxmoxVMID); err != nil {
			return remoteErr("shutdown", err)
		}
		vm.Status = models.VMStatusStopped
	case ActionRestart:
		if err := s.hv.Reboot(ctx, vm.ProxmoxVMID); err != nil {
			return remoteErr("reboot", err)
		}
		now := time.Now()
		vm.Status = models.VMStatusRunning
		vm.LastStarted = &now
	default:
		return ErrInvalidAction
	}
	return nil
}

// ConsoleAccess 为运行中的 VM 申请一次性 VNC ticket 并拼接 noVNC 地址。
// ticket 由 Proxmox 约定短时效且仅一次有效，这里不缓存不复用。
func (s *VMService) ConsoleAccess(ctx context.Context, userID uint32) (*dto.ConsoleInfo, error) {
	vm, err := s.store.ByUser(userID)
	if err != nil {
		return nil, err
	}
	if vm.Status != models.VMStatusRunning {
		return nil, ErrInvalidState
	}

	ticket, err := s.hv.VNCProxy(ctx, vm.ProxmoxVMID)
	if err != nil {
		return nil, remoteErr("vncproxy", err)
	}

	wsURL := fmt.Sprintf(
		"wss://%s:8006/api2/json/nodes/%s/qemu/%d/vncwebsocket?port=%s&vncticket=%s",
		s.hv.Host(), s.hv.Node(), vm.ProxmoxVMID, ticket.Port, url.QueryEscape(ticket.Ticket),
	)
	return &dto.ConsoleInfo{
		WSURL:       wsURL,
		Ticket:      ticket.Ticket,
		ProxmoxHost: s.hv.Host(),
	}, nil
}

// Delete 删除 VM：尽力优雅关机，删远端，最后删本地记录。
// 远端删除失败时保留本地记录，管理端仍然可见、可重试；
// 记录已不存在视为成功（可能已被并发的回收任务删掉）。
func (s *VMService) Delete(ctx context.Context, vmID uint32) error {
	vm, err := s.store.ByID(vmID)
	if err != nil {
		if errors.Is(err, ErrVMNotFound) {
			return nil
		}
		return err
	}
	if !vm.Managed {
		return ErrVMNotFound
	}

	// 运行中的先尝试优雅关机，失败不阻断删除
	if st, err := s.hv.CurrentStatus(ctx, vm.ProxmoxVMID); err == nil {
		if st.Status == "running" {
			if err := s.hv.Shutdown(ctx, vm.ProxmoxVMID); err != nil {
				log.Printf("Warning: failed to shut down VM %d before delete: %v", vm.ProxmoxVMID, err)
			}
		}
	} else {
		log.Printf("Warning: failed to check VM %d before delete: %v", vm.ProxmoxVMID, err)
	}

	if err := s.hv.Delete(ctx, vm.ProxmoxVMID); err != nil {
		return remoteErr("delete", err)
	}
	if err := s.store.Delete(vm.ID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	return nil
}

// FleetView 管理端机群总览：逐台刷新状态与 IP 并附带属主用户名，结果缓存 30 秒。
// 单台刷新失败不影响整体列表，沿用库中的旧状态。
func (s *VMService) FleetView(ctx context.Context) ([]dto.AdminVMInfo, error) {
	if items, ok := s.cache.Get(ctx); ok {
		return items, nil
	}

	vms, err := s.store.ListManaged()
	if err != nil {
		return nil, err
	}

	items := make([]dto.AdminVMInfo, 0, len(vms))
	for i := range vms {
		vm := &vms[i]
		if st, err := s.hv.CurrentStatus(ctx, vm.ProxmoxVMID); err == nil {
			vm.Status = models.NormalizeStatus(st.Status)
			if st.Status == "running" {
				if ip, _ := s.hv.GuestIPv4(ctx, vm.ProxmoxVMID); ip != "" {
					vm.VMIP = ip
				}
			}
			if err := s.store.Save(vm); err != nil {
				log.Printf("Warning: failed to persist refreshed status for VM %d: %v", vm.ProxmoxVMID, err)
			}
		} else {
			log.Printf("Warning: failed to refresh status for VM %d: %v", vm.ProxmoxVMID, err)
		}
		items = append(items, mappers.ToAdminVMInfo(vm, s.store.UserName(vm.UserID)))
	}

	s.cache.Set(ctx, items)
	return items, nil
}
