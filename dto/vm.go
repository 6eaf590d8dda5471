// file: dto/vm.go
package dto

// VMInfo 用户视角的 VM 快照
type VMInfo struct {
	ID                 uint32 `json:"id"`
	ProxmoxVMID        uint32 `json:"proxmox_vmid"`
	VMName             string `json:"vm_name"`
	VMIP               string `json:"vm_ip"`
	Status             string `json:"status"`
	RemainingTime      int64  `json:"remaining_time"`
	RemainingFormatted string `json:"remaining_time_formatted"`
}

// AdminVMInfo 管理端快照，比用户视角多一个属主用户名
type AdminVMInfo struct {
	VMInfo
	Username string `json:"username"`
}

// ConsoleInfo noVNC 控制台连接信息
type ConsoleInfo struct {
	WSURL       string `json:"ws_url"`
	Ticket      string `json:"ticket"`
	ProxmoxHost string `json:"proxmox_host"`
}

// ChallengeVMInfo 管理端题目列表项
type ChallengeVMInfo struct {
	ID        uint32 `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	VMEnabled bool   `json:"vm_enabled"`
}

// GlobalConfigInfo 全局配置视图
type GlobalConfigInfo struct {
	TemplateID       uint32 `json:"proxmox_template_id"`
	TemplateName     string `json:"vm_template_name"`
	MaxDurationHours uint   `json:"max_duration_hours"`
}
