// file: mappers/vm_mapper.go
package mappers

import (
	"CTFVM/dto"
	"CTFVM/models"
)

// ToVMInfo 将 VM 模型转换为用户可见快照
func ToVMInfo(vm *models.VM) dto.VMInfo {
	return dto.VMInfo{
		ID:                 vm.ID,
		ProxmoxVMID:        vm.ProxmoxVMID,
		VMName:             vm.VMName,
		VMIP:               vm.VMIP,
		Status:             string(vm.Status),
		RemainingTime:      vm.RemainingSeconds(),
		RemainingFormatted: vm.RemainingFormatted(),
	}
}

// ToAdminVMInfo 管理端快照，附带属主用户名
func ToAdminVMInfo(vm *models.VM, username string) dto.AdminVMInfo {
	return dto.AdminVMInfo{VMInfo: ToVMInfo(vm), Username: username}
}
