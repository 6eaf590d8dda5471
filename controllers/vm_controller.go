// file: controllers/vm_controller.go
package controllers

import (
	"errors"

	"CTFVM/mappers"
	"CTFVM/models"
	"CTFVM/proxmox"
	"CTFVM/services"
	"CTFVM/utils"

	"github.com/gin-gonic/gin"
)

var (
	vmStore   *services.VMStore
	vmService *services.VMService
)

// InitVMControllers 注入 VM 相关依赖，main 启动时调用一次
func InitVMControllers(store *services.VMStore, svc *services.VMService) {
	vmStore = store
	vmService = svc
}

// CreateVM 用户申请 VM（每人至多一台，到期时间在创建时一次性确定）
func CreateVM(c *gin.Context) {
	userIDAny, _ := c.Get("user_id")
	userID := userIDAny.(uint32)

	vm, err := vmService.Create(c.Request.Context(), userID)
	if err != nil {
		handleVMError(c, err, vm)
		return
	}
	utils.Success(c, "VM created successfully", mappers.ToVMInfo(vm))
}

// GetVMStatus 查询并同步 VM 状态
func GetVMStatus(c *gin.Context) {
	userIDAny, _ := c.Get("user_id")
	userID := userIDAny.(uint32)

	vm, err := vmService.RefreshStatus(c.Request.Context(), userID)
	if err != nil {
		handleVMError(c, err, nil)
		return
	}
	utils.Success(c, "success", mappers.ToVMInfo(vm))
}

// VMPowerAction 用户电源操作 start/stop/restart
func VMPowerAction(c *gin.Context) {
	userIDAny, _ := c.Get("user_id")
	userID := userIDAny.(uint32)

	action, err := services.ParsePowerAction(c.Param("action"))
	if err != nil {
		utils.Error(c, 1002, "Invalid action")
		return
	}

	vm, err := vmService.PowerAction(c.Request.Context(), userID, action)
	if err != nil {
		handleVMError(c, err, nil)
		return
	}
	utils.Success(c, "success", mappers.ToVMInfo(vm))
}

// GetVNCConsole 返回一次性 VNC ticket 与 noVNC WebSocket 地址
func GetVNCConsole(c *gin.Context) {
	userIDAny, _ := c.Get("user_id")
	userID := userIDAny.(uint32)

	console, err := vmService.ConsoleAccess(c.Request.Context(), userID)
	if err != nil {
		handleVMError(c, err, nil)
		return
	}
	utils.Success(c, "success", console)
}

// handleVMError 将业务错误映射为响应码
func handleVMError(c *gin.Context, err error, existing *models.VM) {
	var taskFailed *proxmox.TaskFailedError
	var remote *services.RemoteError

	switch {
	case errors.Is(err, services.ErrNotConfigured):
		utils.Error(c, 5031, "VM 系统尚未配置")
	case errors.Is(err, services.ErrVMExists):
		if existing != nil {
			utils.ErrorData(c, 4009, "VM already exists", mappers.ToVMInfo(existing))
		} else {
			utils.Error(c, 4009, "VM already exists")
		}
	case errors.Is(err, services.ErrVMNotFound):
		utils.Error(c, 4041, "No VM found")
	case errors.Is(err, services.ErrVMExpired):
		utils.Error(c, 4031, "VM has expired")
	case errors.Is(err, services.ErrInvalidState):
		utils.Error(c, 4005, "VM is not running")
	case errors.Is(err, services.ErrInvalidAction):
		utils.Error(c, 1002, "Invalid action")
	case errors.Is(err, proxmox.ErrTaskTimeout):
		utils.Error(c, 5003, "Proxmox task timed out")
	case errors.As(err, &taskFailed):
		utils.Error(c, 5002, "Proxmox task failed: "+taskFailed.ExitStatus)
	case errors.As(err, &remote):
		utils.Error(c, 5001, "Proxmox API Error: "+remote.Error())
	default:
		utils.Error(c, 5000, "Internal error: "+err.Error())
	}
}
