// file: controllers/admin_vm_controller.go
package controllers

import (
	"errors"
	"strconv"

	"CTFVM/dto"
	"CTFVM/mappers"
	"CTFVM/services"
	"CTFVM/utils"

	"github.com/gin-gonic/gin"
)

// AdminGetVMConfig 查询全局 VM 配置，未配置时 data 为空
func AdminGetVMConfig(c *gin.Context) {
	cfg, err := vmStore.LoadConfig()
	if err != nil {
		if errors.Is(err, services.ErrNotConfigured) {
			utils.Success(c, "success", nil)
			return
		}
		utils.Error(c, 5000, "数据库错误: "+err.Error())
		return
	}
	utils.Success(c, "success", dto.GlobalConfigInfo{
		TemplateID:       cfg.TemplateID,
		TemplateName:     cfg.TemplateName,
		MaxDurationHours: cfg.MaxDurationHours,
	})
}

// AdminSetVMConfig 写入全局 VM 配置（模板、名称、默认时长）
func AdminSetVMConfig(c *gin.Context) {
	var req struct {
		TemplateID       uint32 `json:"proxmox_template_id" binding:"required"`
		TemplateName     string `json:"vm_template_name"`
		MaxDurationHours uint   `json:"max_duration_hours"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效: "+err.Error())
		return
	}
	if req.TemplateName == "" {
		req.TemplateName = "CTF VM"
	}
	if req.MaxDurationHours == 0 {
		req.MaxDurationHours = 4
	}

	if err := vmStore.SaveConfig(req.TemplateID, req.TemplateName, req.MaxDurationHours); err != nil {
		utils.Error(c, 5000, "数据库错误: "+err.Error())
		return
	}
	utils.Success(c, "Config saved", nil)
}

// AdminListChallenges 返回全部题目及其 VM 开关状态
func AdminListChallenges(c *gin.Context) {
	challenges, err := vmStore.ListChallenges()
	if err != nil {
		utils.Error(c, 5000, "数据库错误: "+err.Error())
		return
	}
	enabled, err := vmStore.VMEnabledChallengeIDs()
	if err != nil {
		utils.Error(c, 5000, "数据库错误: "+err.Error())
		return
	}

	result := make([]dto.ChallengeVMInfo, 0, len(challenges))
	for _, ch := range challenges {
		result = append(result, dto.ChallengeVMInfo{
			ID:        ch.ID,
			Name:      ch.ChallengeName,
			Category:  ch.Category,
			VMEnabled: enabled[ch.ID],
		})
	}
	utils.Success(c, "success", result)
}

// AdminToggleChallengeVM 开关单个题目的 VM 入口
func AdminToggleChallengeVM(c *gin.Context) {
	challengeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, 1001, "无效的题目 ID")
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效: "+err.Error())
		return
	}

	if _, err := vmStore.SetChallengeVM(uint32(challengeID), req.Enabled); err != nil {
		utils.Error(c, 5000, "数据库错误: "+err.Error())
		return
	}
	utils.Success(c, "success", gin.H{"vm_enabled": req.Enabled})
}

// AdminListVMs 机群总览，逐台刷新状态并附带属主用户名，30 秒缓存
func AdminListVMs(c *gin.Context) {
	items, err := vmService.FleetView(c.Request.Context())
	if err != nil {
		utils.Error(c, 5000, "Failed to list VMs: "+err.Error())
		return
	}
	utils.Success(c, "success", items)
}

// AdminVMPower 管理员按本地 ID 操作任意托管 VM：start/stop/restart/delete
func AdminVMPower(c *gin.Context) {
	vmID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, 1001, "无效的 VM ID")
		return
	}

	actionParam := c.Param("action")
	if actionParam == "delete" {
		if err := vmService.Delete(c.Request.Context(), uint32(vmID)); err != nil {
			handleVMError(c, err, nil)
			return
		}
		utils.Success(c, "VM deleted", nil)
		return
	}

	action, err := services.ParsePowerAction(actionParam)
	if err != nil {
		utils.Error(c, 1002, "Invalid action")
		return
	}

	vm, err := vmService.AdminPowerAction(c.Request.Context(), uint32(vmID), action)
	if err != nil {
		handleVMError(c, err, nil)
		return
	}
	utils.Success(c, "success", mappers.ToVMInfo(vm))
}
