// file: routes/router.go
package routes

import (
	"CTFVM/controllers"
	"CTFVM/middlewares"
	"CTFVM/models"

	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger())

	apiV1 := r.Group("/api/v1")
	{
		usersPublic := apiV1.Group("/users")
		{
			usersPublic.POST("/register", controllers.Register)
			usersPublic.POST("/login", controllers.Login)
		}

		// --- 用户 VM 路由，均按用户分配（与题目无关） ---
		vmRoutes := apiV1.Group("/vm")
		vmRoutes.Use(middlewares.JWTAuthMiddleware())
		{
			vmRoutes.POST("", controllers.CreateVM)
			vmRoutes.GET("/status", controllers.GetVMStatus)
			vmRoutes.POST("/power/:action", controllers.VMPowerAction)
			vmRoutes.POST("/console", controllers.GetVNCConsole)
		}

		// --- 管理员路由 ---
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(middlewares.JWTAuthMiddleware(), middlewares.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminRoutes.GET("/vm-config", controllers.AdminGetVMConfig)
			adminRoutes.POST("/vm-config", controllers.AdminSetVMConfig)
			adminRoutes.GET("/challenges", controllers.AdminListChallenges)
			adminRoutes.POST("/challenges/:id/vm", controllers.AdminToggleChallengeVM)
			adminRoutes.GET("/vms", controllers.AdminListVMs)
			adminRoutes.POST("/vms/:id/power/:action", controllers.AdminVMPower)
		}
	}

	return r
}
