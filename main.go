// file: main.go
package main

import (
	"CTFVM/controllers"
	"CTFVM/database"
	"CTFVM/proxmox"
	"CTFVM/routes"
	"CTFVM/services"
	"log"
)

func main() {
	database.Connect()
	database.InitRedis()

	// 禁用自动迁移 (建表请执行 database.MigrateTables 或使用独立迁移脚本)
	// database.MigrateTables()

	client := proxmox.NewClient(proxmox.ConfigFromEnv())
	store := services.NewVMStore(database.DB)
	cache := services.NewRedisFleetCache(database.RDB)
	svc := services.NewVMService(store, client, cache)

	controllers.InitVMControllers(store, svc)

	r := routes.SetupRouter()

	log.Println("Starting server on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
