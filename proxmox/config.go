// file: proxmox/config.go
package proxmox

import "os"

// Config Proxmox 连接配置，全部来自环境变量
type Config struct {
	Host       string
	User       string
	TokenName  string
	TokenValue string
	Node       string
	VerifySSL  bool
}

func ConfigFromEnv() Config {
	return Config{
		Host:       getenv("PROXMOX_HOST", "proxmox.local"),
		User:       getenv("PROXMOX_USER", "ctf@pve"),
		TokenName:  getenv("PROXMOX_TOKEN_NAME", "ctf"),
		TokenValue: os.Getenv("PROXMOX_TOKEN_VALUE"),
		Node:       getenv("PROXMOX_NODE", "pve"),
		VerifySSL:  os.Getenv("PROXMOX_VERIFY_SSL") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
