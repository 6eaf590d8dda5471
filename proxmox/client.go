// file: proxmox/client.go
package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// guestNICNames 常见客户机网卡命名，guest agent 上报的其它接口一律忽略
var guestNICNames = map[string]bool{
	"eth0":  true,
	"ens18": true,
	"ens19": true,
	"ens3":  true,
}

// Client Proxmox API 客户端（api2/json），自身不持有任何 VM 状态
type Client struct {
	cfg  Config
	http *http.Client

	// BaseURL 默认指向 https://{host}:8006/api2/json，测试中可替换
	BaseURL string

	// 任务轮询参数，见 WaitTask
	PollInterval time.Duration
	TaskTimeout  time.Duration
}

func NewClient(cfg Config) *Client {
	transport := &http.Transport{}
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		cfg:          cfg,
		http:         &http.Client{Timeout: 30 * time.Second, Transport: transport},
		BaseURL:      fmt.Sprintf("https://%s:8006/api2/json", cfg.Host),
		PollInterval: taskPollInterval,
		TaskTimeout:  taskTimeout,
	}
}

func (c *Client) Host() string { return c.cfg.Host }
func (c *Client) Node() string { return c.cfg.Node }

// do 发送请求并解开 Proxmox 的 {"data": ...} 外层
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("PVEAPIToken=%s!%s=%s", c.cfg.User, c.cfg.TokenName, c.cfg.TokenValue))
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("proxmox: %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("proxmox: decode %s: %w", path, err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

// NextID 向集群申请下一个空闲 VMID
func (c *Client) NextID(ctx context.Context) (uint32, error) {
	var raw string
	if err := c.do(ctx, http.MethodGet, "/cluster/nextid", nil, &raw); err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("proxmox: unexpected nextid %q: %w", raw, err)
	}
	return uint32(id), nil
}

// Clone 以链接克隆方式复制模板，返回异步任务的 UPID
func (c *Client) Clone(ctx context.Context, templateID, newID uint32, name, description string) (string, error) {
	form := url.Values{}
	form.Set("newid", strconv.FormatUint(uint64(newID), 10))
	form.Set("name", name)
	form.Set("full", "0")
	form.Set("description", description)

	var upid string
	path := fmt.Sprintf("/nodes/%s/qemu/%d/clone", c.cfg.Node, templateID)
	if err := c.do(ctx, http.MethodPost, path, form, &upid); err != nil {
		return "", err
	}
	return upid, nil
}

func (c *Client) Start(ctx context.Context, vmid uint32) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/nodes/%s/qemu/%d/status/start", c.cfg.Node, vmid), nil, nil)
}

// Shutdown 发送 ACPI 关机请求（优雅关机，不是强制断电）
func (c *Client) Shutdown(ctx context.Context, vmid uint32) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/nodes/%s/qemu/%d/status/shutdown", c.cfg.Node, vmid), nil, nil)
}

func (c *Client) Reboot(ctx context.Context, vmid uint32) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/nodes/%s/qemu/%d/status/reboot", c.cfg.Node, vmid), nil, nil)
}

func (c *Client) Delete(ctx context.Context, vmid uint32) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/nodes/%s/qemu/%d", c.cfg.Node, vmid), nil, nil)
}

type VMCurrentStatus struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime"`
}

func (c *Client) CurrentStatus(ctx context.Context, vmid uint32) (VMCurrentStatus, error) {
	var st VMCurrentStatus
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/nodes/%s/qemu/%d/status/current", c.cfg.Node, vmid), nil, &st)
	return st, err
}

// GuestIPv4 通过 guest agent 查询客户机 IPv4 地址。
// agent 尚未就绪是刚开机 VM 的正常状态，此时返回空串而不是错误。
func (c *Client) GuestIPv4(ctx context.Context, vmid uint32) (string, error) {
	var result struct {
		Result []struct {
			Name        string `json:"name"`
			IPAddresses []struct {
				Type    string `json:"ip-address-type"`
				Address string `json:"ip-address"`
			} `json:"ip-addresses"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/nodes/%s/qemu/%d/agent/network-get-interfaces", c.cfg.Node, vmid)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return "", nil
	}

	for _, iface := range result.Result {
		if !guestNICNames[iface.Name] {
			continue
		}
		for _, addr := range iface.IPAddresses {
			if addr.Type == "ipv4" && !strings.HasPrefix(addr.Address, "127.") {
				return addr.Address, nil
			}
		}
	}
	return "", nil
}

type VNCTicket struct {
	Port   json.Number `json:"port"`
	Ticket string      `json:"ticket"`
}

// VNCProxy 申请一次性 VNC ticket，由 Proxmox 约定其短时效且只能使用一次
func (c *Client) VNCProxy(ctx context.Context, vmid uint32) (VNCTicket, error) {
	var ticket VNCTicket
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/nodes/%s/qemu/%d/vncproxy", c.cfg.Node, vmid), nil, &ticket)
	return ticket, err
}
