// file: proxmox/task.go
package proxmox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	taskPollInterval = 2 * time.Second
	taskTimeout      = 300 * time.Second
)

// ErrTaskTimeout 任务在 TaskTimeout 内没有进入终态
var ErrTaskTimeout = errors.New("proxmox: task did not complete in time")

// TaskFailedError 任务以非 OK 的退出状态结束
type TaskFailedError struct {
	UPID       string
	ExitStatus string
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("proxmox: task %s failed: %s", e.UPID, e.ExitStatus)
}

type TaskInfo struct {
	Status     string `json:"status"`
	ExitStatus string `json:"exitstatus"`
}

func (c *Client) TaskStatus(ctx context.Context, upid string) (TaskInfo, error) {
	var info TaskInfo
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/nodes/%s/tasks/%s/status", c.cfg.Node, url.PathEscape(upid)), nil, &info)
	return info, err
}

// WaitTask 以固定间隔轮询任务直到终态、超时或调用方取消。
// 取消信号来自 ctx，调用方的请求超时可以随时中断等待。
func (c *Client) WaitTask(ctx context.Context, upid string) error {
	deadline := time.NewTimer(c.TaskTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrTaskTimeout
		case <-ticker.C:
			info, err := c.TaskStatus(ctx, upid)
			if err != nil {
				return err
			}
			if info.Status != "stopped" {
				continue
			}
			if info.ExitStatus != "OK" {
				return &TaskFailedError{UPID: upid, ExitStatus: info.ExitStatus}
			}
			return nil
		}
	}
}
