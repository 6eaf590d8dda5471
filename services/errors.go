// file: services/errors.go
package services

import (
	"errors"
	"fmt"
)

// 业务错误，controller 层据此映射响应码
var (
	ErrNotConfigured = errors.New("vm system is not configured")
	ErrVMExists      = errors.New("user already has a vm")
	ErrVMNotFound    = errors.New("vm not found")
	ErrInvalidState  = errors.New("operation not valid for current vm state")
	ErrVMExpired     = errors.New("vm has expired")
	ErrInvalidAction = errors.New("invalid power action")
)

// RemoteError 包装与 Proxmox 通信的传输层失败，
// 原始错误不会越过 service 层直接抛给调用方
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("proxmox %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func remoteErr(op string, err error) error {
	return &RemoteError{Op: op, Err: err}
}
