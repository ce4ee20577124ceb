package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sshcollectorpro/intreport/internal/config"
	"github.com/sshcollectorpro/intreport/internal/util"
	"github.com/sshcollectorpro/intreport/pkg/logger"
	"github.com/sshcollectorpro/intreport/pkg/ssh"
)

// 命令输出在 debug 日志中保留的首尾行数
const debugOutputLines = 8

// Runner 执行一条设备命令并返回文本输出
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
	// Name 用于日志与缓存键
	Name() string
}

// NewRunner 按目标与配置选择执行方式：有 Host 时走 SSH，否则按 runner.type
func NewRunner(cfg *config.Config, pool *ssh.Pool, t Target) (Runner, error) {
	if strings.TrimSpace(t.Host) != "" {
		if pool == nil {
			return nil, fmt.Errorf("ssh pool not initialized")
		}
		return &SSHRunner{pool: pool, info: &ssh.ConnectionInfo{
			Host:     t.Host,
			Port:     t.Port,
			Username: t.Username,
			Password: t.Password,
			KeyFile:  t.KeyFile,
		}, filter: cfg.Runner.OutputFilter}, nil
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Runner.Type)) {
	case "", "exec":
		if len(cfg.Runner.Shell) == 0 {
			return nil, fmt.Errorf("runner.shell is empty")
		}
		return &ExecRunner{shell: cfg.Runner.Shell, filter: cfg.Runner.OutputFilter}, nil
	case "replay":
		return &ReplayRunner{dir: cfg.Runner.ReplayDir, filter: cfg.Runner.OutputFilter}, nil
	case "ssh":
		return nil, fmt.Errorf("runner type ssh requires a device host")
	default:
		return nil, fmt.Errorf("unknown runner type %q", cfg.Runner.Type)
	}
}

// SSHRunner 通过连接池在远端设备执行
type SSHRunner struct {
	pool   *ssh.Pool
	info   *ssh.ConnectionInfo
	filter config.OutputFilterConfig
}

// Run 执行命令
func (r *SSHRunner) Run(ctx context.Context, command string) (string, error) {
	res, err := r.pool.ExecuteCommand(ctx, r.info, command)
	if err != nil {
		return "", fmt.Errorf("%s: %w", r.Name(), err)
	}
	return finish(command, []byte(res.Output), r.filter), nil
}

// Name 连接标识
func (r *SSHRunner) Name() string {
	return "ssh://" + r.info.Username + "@" + r.info.Address()
}

// ExecRunner 在交换机本机通过 shell 前缀执行，例如 vsh -c
type ExecRunner struct {
	shell  []string
	filter config.OutputFilterConfig
}

// Run 执行命令
func (r *ExecRunner) Run(ctx context.Context, command string) (string, error) {
	args := append(append([]string{}, r.shell[1:]...), command)
	cmd := exec.CommandContext(ctx, r.shell[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s %q: %w: %s", r.shell[0], command, err, msg)
		}
		return "", fmt.Errorf("%s %q: %w", r.shell[0], command, err)
	}
	return finish(command, out, r.filter), nil
}

// Name 执行方式
func (r *ExecRunner) Name() string { return "exec" }

// ReplayRunner 从目录读取预先保存的输出，文件名为命令 slug 加 .txt
type ReplayRunner struct {
	dir    string
	filter config.OutputFilterConfig
}

// NewReplayRunner 创建回放执行器
func NewReplayRunner(dir string, f config.OutputFilterConfig) *ReplayRunner {
	return &ReplayRunner{dir: dir, filter: f}
}

// Run 读取回放文件
func (r *ReplayRunner) Run(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := filepath.Join(r.dir, util.CaptureFile(command))
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("replay: no capture for %q (%s)", command, p)
	}
	if err != nil {
		return "", fmt.Errorf("replay: %w", err)
	}
	return finish(command, b, r.filter), nil
}

// Name 回放目录
func (r *ReplayRunner) Name() string { return "replay:" + r.dir }

// finish 解码、换行规范化与行过滤
func finish(command string, raw []byte, f config.OutputFilterConfig) string {
	out := util.NormalizeOutput(raw, f)
	logger.DebugCommandOutput(command, out, debugOutputLines)
	return out
}

// NewSSHPool 按配置创建连接池
func NewSSHPool(cfg *config.Config) *ssh.Pool {
	return ssh.NewPool(&ssh.PoolConfig{
		MaxIdle:         cfg.SSH.MaxIdle,
		MaxActive:       cfg.SSH.MaxActive,
		IdleTimeout:     cfg.SSH.IdleTimeout,
		CleanupInterval: cfg.SSH.CleanupInterval,
		SSHConfig: &ssh.Config{
			Timeout:        cfg.SSH.Timeout,
			ConnectTimeout: cfg.SSH.ConnectTimeout,
			KeepAlive:      cfg.SSH.KeepAliveInterval,
			MaxSessions:    cfg.SSH.MaxSessions,
		},
	})
}
