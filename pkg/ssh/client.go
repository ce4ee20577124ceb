package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// Config SSH配置
type Config struct {
	// Timeout 单条命令的执行超时
	Timeout time.Duration
	// ConnectTimeout 拨号与认证超时
	ConnectTimeout time.Duration
	KeepAlive      time.Duration
	MaxSessions    int
}

// Client SSH客户端
type Client struct {
	config     *Config
	connection *ssh.Client
	mutex      sync.RWMutex
	// 最近一次连接参数，会话创建遇到 EOF 时用于重连
	info   *ConnectionInfo
	cancel context.CancelFunc
	// sessions 并发会话限制
	sessions chan struct{}
}

// ConnectionInfo SSH连接信息
type ConnectionInfo struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
	KeyFile  string `json:"key_file,omitempty"`
}

// Address host:port
func (i *ConnectionInfo) Address() string {
	port := i.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(i.Host, fmt.Sprintf("%d", port))
}

// CommandResult 命令执行结果
type CommandResult struct {
	Command  string        `json:"command"`
	Output   string        `json:"output"`
	Error    string        `json:"error"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// NewClient 创建SSH客户端
func NewClient(config *Config) *Client {
	n := config.MaxSessions
	if n <= 0 {
		n = 1
	}
	return &Client{
		config:   config,
		sessions: make(chan struct{}, n),
	}
}

// clientConfig MDS/NX-OS 老版本仍使用的算法需要显式开启
func (c *Client) clientConfig(info *ConnectionInfo) (*ssh.ClientConfig, error) {
	cfg := &ssh.ClientConfig{
		User:            info.Username,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.config.ConnectTimeout,
		Config: ssh.Config{
			KeyExchanges: []string{
				"curve25519-sha256",
				"ecdh-sha2-nistp256",
				"ecdh-sha2-nistp384",
				"diffie-hellman-group14-sha256",
				"diffie-hellman-group14-sha1",
				"diffie-hellman-group1-sha1",
			},
			Ciphers: []string{
				"aes128-gcm@openssh.com",
				"aes256-gcm@openssh.com",
				"aes128-ctr",
				"aes192-ctr",
				"aes256-ctr",
				"aes128-cbc",
				"3des-cbc",
			},
			MACs: []string{
				"hmac-sha2-256-etm@openssh.com",
				"hmac-sha2-256",
				"hmac-sha1",
			},
		},
		HostKeyAlgorithms: []string{
			"rsa-sha2-512",
			"rsa-sha2-256",
			"ecdsa-sha2-nistp256",
			"ssh-ed25519",
			"ssh-rsa",
		},
	}

	if info.KeyFile != "" {
		pem, err := os.ReadFile(info.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("failed to parse key file: %w", err)
		}
		cfg.Auth = append(cfg.Auth, ssh.PublicKeys(signer))
	}
	if info.Password != "" {
		cfg.Auth = append(cfg.Auth,
			ssh.Password(info.Password),
			// 部分 NX-OS 版本只开放 keyboard-interactive
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = info.Password
				}
				return answers, nil
			}),
		)
	}
	if len(cfg.Auth) == 0 {
		return nil, fmt.Errorf("no authentication method for %s", info.Username)
	}
	return cfg, nil
}

// Connect 连接SSH服务器
func (c *Client) Connect(ctx context.Context, info *ConnectionInfo) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.connectLocked(ctx, info)
}

func (c *Client) connectLocked(ctx context.Context, info *ConnectionInfo) error {
	cfg, err := c.clientConfig(info)
	if err != nil {
		return err
	}
	c.info = info

	address := info.Address()
	dialer := &net.Dialer{Timeout: c.config.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, cfg)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SSH connection: %w", err)
	}
	c.connection = ssh.NewClient(sshConn, chans, reqs)

	// 保活协程的生命周期跟随连接而不是调用方的 ctx
	kaCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.keepAlive(kaCtx)
	return nil
}

// newSessionWithRetry 创建会话（带重试）
// 设备在登录后立即打开通道时可能返回 "administratively prohibited" 或 EOF
func (c *Client) newSessionWithRetry(ctx context.Context) (*ssh.Session, error) {
	backoffs := []time.Duration{0, 200 * time.Millisecond, 500 * time.Millisecond, time.Second}
	var lastErr error
	for _, d := range backoffs {
		if d > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d):
			}
		}
		c.mutex.RLock()
		conn := c.connection
		c.mutex.RUnlock()
		if conn == nil {
			return nil, fmt.Errorf("SSH connection not established")
		}

		sess, err := conn.NewSession()
		if err == nil {
			return sess, nil
		}
		lastErr = err
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			c.mutex.Lock()
			info := c.info
			c.closeLocked()
			if info != nil {
				_ = c.connectLocked(ctx, info)
			}
			c.mutex.Unlock()
		}
	}
	return nil, lastErr
}

// ExecuteCommand 执行单个命令
func (c *Client) ExecuteCommand(ctx context.Context, command string) (*CommandResult, error) {
	select {
	case c.sessions <- struct{}{}:
		defer func() { <-c.sessions }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	result := &CommandResult{Command: command}

	session, err := c.newSessionWithRetry(ctx)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create session: %v", err)
		result.ExitCode = -1
		return result, err
	}
	defer session.Close()

	type out struct {
		b   []byte
		err error
	}
	done := make(chan out, 1)
	go func() {
		b, err := session.CombinedOutput(command)
		done <- out{b, err}
	}()

	var o out
	select {
	case o = <-done:
	case <-ctx.Done():
		session.Close()
		result.Duration = time.Since(start)
		result.Error = ctx.Err().Error()
		result.ExitCode = -1
		return result, fmt.Errorf("command %q: %w", command, ctx.Err())
	}

	result.Duration = time.Since(start)
	result.Output = string(o.b)
	if o.err != nil {
		result.Error = o.err.Error()
		if exitErr, ok := o.err.(*ssh.ExitError); ok {
			result.ExitCode = exitErr.ExitStatus()
		} else {
			result.ExitCode = -1
		}
		return result, o.err
	}
	return result, nil
}

// Close 关闭SSH连接
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.connection == nil {
		return nil
	}
	err := c.connection.Close()
	c.connection = nil
	return err
}

// IsConnected 检查连接状态
func (c *Client) IsConnected() bool {
	c.mutex.RLock()
	conn := c.connection
	c.mutex.RUnlock()
	if conn == nil {
		return false
	}
	// keepalive 请求不占用会话
	_, _, err := conn.SendRequest("keepalive@openssh.com", false, nil)
	return err == nil
}

// keepAlive 保持连接活跃
func (c *Client) keepAlive(ctx context.Context) {
	if c.config.KeepAlive <= 0 {
		return
	}
	ticker := time.NewTicker(c.config.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mutex.RLock()
			conn := c.connection
			c.mutex.RUnlock()
			if conn == nil {
				return
			}
			if _, _, err := conn.SendRequest("keepalive@openssh.com", false, nil); err != nil {
				c.mutex.Lock()
				if c.connection == conn {
					_ = c.connection.Close()
					c.connection = nil
				}
				c.mutex.Unlock()
				return
			}
		}
	}
}
