package ssh

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Pool SSH连接池，同一设备的并发命令共享一条连接
type Pool struct {
	config      *Config
	connections map[string]*pooledConnection
	mutex       sync.Mutex
	maxIdle     int
	maxActive   int
	idleTimeout time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

// pooledConnection 池化的连接
type pooledConnection struct {
	client   *Client
	lastUsed time.Time
	// refs 正在使用该连接的命令数
	refs int
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdle         int
	MaxActive       int
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
	SSHConfig       *Config
}

// NewPool 创建SSH连接池
func NewPool(config *PoolConfig) *Pool {
	p := &Pool{
		config:      config.SSHConfig,
		connections: make(map[string]*pooledConnection),
		maxIdle:     config.MaxIdle,
		maxActive:   config.MaxActive,
		idleTimeout: config.IdleTimeout,
		stop:        make(chan struct{}),
	}
	interval := config.CleanupInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go p.cleanup(interval)
	return p
}

// GetConnection 获取SSH连接，用完调用 ReleaseConnection
func (p *Pool) GetConnection(ctx context.Context, info *ConnectionInfo) (*Client, error) {
	key := connectionKey(info)

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if conn, ok := p.connections[key]; ok {
		if conn.client.IsConnected() {
			conn.refs++
			conn.lastUsed = time.Now()
			return conn.client, nil
		}
		// 连接已断开，仍在使用的命令会自行报错
		conn.client.Close()
		delete(p.connections, key)
	}

	if p.maxActive > 0 && len(p.connections) >= p.maxActive {
		return nil, fmt.Errorf("connection pool is full, connections: %d", len(p.connections))
	}

	client := NewClient(p.config)
	if err := client.Connect(ctx, info); err != nil {
		return nil, fmt.Errorf("failed to create SSH connection: %w", err)
	}
	p.connections[key] = &pooledConnection{client: client, lastUsed: time.Now(), refs: 1}
	return client, nil
}

// ReleaseConnection 释放SSH连接
func (p *Pool) ReleaseConnection(info *ConnectionInfo) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if conn, ok := p.connections[connectionKey(info)]; ok && conn.refs > 0 {
		conn.refs--
		conn.lastUsed = time.Now()
	}
}

// ExecuteCommand 通过连接池执行命令
func (p *Pool) ExecuteCommand(ctx context.Context, info *ConnectionInfo, command string) (*CommandResult, error) {
	client, err := p.GetConnection(ctx, info)
	if err != nil {
		return nil, err
	}
	defer p.ReleaseConnection(info)

	return client.ExecuteCommand(ctx, command)
}

// Close 关闭连接池
func (p *Pool) Close() error {
	p.stopOnce.Do(func() { close(p.stop) })

	p.mutex.Lock()
	defer p.mutex.Unlock()

	var lastErr error
	for key, conn := range p.connections {
		if err := conn.client.Close(); err != nil {
			lastErr = err
		}
		delete(p.connections, key)
	}
	return lastErr
}

// Stats 连接池统计信息
func (p *Pool) Stats() map[string]interface{} {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	active := 0
	for _, conn := range p.connections {
		if conn.refs > 0 {
			active++
		}
	}
	return map[string]interface{}{
		"total_connections":  len(p.connections),
		"active_connections": active,
		"idle_connections":   len(p.connections) - active,
		"max_idle":           p.maxIdle,
		"max_active":         p.maxActive,
	}
}

// connectionKey 连接按凭据区分，凭据不同的请求不会复用已认证的连接
func connectionKey(info *ConnectionInfo) string {
	return fmt.Sprintf("%s@%s#%s", info.Username, info.Address(), credentialFingerprint(info))
}

// credentialFingerprint 口令与私钥路径的摘要，键中不出现明文
func credentialFingerprint(info *ConnectionInfo) string {
	h := sha256.New()
	h.Write([]byte(info.Password))
	h.Write([]byte{0})
	h.Write([]byte(info.KeyFile))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// cleanup 定期清理过期连接
func (p *Pool) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.cleanupExpiredConnections()
		}
	}
}

// cleanupExpiredConnections 关闭超时或断开的空闲连接，并把空闲数压到 maxIdle 以内
func (p *Pool) cleanupExpiredConnections() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	now := time.Now()
	idle := 0
	for key, conn := range p.connections {
		if conn.refs > 0 {
			continue
		}
		if now.Sub(conn.lastUsed) > p.idleTimeout || !conn.client.IsConnected() {
			conn.client.Close()
			delete(p.connections, key)
			continue
		}
		idle++
	}

	for key, conn := range p.connections {
		if idle <= p.maxIdle {
			break
		}
		if conn.refs == 0 {
			conn.client.Close()
			delete(p.connections, key)
			idle--
		}
	}
}
