// Package simulate 模拟 MDS 交换机的 SSH 服务，按命令回放抓取的输出
package simulate

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/crypto/ssh"

	"github.com/sshcollectorpro/intreport/internal/util"
	"github.com/sshcollectorpro/intreport/pkg/logger"
)

const invalidCommand = "% Invalid command at '^' marker.\r\n"

// Config 模拟器配置
type Config struct {
	Listen   string `mapstructure:"listen"`
	Dir      string `mapstructure:"dir"`
	Hostname string `mapstructure:"hostname"`
	Password string `mapstructure:"password"`
	MaxConn  int    `mapstructure:"max_conn"`
	// IdleTimeout 交互式会话空闲超时，0 表示不限
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// LoadConfig 读取模拟器配置文件
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetDefault("listen", "127.0.0.1:2222")
	v.SetDefault("dir", "./testdata/replay")
	v.SetDefault("hostname", "mds-sim")
	v.SetDefault("password", "nova")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read simulate config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal simulate config: %w", err)
	}
	return cfg, nil
}

// Server 模拟交换机
type Server struct {
	cfg      Config
	listener net.Listener
	hostKey  ssh.Signer
	conns    map[net.Conn]struct{}
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// Start 监听并开始接受连接
func Start(cfg Config) (*Server, error) {
	if cfg.Hostname == "" {
		cfg.Hostname = "mds-sim"
	}
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:0"
	}
	signer, err := newHostKey()
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, listener: ln, hostKey: signer, conns: make(map[net.Conn]struct{})}
	go s.serve()
	logger.WithFields(logrus.Fields{"addr": s.Addr(), "dir": cfg.Dir}).Info("simulated switch listening")
	return s, nil
}

// Addr 实际监听地址
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Port 实际监听端口
func (s *Server) Port() int { return s.listener.Addr().(*net.TCPAddr).Port }

// Stop 关闭监听与现有连接，等待会话结束
func (s *Server) Stop() {
	_ = s.listener.Close()
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// newHostKey 每次启动生成临时 host key
func newHostKey() (ssh.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate host key: %w", err)
	}
	return ssh.NewSignerFromKey(priv)
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.WithError(err).Warn("simulate: accept failed")
			time.Sleep(200 * time.Millisecond)
			continue
		}
		s.mu.Lock()
		if s.cfg.MaxConn > 0 && len(s.conns) >= s.cfg.MaxConn {
			s.mu.Unlock()
			_ = conn.Close()
			logger.WithField("remote", conn.RemoteAddr().String()).Warn("simulate: max_conn exceeded")
			continue
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConn(c)
			s.mu.Lock()
			delete(s.conns, c)
			s.mu.Unlock()
		}(conn)
	}
}

func (s *Server) handleConn(nc net.Conn) {
	srvCfg := &ssh.ServerConfig{
		PasswordCallback: func(md ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if string(password) == s.cfg.Password {
				return nil, nil
			}
			return nil, fmt.Errorf("access denied for %s", md.User())
		},
		KeyboardInteractiveCallback: func(md ssh.ConnMetadata, challenge ssh.KeyboardInteractiveChallenge) (*ssh.Permissions, error) {
			answers, err := challenge(md.User(), "", []string{"Password: "}, []bool{false})
			if err != nil {
				return nil, err
			}
			if len(answers) == 1 && answers[0] == s.cfg.Password {
				return nil, nil
			}
			return nil, fmt.Errorf("access denied for %s", md.User())
		},
	}
	srvCfg.AddHostKey(s.hostKey)

	conn, chans, reqs, err := ssh.NewServerConn(nc, srvCfg)
	if err != nil {
		logger.WithError(err).WithField("remote", nc.RemoteAddr().String()).Debug("simulate: handshake failed")
		_ = nc.Close()
		return
	}
	defer conn.Close()
	go ssh.DiscardRequests(reqs)

	var sessions sync.WaitGroup
	for ch := range chans {
		if ch.ChannelType() != "session" {
			_ = ch.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := ch.Accept()
		if err != nil {
			logger.WithError(err).Warn("simulate: channel accept failed")
			continue
		}
		sessions.Add(1)
		go func() {
			defer sessions.Done()
			s.handleSession(channel, requests, conn.User())
		}()
	}
	sessions.Wait()
}

func (s *Server) handleSession(channel ssh.Channel, requests <-chan *ssh.Request, user string) {
	defer channel.Close()
	for req := range requests {
		switch req.Type {
		case "pty-req", "env":
			_ = req.Reply(true, nil)
		case "shell":
			_ = req.Reply(true, nil)
			s.runShell(channel, user)
			sendExitStatus(channel, 0)
			return
		case "exec":
			var msg struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &msg); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)
			out, ok := s.lookup(user, msg.Command)
			logger.WithFields(logrus.Fields{"user": user, "cmd": msg.Command, "hit": ok}).Debug("simulate: exec")
			if !ok {
				_, _ = channel.Stderr().Write([]byte(invalidCommand))
				sendExitStatus(channel, 1)
				return
			}
			_, _ = channel.Write([]byte(out))
			sendExitStatus(channel, 0)
			return
		default:
			_ = req.Reply(false, nil)
		}
	}
}

// runShell 交互式会话：提示符、逐行执行，exit 结束
func (s *Server) runShell(channel ssh.Channel, user string) {
	prompt := []byte(s.cfg.Hostname + "# ")
	_, _ = channel.Write(prompt)

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(channel)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()

	var idle <-chan time.Time
	for {
		if s.cfg.IdleTimeout > 0 {
			idle = time.After(s.cfg.IdleTimeout)
		}
		var line string
		var ok bool
		select {
		case line, ok = <-lines:
			if !ok {
				return
			}
		case <-idle:
			_, _ = channel.Write([]byte("\r\nSession closed due to idle timeout.\r\n"))
			return
		}

		cmd := strings.TrimSpace(strings.TrimRight(line, "\r"))
		switch {
		case cmd == "":
		case strings.EqualFold(cmd, "exit"), strings.EqualFold(cmd, "quit"):
			return
		default:
			out, found := s.lookup(user, cmd)
			if !found {
				out = invalidCommand
			}
			_, _ = channel.Write([]byte(out))
		}
		_, _ = channel.Write(prompt)
	}
}

// lookup 优先 <dir>/<user>/ 下的抓取文件，其次 <dir>/
func (s *Server) lookup(user, cmd string) (string, bool) {
	name := util.CaptureFile(cmd)
	candidates := []string{filepath.Join(s.cfg.Dir, name)}
	if u := util.Slug(user); u != "unknown" {
		candidates = append([]string{filepath.Join(s.cfg.Dir, u, name)}, candidates...)
	}
	for _, p := range candidates {
		if b, err := os.ReadFile(p); err == nil {
			return ensureCRLF(string(b)), true
		}
	}
	return "", false
}

func sendExitStatus(channel ssh.Channel, code uint32) {
	_, _ = channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{code}))
}

// ensureCRLF 设备输出使用 CRLF 行尾
func ensureCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\r\n")
	if !strings.HasSuffix(s, "\r\n") {
		s += "\r\n"
	}
	return s
}
