package trafficlight

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"regexp"
	"time"
)

var (
	DefaultTCPMaxBytes = 32 * 1024
)

type TCPHookConfig struct {
	Host               string `yaml:"host"`
	Port               string `yaml:"port"`
	Send               string `yaml:"send"`
	Quit               string `yaml:"quit"`
	MaxBytes           int    `yaml:"max_bytes"`
	ExpectPattern      string `yaml:"expect_pattern"`
	TLS                bool   `yaml:"tls"`
	NoCheckCertificate bool   `yaml:"no_check_certificate"`
}

// TCPHook writes a line to a TCP endpoint (a signal head, a display board)
// on phase transitions. Send is expanded like HTTPHook's body.
type TCPHook struct {
	*hookRunner

	Host               string
	Port               string
	Send               string
	Quit               string
	MaxBytes           int
	ExpectPattern      *regexp.Regexp
	TLS                bool
	NoCheckCertificate bool
}

func NewTCPHook(cfg *HookConfig) (*TCPHook, error) {
	runner, err := newHookRunner(cfg)
	if err != nil {
		return nil, err
	}
	p := &TCPHook{
		hookRunner:         runner,
		MaxBytes:           cfg.TCP.MaxBytes,
		TLS:                cfg.TCP.TLS,
		NoCheckCertificate: cfg.TCP.NoCheckCertificate,
		Host:               cfg.TCP.Host,
		Port:               cfg.TCP.Port,
		Send:               cfg.TCP.Send,
		Quit:               cfg.TCP.Quit,
	}
	if cfg.TCP.ExpectPattern != "" {
		pt, err := regexp.Compile(cfg.TCP.ExpectPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid expect_pattern: %w", err)
		}
		p.ExpectPattern = pt
	}
	if p.MaxBytes == 0 {
		p.MaxBytes = DefaultTCPMaxBytes
	}
	return p, nil
}

func (p *TCPHook) OnTransition(ctx context.Context, from, to Phase, at time.Time) {
	p.dispatch(ctx, to, func(ctx context.Context, logger *slog.Logger) error {
		return p.send(ctx, logger.With("module", "tcphook"), from, to)
	})
}

func (p *TCPHook) send(ctx context.Context, logger *slog.Logger, from, to Phase) error {
	addr := net.JoinHostPort(p.Host, p.Port)
	conn, err := dialTCP(ctx, addr, p.TLS, p.NoCheckCertificate, p.timeout)
	if err != nil {
		return fmt.Errorf("tcp connect failed: %w", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(p.timeout))

	logger.Debug("connected", "addr", addr)
	if p.Send != "" {
		msg := os.Expand(p.Send, phaseMapping(from, to))
		logger.Debug("send", "message", msg)
		if _, err := io.WriteString(conn, msg); err != nil {
			return fmt.Errorf("tcp send failed: %w", err)
		}
	}
	if p.ExpectPattern != nil {
		buf := make([]byte, p.MaxBytes)
		r := bufio.NewReader(conn)
		n, err := r.Read(buf)
		if err != nil {
			return fmt.Errorf("tcp read failed: %w", err)
		}
		logger.Debug("read", "message", string(buf[:n]))

		if !p.ExpectPattern.Match(buf[:n]) {
			return fmt.Errorf("tcp unexpected response: %s", string(buf[:n]))
		}
	}
	if p.Quit != "" {
		io.WriteString(conn, p.Quit)
	}
	return nil
}

func dialTCP(ctx context.Context, address string, useTLS bool, noCheckCertificate bool, timeout time.Duration) (net.Conn, error) {
	d := &net.Dialer{Timeout: timeout}
	if useTLS {
		td := &tls.Dialer{
			NetDialer: d,
			Config: &tls.Config{
				InsecureSkipVerify: noCheckCertificate,
			},
		}
		return td.DialContext(ctx, "tcp", address)
	}
	return d.DialContext(ctx, "tcp", address)
}
