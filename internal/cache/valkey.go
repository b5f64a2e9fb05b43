package cache

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miradorstack/review-intel/internal/utils"
)

// ValkeyProvider implements Provider against a Valkey or Redis-compatible
// server. Each call dials a fresh connection.
type ValkeyProvider struct {
	cfg    ValkeyConfig
	policy utils.RetryPolicy
}

// ValkeyConfig holds connection parameters.
type ValkeyConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
	TLS          bool
}

// NewValkeyProvider creates a Provider and pings the server so bad
// credentials or addresses fail at startup.
func NewValkeyProvider(ctx context.Context, cfg ValkeyConfig) (*ValkeyProvider, error) {
	if cfg.Addr == "" {
		return nil, utils.ConfigError("cache.NewValkeyProvider", "valkey addr is required", nil)
	}
	normaliseDurations(&cfg)
	p := &ValkeyProvider{
		cfg: cfg,
		policy: utils.RetryPolicy{
			CallTimeout: cfg.DialTimeout + cfg.ReadTimeout + cfg.WriteTimeout,
			MaxAttempts: cfg.MaxRetries,
			BaseBackoff: 25 * time.Millisecond,
		},
	}
	if err := p.Ping(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Ping checks that the server answers PONG.
func (p *ValkeyProvider) Ping(ctx context.Context) error {
	reply, err := p.do(ctx, "PING")
	if err != nil {
		return err
	}
	if reply.typ != replySimpleString || string(reply.data) != "PONG" {
		return fmt.Errorf("unexpected PING response: %q", reply.data)
	}
	return nil
}

// Get fetches bytes by key, returning ErrCacheMiss when the key is absent.
func (p *ValkeyProvider) Get(ctx context.Context, key string) ([]byte, error) {
	reply, err := p.do(ctx, "GET", key)
	if err != nil {
		return nil, err
	}
	switch reply.typ {
	case replyNil:
		return nil, ErrCacheMiss
	case replyBulkString:
		return reply.data, nil
	default:
		return nil, fmt.Errorf("unexpected valkey reply type %q for GET", reply.typ)
	}
}

// Set stores bytes, expiring them after ttl when ttl is positive.
func (p *ValkeyProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := []string{key, string(value)}
	if ttl > 0 {
		args = append(args, "PX", strconv.FormatInt(ttl.Milliseconds(), 10))
	}
	reply, err := p.do(ctx, "SET", args...)
	if err != nil {
		return err
	}
	if reply.typ != replySimpleString || string(reply.data) != "OK" {
		return fmt.Errorf("unexpected SET response: %q", reply.data)
	}
	return nil
}

// Close is a no-op; connections are per call.
func (p *ValkeyProvider) Close() error { return nil }

// do runs one command on a fresh connection. Network failures are retried;
// error replies from the server are not.
func (p *ValkeyProvider) do(ctx context.Context, command string, args ...string) (respReply, error) {
	reply, _, err := utils.Retry(ctx, "cache.valkey."+strings.ToLower(command), p.policy, func(ctx context.Context) (respReply, error) {
		vc, err := p.dial(ctx)
		if err != nil {
			return respReply{}, err
		}
		defer vc.close()

		if err := p.bootstrap(vc); err != nil {
			return respReply{}, err
		}
		if err := vc.write(append([]string{command}, args...)...); err != nil {
			return respReply{}, err
		}
		return vc.readReply()
	})
	return reply, err
}

func (p *ValkeyProvider) dial(ctx context.Context) (*valkeyConn, error) {
	dialer := net.Dialer{Timeout: p.cfg.DialTimeout}
	var (
		conn net.Conn
		err  error
	)
	if p.cfg.TLS {
		tlsDialer := tls.Dialer{NetDialer: &dialer, Config: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: hostForTLS(p.cfg.Addr)}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", p.cfg.Addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", p.cfg.Addr)
	}
	if err != nil {
		return nil, err
	}
	return &valkeyConn{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
		cfg:    p.cfg,
	}, nil
}

func (p *ValkeyProvider) bootstrap(vc *valkeyConn) error {
	if p.cfg.Password != "" {
		cmd := []string{"AUTH"}
		if p.cfg.Username != "" {
			cmd = append(cmd, p.cfg.Username)
		}
		if err := vc.expectOK(append(cmd, p.cfg.Password)...); err != nil {
			return &utils.Permanent{Err: fmt.Errorf("valkey auth: %w", err)}
		}
	}
	if p.cfg.DB > 0 {
		if err := vc.expectOK("SELECT", strconv.Itoa(p.cfg.DB)); err != nil {
			return &utils.Permanent{Err: fmt.Errorf("valkey select: %w", err)}
		}
	}
	return nil
}

// replyType enumerates the subset of RESP types the provider reads.
type replyType string

const (
	replySimpleString replyType = "+"
	replyBulkString   replyType = "$"
	replyInteger      replyType = ":"
	replyNil          replyType = "_"
)

type respReply struct {
	typ  replyType
	data []byte
}

type valkeyConn struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	cfg    ValkeyConfig
}

func (vc *valkeyConn) close() {
	_ = vc.conn.Close()
}

func (vc *valkeyConn) write(parts ...string) error {
	if err := vc.conn.SetWriteDeadline(time.Now().Add(vc.cfg.WriteTimeout)); err != nil {
		return err
	}
	fmt.Fprintf(vc.writer, "*%d\r\n", len(parts))
	for _, part := range parts {
		fmt.Fprintf(vc.writer, "$%d\r\n%s\r\n", len(part), part)
	}
	return vc.writer.Flush()
}

func (vc *valkeyConn) expectOK(parts ...string) error {
	if err := vc.write(parts...); err != nil {
		return err
	}
	reply, err := vc.readReply()
	if err != nil {
		return err
	}
	if reply.typ != replySimpleString || !strings.EqualFold(string(reply.data), "OK") {
		return fmt.Errorf("unexpected reply %q", reply.data)
	}
	return nil
}

func (vc *valkeyConn) readReply() (respReply, error) {
	if err := vc.conn.SetReadDeadline(time.Now().Add(vc.cfg.ReadTimeout)); err != nil {
		return respReply{}, err
	}
	prefix, err := vc.reader.ReadByte()
	if err != nil {
		return respReply{}, err
	}
	line, err := vc.readLine()
	if err != nil {
		return respReply{}, err
	}
	switch prefix {
	case '+':
		return respReply{typ: replySimpleString, data: line}, nil
	case '-':
		return respReply{}, &utils.Permanent{Err: errors.New(string(line))}
	case ':':
		return respReply{typ: replyInteger, data: line}, nil
	case '$':
		size, err := strconv.Atoi(string(line))
		if err != nil {
			return respReply{}, err
		}
		if size < 0 {
			return respReply{typ: replyNil}, nil
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(vc.reader, buf); err != nil {
			return respReply{}, err
		}
		if buf[size] != '\r' || buf[size+1] != '\n' {
			return respReply{}, errors.New("invalid line termination")
		}
		return respReply{typ: replyBulkString, data: buf[:size]}, nil
	default:
		return respReply{}, fmt.Errorf("unexpected RESP prefix %q", prefix)
	}
}

func (vc *valkeyConn) readLine() ([]byte, error) {
	line, err := vc.reader.ReadString('\n')
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

func normaliseDurations(cfg *ValkeyConfig) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 500 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 500 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
}

func hostForTLS(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
