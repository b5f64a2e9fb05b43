package cache

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/miradorstack/review-intel/internal/utils"
)

func TestMemoryProviderExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryProvider()
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "a", []byte("1"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := m.Set(ctx, "b", []byte("2"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := m.Get(ctx, "a")
	if err != nil || string(got) != "1" {
		t.Fatalf("expected hit, got %q %v", got, err)
	}
	got[0] = 'x'
	if again, _ := m.Get(ctx, "a"); string(again) != "1" {
		t.Fatalf("stored value was mutated through returned slice")
	}

	now = now.Add(time.Minute)
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expiry, got %v", err)
	}
	if _, err := m.Get(ctx, "b"); err != nil {
		t.Fatalf("entry without ttl expired: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected expired entry removed, len %d", m.Len())
	}
	if err := m.Close(); err != nil || m.Len() != 0 {
		t.Fatalf("close should clear entries")
	}
}

func TestNoopProvider(t *testing.T) {
	var p Provider = NoopProvider{}
	if err := p.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := p.Get(context.Background(), "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}

// fakeValkey speaks enough RESP for PING, AUTH, GET and SET.
type fakeValkey struct {
	ln       net.Listener
	password string

	mu    sync.Mutex
	store map[string]string
	ttls  map[string]string
}

func newFakeValkey(t *testing.T, password string) *fakeValkey {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeValkey{ln: ln, password: password, store: map[string]string{}, ttls: map[string]string{}}
	go f.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return f
}

func (f *fakeValkey) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeValkey) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	authed := f.password == ""
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		var reply string
		switch strings.ToUpper(args[0]) {
		case "PING":
			reply = "+PONG\r\n"
		case "AUTH":
			if args[len(args)-1] == f.password {
				authed = true
				reply = "+OK\r\n"
			} else {
				reply = "-WRONGPASS invalid password\r\n"
			}
		case "GET":
			f.mu.Lock()
			v, ok := f.store[args[1]]
			f.mu.Unlock()
			switch {
			case !authed:
				reply = "-NOAUTH Authentication required\r\n"
			case ok:
				reply = "$" + strconv.Itoa(len(v)) + "\r\n" + v + "\r\n"
			default:
				reply = "$-1\r\n"
			}
		case "SET":
			if !authed {
				reply = "-NOAUTH Authentication required\r\n"
				break
			}
			f.mu.Lock()
			f.store[args[1]] = args[2]
			if len(args) == 5 {
				f.ttls[args[1]] = args[4]
			}
			f.mu.Unlock()
			reply = "+OK\r\n"
		default:
			reply = "-ERR unknown command\r\n"
		}
		if _, err := io.WriteString(conn, reply); err != nil {
			return
		}
	}
}

func readCommand(r *bufio.Reader) ([]string, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(header, "*")))
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, n)
	for range n {
		sizeLine, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(sizeLine, "$")))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func TestValkeyProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	server := newFakeValkey(t, "secret")

	p, err := NewValkeyProvider(ctx, ValkeyConfig{Addr: server.ln.Addr().String(), Password: "secret"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := p.Get(ctx, "score:abc"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := p.Set(ctx, "score:abc", []byte("-0.25"), 90*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := p.Get(ctx, "score:abc")
	if err != nil || string(got) != "-0.25" {
		t.Fatalf("expected stored value, got %q %v", got, err)
	}
	server.mu.Lock()
	ttl := server.ttls["score:abc"]
	server.mu.Unlock()
	if ttl != "90000" {
		t.Fatalf("expected PX 90000, got %q", ttl)
	}
}

func TestValkeyProviderRejectsBadPassword(t *testing.T) {
	server := newFakeValkey(t, "secret")
	_, err := NewValkeyProvider(context.Background(), ValkeyConfig{Addr: server.ln.Addr().String(), Password: "wrong", MaxRetries: 3})
	if err == nil || !strings.Contains(err.Error(), "WRONGPASS") {
		t.Fatalf("expected auth failure, got %v", err)
	}
}

func TestValkeyProviderRequiresAddr(t *testing.T) {
	if _, err := NewValkeyProvider(context.Background(), ValkeyConfig{}); !errors.Is(err, utils.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
