package mailer

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeSMTP accepts one session and records the DATA payload.
type fakeSMTP struct {
	ln   net.Listener
	mu   sync.Mutex
	rcpt []string
	data string
	done chan struct{}
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeSMTP{ln: ln, done: make(chan struct{})}
	t.Cleanup(func() { ln.Close() })
	go f.serve()
	return f
}

func (f *fakeSMTP) serve() {
	defer close(f.done)
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

	reply("220 fake ready")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 fake")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			reply("250 ok")
		case strings.HasPrefix(cmd, "RCPT TO"):
			f.mu.Lock()
			f.rcpt = append(f.rcpt, strings.TrimSpace(line))
			f.mu.Unlock()
			reply("250 ok")
		case cmd == "DATA":
			reply("354 go ahead")
			var b strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			f.mu.Lock()
			f.data = b.String()
			f.mu.Unlock()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("502 not implemented")
		}
	}
}

func TestMailerSend(t *testing.T) {
	srv := startFakeSMTP(t)
	core, logs := observer.New(zap.InfoLevel)

	m := New(Config{
		Addr:       srv.ln.Addr().String(),
		From:       "noreply@glyphgate.test",
		Timeout:    2 * time.Second,
		SubjPrefix: "[glyphgate]",
	}, zap.New(core))

	err := m.Send(context.Background(), "user@example.com", "Verify your email", "click here")
	require.NoError(t, err)

	<-srv.done
	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.rcpt, 1)
	assert.Contains(t, srv.rcpt[0], "user@example.com")
	assert.Contains(t, srv.data, "Subject: [glyphgate] Verify your email")
	assert.Contains(t, srv.data, "click here")
	assert.Equal(t, 1, logs.FilterMessage("email sent").Len())
}

func TestMailerDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	m := New(Config{Addr: addr, From: "a@b", Timeout: time.Second}, nil)
	err = m.Send(context.Background(), "user@example.com", "s", "b")
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core))

	require.NoError(t, s.Send(context.Background(), "user@example.com", "hello", "secret body"))
	entries := logs.All()
	require.Len(t, entries, 1)
	for _, f := range entries[0].Context {
		assert.NotEqual(t, "secret body", f.String)
	}
}

func TestHost(t *testing.T) {
	assert.Equal(t, "smtp.example.com", host("smtp.example.com:587"))
	assert.Equal(t, "smtp.example.com", host("smtp.example.com"))
}
