package notify

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func TestSMTPSender_HonorsContextDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// A relay that accepts the connection and then never greets.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	s := NewSMTPSender(host, port, "no-reply@meetsched.local")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := s.Send(ctx, Message{ToEmail: "jane@example.com", Subject: "hi", Body: "hello"}); err == nil {
		t.Fatal("send against a silent relay must fail")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("send ignored the context deadline, took %v", elapsed)
	}
}

func TestSMTPSender_DefaultFrom(t *testing.T) {
	s := NewSMTPSender("mailpit", "1025", "  ")
	if s.from != "no-reply@meetsched.local" {
		t.Fatalf("from = %q", s.from)
	}
	if s.addr != "mailpit:1025" {
		t.Fatalf("addr = %q", s.addr)
	}

	raw := buildMIMEMessage(s.from, Message{ToEmail: "jane@example.com", Email: "reply@example.com", Subject: "hi", Body: "hello"})
	if !strings.Contains(raw, "Reply-To: reply@example.com\r\n") {
		t.Fatalf("mime message missing reply-to:\n%s", raw)
	}
}
