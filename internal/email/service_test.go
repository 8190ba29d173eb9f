package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{name: "empty config", config: Config{}, expected: false},
		{name: "missing host", config: Config{Port: "587", From: "hub@example.com"}, expected: false},
		{name: "missing port", config: Config{Host: "smtp.example.com", From: "hub@example.com"}, expected: false},
		{name: "missing from", config: Config{Host: "smtp.example.com", Port: "587"}, expected: false},
		{name: "fully configured", config: Config{Host: "smtp.example.com", Port: "587", From: "hub@example.com"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newCapturingService(t *testing.T) (*Service, *[]capturedMail) {
	t.Helper()
	svc := NewService(Config{
		Host:      "smtp.example.com",
		Port:      "587",
		From:      "hub@example.com",
		FromName:  "Study Hub",
		PublicURL: "https://hub.example.com/",
	})
	var sent []capturedMail
	svc.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, capturedMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}
	return svc, &sent
}

func TestSendJoinRequest(t *testing.T) {
	svc, sent := newCapturingService(t)
	if err := svc.SendJoinRequest("admin@example.com", "Ada", "Grace", "spc_1", "Calculus"); err != nil {
		t.Fatalf("SendJoinRequest() error = %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(*sent))
	}
	mail := (*sent)[0]
	if mail.addr != "smtp.example.com:587" || mail.to[0] != "admin@example.com" {
		t.Fatalf("unexpected envelope %+v", mail)
	}
	for _, want := range []string{
		"Subject: New join request for Calculus",
		"From: Study Hub <hub@example.com>",
		"https://hub.example.com/spaces/spc_1",
		"<strong>Grace</strong>",
		"Content-Type: text/plain",
	} {
		if !strings.Contains(mail.msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSendJoinDecision(t *testing.T) {
	svc, sent := newCapturingService(t)
	if err := svc.SendJoinDecision("grace@example.com", "Grace", "spc_1", "Calculus", true); err != nil {
		t.Fatalf("approve mail: %v", err)
	}
	if err := svc.SendJoinDecision("grace@example.com", "Grace", "spc_1", "Calculus", false); err != nil {
		t.Fatalf("reject mail: %v", err)
	}
	if !strings.Contains((*sent)[0].msg, "was approved") || !strings.Contains((*sent)[0].msg, "Open space") {
		t.Error("approval mail should link to the space")
	}
	if !strings.Contains((*sent)[1].msg, "declined") || strings.Contains((*sent)[1].msg, "Open space") {
		t.Error("rejection mail should not link to the space")
	}
}

func TestTemplatesEscapeUserText(t *testing.T) {
	svc, sent := newCapturingService(t)
	if err := svc.SendJoinRequest("admin@example.com", "Ada", "<b>Mallory</b>", "spc_1", "Physics"); err != nil {
		t.Fatalf("SendJoinRequest() error = %v", err)
	}
	if strings.Contains((*sent)[0].msg, "<strong><b>Mallory</b></strong>") {
		t.Error("requester name must be escaped in the HTML part")
	}
}

func TestSendWithoutConfig(t *testing.T) {
	svc := NewService(Config{})
	if err := svc.SendJoinDecision("x@example.com", "X", "spc", "S", true); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
