package mime

import (
	"bytes"
	"testing"
	"time"

	"easgateway/core/domain"
)

func TestBuilder_Build_PassesThroughRawMIME(t *testing.T) {
	raw := []byte("From: a@example.com\r\nSubject: x\r\n\r\nbody")
	b := NewBuilder()
	out, err := b.Build(domain.Item{RawMIME: raw})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !bytes.Equal(out, raw) {
		t.Errorf("Build() = %q, want verbatim RawMIME", out)
	}
}

func TestBuilder_Build_SynthesizesAlternative(t *testing.T) {
	item := domain.Item{
		Subject:    "Hello",
		From:       "Alice <alice@example.com>",
		To:         "bob@example.com",
		ReceivedAt: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
		PlainBody:  "hi there",
		HTMLBody:   "<p>hi there</p>",
	}
	b := NewBuilder()
	out, err := b.Build(item)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !bytes.Contains(out, []byte("Subject: Hello")) {
		t.Errorf("output missing Subject header: %s", out)
	}
	if !bytes.Contains(out, []byte("multipart/alternative")) {
		t.Errorf("output missing multipart/alternative: %s", out)
	}
	if !bytes.Contains(out, []byte("hi there")) {
		t.Errorf("output missing plain body: %s", out)
	}
	if !bytes.Contains(out, []byte("<p>hi there</p>")) {
		t.Errorf("output missing html body: %s", out)
	}
}

func TestBuilder_Build_SinglePartPlain(t *testing.T) {
	item := domain.Item{Subject: "Plain only", PlainBody: "just text"}
	b := NewBuilder()
	out, err := b.Build(item)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if bytes.Contains(out, []byte("multipart/")) {
		t.Errorf("single-part message unexpectedly multipart: %s", out)
	}
	if !bytes.Contains(out, []byte("just text")) {
		t.Errorf("output missing body: %s", out)
	}
}

func TestTruncate(t *testing.T) {
	raw := bytes.Repeat([]byte("a"), 1000)

	tests := []struct {
		name      string
		requested int
		wantLen   int
		wantTrunc bool
	}{
		{"under requested", 2000, 1000, false},
		{"exact", 1000, 1000, false},
		{"over requested cap", 500, 500, true},
		{"zero requested falls back to max", 0, 1000, false},
		{"requested above hard ceiling is capped", domain.MaxMIMETruncation + 1000, 1000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := Truncate(raw, tt.requested)
			if len(body.Data) != tt.wantLen {
				t.Errorf("len(Data) = %d, want %d", len(body.Data), tt.wantLen)
			}
			if body.Truncated != tt.wantTrunc {
				t.Errorf("Truncated = %v, want %v", body.Truncated, tt.wantTrunc)
			}
			if body.EstimatedDataSize != len(raw) {
				t.Errorf("EstimatedDataSize = %d, want %d", body.EstimatedDataSize, len(raw))
			}
		})
	}
}
