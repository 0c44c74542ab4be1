package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/muurk/printlink/internal/request"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) (*Sender, string) {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	cfg, err := NewTLSConfig(TLSOptions{InsecureSkipVerify: true})
	if err != nil {
		t.Fatalf("NewTLSConfig() error = %v", err)
	}
	sender := NewSender(NewHTTPClient(cfg, 2*time.Second))
	return sender, strings.TrimPrefix(server.URL, "https://")
}

func TestSender_Send(t *testing.T) {
	var gotMethod, gotPath, gotBody, gotHeader string

	sender, host := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotHeader = r.Header.Get("File-Name")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := NewRequestWithBody(request.SendFile, []byte("G28\n"))
	req.Header.Set("File-Name", "cube.gcode")

	resp, err := sender.Send(context.Background(), host, req)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotPath != "/send-file" {
		t.Errorf("path = %s, want /send-file", gotPath)
	}
	if gotHeader != "cube.gcode" {
		t.Errorf("File-Name = %q", gotHeader)
	}
	if gotBody != "G28\n" {
		t.Errorf("body = %q", gotBody)
	}
	if resp.StatusCode != http.StatusCreated || !resp.OK() {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Errorf("Body = %s", resp.Body)
	}
}

func TestSender_MethodOverride(t *testing.T) {
	var gotMethod string
	sender, host := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
	})

	req := NewRequest(request.DeleteFile)
	req.Method = http.MethodPost

	if _, err := sender.Send(context.Background(), host, req); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
}

func TestSender_Head(t *testing.T) {
	var gotMethod, gotPath string
	sender, host := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		// Any status counts as found
		w.WriteHeader(http.StatusNotFound)
	})

	if err := sender.Head(context.Background(), host, "find_printer"); err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if gotMethod != http.MethodHead || gotPath != "/find_printer" {
		t.Errorf("got %s %s", gotMethod, gotPath)
	}
}

func TestSender_ResponseTooLarge(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"at limit", 64, false},
		{"over limit", 65, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, host := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("x", tt.size)))
			})
			sender.MaxBody = 64

			resp, err := sender.Send(context.Background(), host, NewRequest(request.ListFiles))
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Send() error = %v", err)
				}
				if len(resp.Body) != tt.size {
					t.Errorf("body = %d bytes, want %d", len(resp.Body), tt.size)
				}
				return
			}

			if !errors.Is(err, ErrResponseTooLarge) {
				t.Fatalf("Send() error = %v, want ErrResponseTooLarge", err)
			}
			if !IsDecode(err) {
				t.Errorf("error type = %v, want decode", err)
			}
			if CountsAsLinkFailure(err) {
				t.Error("oversized body should not count as a link failure")
			}
		})
	}
}

func TestSender_Timeout(t *testing.T) {
	release := make(chan struct{})
	sender, host := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := sender.Send(ctx, host, NewRequest(request.PrinterState))
	if !IsTimeout(err) {
		t.Errorf("Send() error = %v, want timeout", err)
	}
	if !CountsAsLinkFailure(err) {
		t.Error("timeout should count as a link failure")
	}
}

func TestSender_ConnectionRefused(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	host := strings.TrimPrefix(server.URL, "https://")
	server.Close()

	sender := NewSender(NewHTTPClient(nil, time.Second))
	_, err := sender.Send(context.Background(), host, NewRequest(request.ListFiles))
	if !IsNetwork(err) {
		t.Errorf("Send() error = %v, want network error", err)
	}
}
