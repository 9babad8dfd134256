package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIPMiddlewareStripsPort(t *testing.T) {
	var got string
	h := ClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIPFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5123"
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "203.0.113.9" {
		t.Fatalf("unexpected ip %q", got)
	}
}

func TestNewAuditEntryUsesContext(t *testing.T) {
	ctx := ContextWithIdentity(context.Background(), &Identity{UserID: 7})
	ctx = ContextWithClientIP(ctx, "10.0.0.1")

	entry := NewAuditEntry(ctx, "task.created", map[string]any{"title": "x"}).On("task", int64(12))
	if entry.ActorID == nil || *entry.ActorID != 7 {
		t.Fatalf("expected actor 7, got %v", entry.ActorID)
	}
	if entry.IP != "10.0.0.1" || entry.ResourceType != "task" || entry.ResourceID != "12" {
		t.Fatalf("unexpected entry %+v", entry)
	}

	anon := NewAuditEntry(context.Background(), "auth.login", nil)
	if anon.ActorID != nil || anon.IP != "" {
		t.Fatalf("expected anonymous entry, got %+v", anon)
	}
}
