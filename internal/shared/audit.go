package shared

import (
	"context"
	"fmt"
	"strconv"
)

// Severity levels stored with activity log entries.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// AuditEntry describes one action appended to the activity log.
type AuditEntry struct {
	ActorID      *int64
	Action       string
	Meta         map[string]any
	IP           string
	ResourceType string
	ResourceID   string
	Severity     string
}

// Auditor appends entries to the activity log. Record never fails the caller;
// write errors are handled inside the implementation.
type Auditor interface {
	Record(ctx context.Context, entry AuditEntry)
}

// NopAuditor discards entries.
type NopAuditor struct{}

// Record implements Auditor.
func (NopAuditor) Record(context.Context, AuditEntry) {}

// NewAuditEntry starts an entry attributed to the identity and client address
// found in ctx.
func NewAuditEntry(ctx context.Context, action string, meta map[string]any) AuditEntry {
	entry := AuditEntry{Action: action, Meta: meta, IP: ClientIPFromContext(ctx)}
	if id := IdentityFromContext(ctx); id != nil {
		v := id.UserID
		entry.ActorID = &v
	}
	return entry
}

// On tags the entry with the affected resource.
func (e AuditEntry) On(resourceType string, resourceID any) AuditEntry {
	e.ResourceType = resourceType
	e.ResourceID = formatID(resourceID)
	return e
}

func formatID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case int64:
		return strconv.FormatInt(id, 10)
	case int:
		return strconv.Itoa(id)
	default:
		return fmt.Sprint(id)
	}
}
