package services

import "context"

// Auditor records audit trail entries. Implementations must swallow
// their own failures, a broken trail never fails the business flow.
type Auditor interface {
	Record(ctx context.Context, entry AuditEntry)
}
