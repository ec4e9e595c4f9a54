// Package tenant carries the multi-tenant isolation boundary through a
// request's context. Tenant CRUD, billing plans, and quota management are
// the outer platform's concern (see Non-goals); the automation core only
// needs to know which tenant it is acting on.
package tenant

import "context"

type contextKey string

const idContextKey contextKey = "tenant_id"

// WithID returns a context carrying the given tenant id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idContextKey, id)
}

// IDFromContext retrieves the tenant id set by WithID.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(idContextKey).(string)
	return id, ok
}
