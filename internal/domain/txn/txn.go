// Package txn carries store transactions through a context so that repositories
// from different domains can take part in one atomic write.
package txn

import "context"

// Transactor runs fn atomically. Repositories called with the ctx passed to fn
// use the same underlying transaction. Nested calls join the outer transaction.
type Transactor interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

type hooksKey struct{}

// Hooks collects callbacks that must only run once the transaction committed.
type Hooks struct {
	fns []func(ctx context.Context)
}

// WithTx returns a context carrying the store specific transaction handle and
// a fresh hook list.
func WithTx(ctx context.Context, tx any) (context.Context, *Hooks) {
	h := &Hooks{}
	ctx = context.WithValue(ctx, txKey{}, tx)
	ctx = context.WithValue(ctx, hooksKey{}, h)
	return ctx, h
}

// From returns the transaction handle stored in ctx, or nil.
func From(ctx context.Context) any {
	return ctx.Value(txKey{})
}

// InTx reports whether ctx belongs to a running transaction.
func InTx(ctx context.Context) bool {
	return From(ctx) != nil
}

// Detach strips the transaction from ctx. Hooks run with a detached context.
func Detach(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, txKey{}, nil)
	return context.WithValue(ctx, hooksKey{}, nil)
}

// AfterCommit defers fn until the surrounding transaction committed. Outside a
// transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if h, ok := ctx.Value(hooksKey{}).(*Hooks); ok && h != nil {
		h.fns = append(h.fns, fn)
		return
	}
	fn(ctx)
}

// Run executes the collected hooks with a detached context.
func (h *Hooks) Run(ctx context.Context) {
	ctx = Detach(ctx)
	for _, fn := range h.fns {
		fn(ctx)
	}
	h.fns = nil
}
