package dataservice

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/metrics"
)

// DefaultCallTimeout bounds a call when no timeout is configured.
const DefaultCallTimeout = 10 * time.Second

// InstrumentOptions configures the call guard placed in front of a backend.
type InstrumentOptions struct {
	Timeout time.Duration
	Metrics *metrics.DataServiceMetrics
	Now     func() time.Time
}

func (o InstrumentOptions) withDefaults() InstrumentOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultCallTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type guard struct {
	opts InstrumentOptions
}

// run bounds fn by the call timeout, records metrics and normalizes the error.
func (g guard) run(ctx context.Context, operation, table string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	start := g.opts.Now()
	err := normalizeError(callCtx, fn(callCtx))
	g.opts.Metrics.ObserveCall(operation, table, g.opts.Now().Sub(start))
	if err != nil && !errors.Is(err, ErrNoRows) {
		g.opts.Metrics.IncFailure(operation, table, string(pkgerrors.CodeOf(err)))
	}
	return err
}

func normalizeError(callCtx context.Context, err error) error {
	if err == nil || errors.Is(err, ErrNoRows) {
		return err
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "data service unreachable")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "data service request failed")
}

type instrumentedTables struct {
	next Tables
	g    guard
}

// InstrumentTables wraps next with the call timeout, metrics and error mapping.
func InstrumentTables(next Tables, opts InstrumentOptions) Tables {
	return &instrumentedTables{next: next, g: guard{opts: opts.withDefaults()}}
}

func (t *instrumentedTables) Select(ctx context.Context, q Query, dest any) error {
	return t.g.run(ctx, "select", q.Table, func(ctx context.Context) error {
		return t.next.Select(ctx, q, dest)
	})
}

func (t *instrumentedTables) Insert(ctx context.Context, table string, row any) error {
	return t.g.run(ctx, "insert", table, func(ctx context.Context) error {
		return t.next.Insert(ctx, table, row)
	})
}

func (t *instrumentedTables) Update(ctx context.Context, table string, filters []Filter, patch map[string]any, dest any) error {
	return t.g.run(ctx, "update", table, func(ctx context.Context) error {
		return t.next.Update(ctx, table, filters, patch, dest)
	})
}

func (t *instrumentedTables) Delete(ctx context.Context, table string, filters []Filter) error {
	return t.g.run(ctx, "delete", table, func(ctx context.Context) error {
		return t.next.Delete(ctx, table, filters)
	})
}

type instrumentedAuth struct {
	next Auth
	g    guard
}

// InstrumentAuth wraps next with the call timeout, metrics and error mapping.
func InstrumentAuth(next Auth, opts InstrumentOptions) Auth {
	return &instrumentedAuth{next: next, g: guard{opts: opts.withDefaults()}}
}

func (a *instrumentedAuth) GetSession(ctx context.Context) (*Session, error) {
	var out *Session
	err := a.g.run(ctx, "get_session", "", func(ctx context.Context) error {
		var err error
		out, err = a.next.GetSession(ctx)
		return err
	})
	return out, err
}

func (a *instrumentedAuth) OnAuthStateChange(listener AuthChangeListener) Subscription {
	return a.next.OnAuthStateChange(listener)
}

func (a *instrumentedAuth) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var out *Session
	err := a.g.run(ctx, "sign_in", "", func(ctx context.Context) error {
		var err error
		out, err = a.next.SignInWithPassword(ctx, email, password)
		return err
	})
	return out, err
}

func (a *instrumentedAuth) SignUp(ctx context.Context, email, password string, metadata SignUpMetadata) (*SignUpResult, error) {
	var out *SignUpResult
	err := a.g.run(ctx, "sign_up", "", func(ctx context.Context) error {
		var err error
		out, err = a.next.SignUp(ctx, email, password, metadata)
		return err
	})
	return out, err
}

func (a *instrumentedAuth) SignOut(ctx context.Context) error {
	return a.g.run(ctx, "sign_out", "", a.next.SignOut)
}

func (a *instrumentedAuth) GetUser(ctx context.Context) (*User, error) {
	var out *User
	err := a.g.run(ctx, "get_user", "", func(ctx context.Context) error {
		var err error
		out, err = a.next.GetUser(ctx)
		return err
	})
	return out, err
}
