// Package dstest provides in-process fakes of the data service for tests.
package dstest

import (
	"context"
	"sync"

	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
)

// Call is one recorded Tables invocation.
type Call struct {
	Op      string
	Table   string
	Query   dataservice.Query
	Filters []dataservice.Filter
	Patch   map[string]any
	Row     any
}

// Tables records every call and forwards it to Next when set. Hook, when set,
// runs first; a non-nil error from it is returned without forwarding.
type Tables struct {
	Next dataservice.Tables
	Hook func(call Call, dest any) error

	mu    sync.Mutex
	calls []Call
}

var _ dataservice.Tables = (*Tables)(nil)

func (t *Tables) Select(ctx context.Context, q dataservice.Query, dest any) error {
	return t.do(ctx, Call{Op: "select", Table: q.Table, Query: q, Filters: q.Filters}, dest, func() error {
		return t.Next.Select(ctx, q, dest)
	})
}

func (t *Tables) Insert(ctx context.Context, table string, row any) error {
	return t.do(ctx, Call{Op: "insert", Table: table, Row: row}, row, func() error {
		return t.Next.Insert(ctx, table, row)
	})
}

func (t *Tables) Update(ctx context.Context, table string, filters []dataservice.Filter, patch map[string]any, dest any) error {
	return t.do(ctx, Call{Op: "update", Table: table, Filters: filters, Patch: patch}, dest, func() error {
		return t.Next.Update(ctx, table, filters, patch, dest)
	})
}

func (t *Tables) Delete(ctx context.Context, table string, filters []dataservice.Filter) error {
	return t.do(ctx, Call{Op: "delete", Table: table, Filters: filters}, nil, func() error {
		return t.Next.Delete(ctx, table, filters)
	})
}

// Calls returns the recorded calls, optionally narrowed to one operation.
func (t *Tables) Calls(op string) []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, 0, len(t.calls))
	for _, c := range t.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (t *Tables) do(_ context.Context, call Call, dest any, forward func() error) error {
	t.mu.Lock()
	t.calls = append(t.calls, call)
	hook := t.Hook
	t.mu.Unlock()

	if hook != nil {
		if err := hook(call, dest); err != nil {
			return err
		}
	}
	if t.Next == nil {
		return nil
	}
	return forward()
}

// Auth is a scripted dataservice.Auth. Mutating methods emit the same events as
// the real provider.
type Auth struct {
	mu sync.Mutex

	Session       *dataservice.Session
	GetSessionErr error
	// GetSessionPanic makes GetSession panic with this value.
	GetSessionPanic any
	SignInSession   *dataservice.Session
	SignInErr       error
	SignUpResult    *dataservice.SignUpResult
	SignUpErr       error
	SignOutErr      error

	SignUpEmails   []string
	SignUpMetadata []dataservice.SignUpMetadata
	SignOutCalls   int

	nextID    int
	listeners map[int]dataservice.AuthChangeListener
	order     []int
}

var _ dataservice.Auth = (*Auth)(nil)

func (a *Auth) GetSession(context.Context) (*dataservice.Session, error) {
	a.mu.Lock()
	p, sess, err := a.GetSessionPanic, a.Session, a.GetSessionErr
	a.mu.Unlock()
	if p != nil {
		panic(p)
	}
	return sess, err
}

func (a *Auth) OnAuthStateChange(listener dataservice.AuthChangeListener) dataservice.Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listeners == nil {
		a.listeners = make(map[int]dataservice.AuthChangeListener)
	}
	a.nextID++
	id := a.nextID
	a.listeners[id] = listener
	a.order = append(a.order, id)
	return &subscription{release: func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}}
}

func (a *Auth) SignInWithPassword(ctx context.Context, _, _ string) (*dataservice.Session, error) {
	a.mu.Lock()
	sess, err := a.SignInSession, a.SignInErr
	if err == nil {
		a.Session = sess
	}
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}
	a.Emit(ctx, enums.AuthEventSignedIn, sess)
	return sess, nil
}

func (a *Auth) SignUp(ctx context.Context, email, _ string, metadata dataservice.SignUpMetadata) (*dataservice.SignUpResult, error) {
	a.mu.Lock()
	a.SignUpEmails = append(a.SignUpEmails, email)
	a.SignUpMetadata = append(a.SignUpMetadata, metadata)
	res, err := a.SignUpResult, a.SignUpErr
	if err == nil && res != nil && res.Session != nil {
		a.Session = res.Session
	}
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if res != nil && res.Session != nil {
		a.Emit(ctx, enums.AuthEventSignedIn, res.Session)
	}
	return res, nil
}

func (a *Auth) SignOut(ctx context.Context) error {
	a.mu.Lock()
	a.SignOutCalls++
	a.Session = nil
	err := a.SignOutErr
	a.mu.Unlock()
	a.Emit(ctx, enums.AuthEventSignedOut, nil)
	return err
}

func (a *Auth) GetUser(ctx context.Context) (*dataservice.User, error) {
	sess, err := a.GetSession(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	user := sess.User
	return &user, nil
}

// Emit delivers event to the current listeners in subscription order.
func (a *Auth) Emit(ctx context.Context, event enums.AuthEvent, sess *dataservice.Session) {
	a.mu.Lock()
	var targets []dataservice.AuthChangeListener
	for _, id := range a.order {
		if fn, ok := a.listeners[id]; ok {
			targets = append(targets, fn)
		}
	}
	a.mu.Unlock()
	for _, fn := range targets {
		fn(ctx, event, sess)
	}
}

// ListenerCount reports how many subscriptions are still active.
func (a *Auth) ListenerCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.listeners)
}

type subscription struct {
	once    sync.Once
	release func()
}

func (s *subscription) Unsubscribe() { s.once.Do(s.release) }
