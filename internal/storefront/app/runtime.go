package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/shophub/internal/storefront/authclient"
	"github.com/abgdnv/shophub/internal/storefront/catalog"
	"github.com/abgdnv/shophub/internal/storefront/session"
)

// ErrStopped is returned by Dispatch once the runtime has stopped.
var ErrStopped = errors.New("runtime stopped")

// Authenticator is the auth service as seen by the storefront.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*authclient.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (*authclient.AuthResponse, error)
}

type envelope struct {
	cmd   Command
	reply chan State
}

// Runtime processes commands one at a time on a single goroutine.
// AuthTasks run on their own goroutines and post AuthCompleted back, so every state change happens on the loop.
type Runtime struct {
	auth   Authenticator
	store  session.Store
	now    func() time.Time
	logger *slog.Logger

	inbox chan envelope
	done  chan struct{}
	tasks sync.WaitGroup

	mu          sync.RWMutex
	state       State
	subscribers []func(State)
	idle        []chan State
}

// NewRuntime restores the stored session and builds the initial state.
// A corrupt stored session is discarded.
func NewRuntime(c catalog.Catalog, auth Authenticator, store session.Store, logger *slog.Logger) *Runtime {
	logger = logger.With("component", "runtime")
	restored, err := session.Restore(store)
	if err != nil {
		logger.Warn("discarding stored session", "error", err)
		if err := session.Forget(store); err != nil {
			logger.Error("failed to clear stored session", "error", err)
		}
	}
	if restored.Present() {
		logger.Info("session restored", "email", restored.Identity.Email)
	}
	return &Runtime{
		auth:   auth,
		store:  store,
		now:    time.Now,
		logger: logger,
		inbox:  make(chan envelope),
		done:   make(chan struct{}),
		state:  NewState(c, restored),
	}
}

// State returns the latest state.
func (r *Runtime) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Subscribe registers fn to receive the state after every processed command.
// fn runs on the loop goroutine and must not call Dispatch.
func (r *Runtime) Subscribe(fn func(State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Run processes commands until ctx is cancelled, then waits for in-flight tasks to return.
func (r *Runtime) Run(ctx context.Context) error {
	defer func() {
		close(r.done)
		r.tasks.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-r.inbox:
			next := r.apply(ctx, env.cmd)
			if env.reply != nil {
				env.reply <- next
			}
		}
	}
}

// Dispatch queues cmd and returns the state right after it was processed.
// Checkout commands without a date are stamped with the current time.
func (r *Runtime) Dispatch(ctx context.Context, cmd Command) (State, error) {
	if c, ok := cmd.(Checkout); ok && c.Now.IsZero() {
		c.Now = r.now()
		cmd = c
	}
	env := envelope{cmd: cmd, reply: make(chan State, 1)}
	select {
	case r.inbox <- env:
	case <-r.done:
		return r.State(), ErrStopped
	case <-ctx.Done():
		return r.State(), ctx.Err()
	}
	select {
	case s := <-env.reply:
		return s, nil
	case <-ctx.Done():
		return r.State(), ctx.Err()
	}
}

// WaitIdle blocks until no authentication request is in flight.
func (r *Runtime) WaitIdle(ctx context.Context) (State, error) {
	r.mu.Lock()
	if r.state.Pending == 0 {
		s := r.state
		r.mu.Unlock()
		return s, nil
	}
	ch := make(chan State, 1)
	r.idle = append(r.idle, ch)
	r.mu.Unlock()

	select {
	case s := <-ch:
		return s, nil
	case <-r.done:
		return r.State(), ErrStopped
	case <-ctx.Done():
		return r.State(), ctx.Err()
	}
}

func (r *Runtime) apply(ctx context.Context, cmd Command) State {
	r.mu.Lock()
	next, tasks := Reduce(r.state, cmd)
	r.state = next
	subscribers := append([]func(State){}, r.subscribers...)
	var idle []chan State
	if next.Pending == 0 {
		idle, r.idle = r.idle, nil
	}
	r.mu.Unlock()

	for _, t := range tasks {
		r.run(ctx, t)
	}
	for _, fn := range subscribers {
		fn(next)
	}
	for _, ch := range idle {
		ch <- next
	}
	return next
}

func (r *Runtime) run(ctx context.Context, t Task) {
	switch task := t.(type) {
	case SaveSession:
		if err := session.Persist(r.store, task.Session); err != nil {
			r.logger.ErrorContext(ctx, "failed to persist session", "error", err)
		}
	case ClearSession:
		if err := session.Forget(r.store); err != nil {
			r.logger.ErrorContext(ctx, "failed to clear session", "error", err)
		}
	case AuthTask:
		r.tasks.Add(1)
		go func() {
			defer r.tasks.Done()
			done := r.authenticate(ctx, task)
			select {
			case r.inbox <- envelope{cmd: done}:
			case <-r.done:
			}
		}()
	}
}

func (r *Runtime) authenticate(ctx context.Context, task AuthTask) AuthCompleted {
	var (
		resp *authclient.AuthResponse
		err  error
	)
	switch task.Kind {
	case AuthRegister:
		resp, err = r.auth.Register(ctx, task.Name, task.Email, task.Password)
	default:
		resp, err = r.auth.Login(ctx, task.Email, task.Password)
	}
	if err != nil {
		r.logger.WarnContext(ctx, "authentication failed", "email", task.Email, "error", err)
		return AuthCompleted{Kind: task.Kind, Err: err}
	}
	return AuthCompleted{
		Kind:     task.Kind,
		Identity: session.Identity{ID: resp.User.ID, Name: resp.User.Name, Email: resp.User.Email},
		Token:    resp.Token,
	}
}
