// Package service holds one data access service per entity. Each service owns
// the entity's cached collection, its mutations and a single edit session
// bound to a form.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"perfume-backoffice/internal/cache"
	"perfume-backoffice/internal/form"
	"perfume-backoffice/internal/models"
	"perfume-backoffice/internal/schema"
	"perfume-backoffice/internal/store"

	"go.uber.org/zap"
)

var (
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrNoEditSession    = errors.New("no edit session")
)

// Deps are shared by every service.
type Deps struct {
	Store   store.Store
	Cache   *cache.Client
	Mirror  cache.Mirror
	TTL     time.Duration
	Timeout time.Duration
}

func (d Deps) options(prependNew bool) cache.Options {
	return cache.Options{TTL: d.TTL, Mirror: d.Mirror, PrependNew: prependNew}
}

func (d Deps) register(inv cache.Invalidator) {
	if d.Cache != nil {
		d.Cache.Register(inv)
	}
}

// remote bounds a call to the store.
func (d Deps) remote(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.Timeout)
}

func logDiagnostics(entity string, diags []schema.Diagnostic) {
	for _, d := range diags {
		zap.S().Warnw("dropped invalid row", "entity", entity, "index", d.Index, "id", d.ID, "error", d.Err)
	}
}

type Phase int

const (
	Idle Phase = iota
	Editing
	Submitting
)

func (p Phase) String() string {
	switch p {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	default:
		return "idle"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Session describes the edit session of a service. TargetID is empty while
// creating a new record.
type Session struct {
	Phase    Phase  `json:"phase"`
	TargetID string `json:"target_id,omitempty"`
	New      bool   `json:"new"`
}

// editor is the Idle -> Editing -> Submitting state machine shared by the
// entity services. gen changes whenever the session is replaced, so a
// submission that settles after a newer BeginEdit or CancelEdit leaves the
// newer session alone.
type editor[F any] struct {
	mu     sync.Mutex
	phase  Phase
	target string
	gen    uint64
	form   *form.Form[F]
}

func newEditor[F any](f *form.Form[F]) *editor[F] {
	return &editor[F]{form: f}
}

func (e *editor[F]) begin(target string, seed F) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = Editing
	e.target = target
	e.gen++
	e.form.ResetTo(seed)
}

func (e *editor[F]) beginNew() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = Editing
	e.target = ""
	e.gen++
	e.form.Reset()
}

func (e *editor[F]) cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = Idle
	e.target = ""
	e.gen++
	e.form.Reset()
}

func (e *editor[F]) session() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Session{Phase: e.phase, TargetID: e.target, New: e.phase != Idle && e.target == ""}
}

// update changes form values while a session is open.
func (e *editor[F]) update(fn func(*F)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == Idle {
		return ErrNoEditSession
	}
	e.form.Update(fn)
	return nil
}

// submission is one persist attempt of an editor session.
type submission[F any] struct {
	target string
	values F
	gen    uint64
	e      *editor[F]
}

// amend changes the session form while this submission's session is still
// open. A newer session is left alone.
func (s submission[F]) amend(fn func(*F)) {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	if s.e.gen != s.gen {
		return
	}
	s.e.form.Update(fn)
}

// submit validates the form and runs persist with the session target. A
// validation failure makes no remote call. On success the session returns to
// Idle; on failure it stays Editing with the entered values.
func (e *editor[F]) submit(persist func(sub submission[F]) error) error {
	e.mu.Lock()
	switch e.phase {
	case Idle:
		e.mu.Unlock()
		return ErrNoEditSession
	case Submitting:
		e.mu.Unlock()
		return ErrSubmitInProgress
	}
	if err := e.form.Validate(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.phase = Submitting
	sub := submission[F]{target: e.target, values: e.form.Values(), gen: e.gen, e: e}
	e.mu.Unlock()

	err := persist(sub)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != sub.gen {
		return err
	}
	if err != nil {
		e.phase = Editing
		return err
	}
	e.phase = Idle
	e.target = ""
	e.gen++
	e.form.Reset()
	return nil
}

// FormView is what a view renders for a form.
type FormView[F any] struct {
	Session Session     `json:"session"`
	Values  F           `json:"values"`
	Errors  form.Errors `json:"errors,omitempty"`
}

func (e *editor[F]) view() FormView[F] {
	s := e.session()
	return FormView[F]{Session: s, Values: e.form.Values(), Errors: e.form.Errors()}
}

// patchString maps an empty form field to a cleared column.
func patchString(v string) models.Patch[string] {
	if v == "" {
		return models.Clear[string]()
	}
	return models.Set(v)
}
