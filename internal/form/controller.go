// internal/form/controller.go
//
// Adept Sign-in – Forms subsystem: submission controller.
//
// Context
//   Controller owns the sign-in form state and runs one attempt per Submit:
//
//       Idle → Validating → Dispatching → Settled → Idle
//
//   •  Entry clears ServerError.  A trigger that arrives while another
//      attempt is in flight is refused with OutcomeBusy and changes nothing.
//   •  Validating runs Validate on the untrimmed field values.  Failures are
//      stored in Errors and the attempt ends without dispatch.
//   •  Dispatching sets InFlight, builds Credentials (email trimmed), and
//      calls the Submitter chosen at construction.  This is the only point
//      where the controller waits.
//   •  Settled records the failure message, if any, in ServerError.
//      InFlight is released by one deferred block on every exit path,
//      including a panicking handler.
//
// Concurrency
//   Every transition runs under mu as one transaction, so a reader never
//   sees InFlight=false next to a stale ServerError.  Observers receive a
//   copy of State after each transition, in transition order.  Observers
//   must not call Submit or the setters.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/adept-signin/internal/metrics"
)

// MsgSomethingWrong is shown when a failure carries no message.
const MsgSomethingWrong = "Something went wrong"

// DefaultBaseURL is used by the HTTP strategy when no base URL is given.
const DefaultBaseURL = "http://localhost:8080"

// Submit button labels.
const (
	LabelSignIn    = "Sign in"
	LabelSigningIn = "Signing in..."
)

// -----------------------------------------------------------------------------
// Outcome
// -----------------------------------------------------------------------------

// Outcome classifies how a Submit call ended.
type Outcome int

const (
	OutcomeSuccess           Outcome = iota // dispatched, submitter returned nil
	OutcomeValidationFailure                // Errors populated, no dispatch
	OutcomeTransportFailure                 // ServerError populated
	OutcomeBusy                             // refused, another attempt in flight
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidationFailure:
		return "validation"
	case OutcomeTransportFailure:
		return "transport"
	case OutcomeBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Result reports one Submit call.
type Result struct {
	Outcome Outcome
	Errors  FieldErrors // set for OutcomeValidationFailure
	Err     error       // *ValidationError or the submitter's error
}

// -----------------------------------------------------------------------------
// State
// -----------------------------------------------------------------------------

// State is a snapshot of the form.  ShowPassword belongs to the
// presentation layer and takes no part in submission.
type State struct {
	Email        string
	Password     string
	Remember     bool
	ShowPassword bool

	Errors      FieldErrors
	InFlight    bool
	ServerError string
}

// SubmitLabel is the submit control caption for this state.
func (s State) SubmitLabel() string {
	if s.InFlight {
		return LabelSigningIn
	}
	return LabelSignIn
}

// InputsEnabled reports whether inputs and the submit control accept use.
func (s State) InputsEnabled() bool { return !s.InFlight }

func (s State) copy() State {
	s.Errors = s.Errors.clone()
	return s
}

// -----------------------------------------------------------------------------
// Construction
// -----------------------------------------------------------------------------

// Option configures a Controller.
type Option func(*options)

type options struct {
	handler   Submitter
	baseURL   string
	client    *http.Client
	log       *zap.SugaredLogger
	observers []func(State)
}

// WithHandler injects a caller-supplied submitter.  It replaces the HTTP
// strategy entirely.  A nil handler (or nil HandlerFunc) is ignored.
func WithHandler(h Submitter) Option {
	return func(o *options) {
		if f, ok := h.(HandlerFunc); ok && f == nil {
			return
		}
		o.handler = h
	}
}

// WithHTTP configures the HTTP strategy used when no handler is injected.
func WithHTTP(baseURL string, client *http.Client) Option {
	return func(o *options) {
		o.baseURL = baseURL
		o.client = client
	}
}

// WithLogger sets the logger.  Defaults to a no-op logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) { o.log = l }
}

// WithObserver registers a callback that receives State after every
// transition.
func WithObserver(fn func(State)) Option {
	return func(o *options) { o.observers = append(o.observers, fn) }
}

// Controller runs sign-in attempts.  The zero value is not usable; call
// NewController.
type Controller struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	st       State

	submitter Submitter
	transport string // metrics label: handler | http
	log       *zap.SugaredLogger
	observers []func(State)
}

// NewController builds a Controller.  The transport is fixed here: the
// injected handler when present, otherwise an HTTPSubmitter.
func NewController(opts ...Option) *Controller {
	o := options{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop().Sugar()
	}

	c := &Controller{
		st:        State{Errors: FieldErrors{}},
		log:       o.log,
		observers: o.observers,
	}
	if o.handler != nil {
		c.submitter, c.transport = o.handler, "handler"
	} else {
		c.submitter, c.transport = NewHTTPSubmitter(o.baseURL, o.client), "http"
	}
	return c
}

// -----------------------------------------------------------------------------
// Field edits
// -----------------------------------------------------------------------------

// SetEmail stores the email field.  It returns false, changing nothing,
// while an attempt is in flight.
func (c *Controller) SetEmail(v string) bool { return c.edit(func(st *State) { st.Email = v }) }

// SetPassword stores the password field.  Same in-flight rule as SetEmail.
func (c *Controller) SetPassword(v string) bool {
	return c.edit(func(st *State) { st.Password = v })
}

// SetRemember stores the remember flag.  Same in-flight rule as SetEmail.
func (c *Controller) SetRemember(v bool) bool { return c.edit(func(st *State) { st.Remember = v }) }

// ToggleShowPassword flips password visibility and returns the new value.
// It is independent of the submission lifecycle.
func (c *Controller) ToggleShowPassword() bool {
	snap, _ := c.update(func(st *State) bool {
		st.ShowPassword = !st.ShowPassword
		return true
	})
	return snap.ShowPassword
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.copy()
}

func (c *Controller) edit(fn func(*State)) bool {
	_, ok := c.update(func(st *State) bool {
		if st.InFlight {
			return false
		}
		fn(st)
		return true
	})
	return ok
}

// update applies fn as one transaction and notifies observers when fn
// reports a change.  notifyMu is taken before mu is released so observers
// see transitions in order.
func (c *Controller) update(fn func(*State) bool) (State, bool) {
	c.mu.Lock()
	changed := fn(&c.st)
	snap := c.st.copy()
	if !changed {
		c.mu.Unlock()
		return snap, false
	}
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, obs := range c.observers {
		obs(snap.copy())
	}
	return snap, true
}

// -----------------------------------------------------------------------------
// Submit
// -----------------------------------------------------------------------------

// Submit runs one sign-in attempt.  It never returns an error: every failure
// ends up in State (Errors or ServerError) and in Result.
func (c *Controller) Submit(ctx context.Context) (res Result) {
	creds, early, ok := c.begin()
	if !ok {
		c.record(early)
		return early
	}

	start := time.Now()
	var err error
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("sign-in submitter panicked", "transport", c.transport, "panic", r)
			err = &panicError{value: r}
		}
		metrics.DispatchSeconds.WithLabelValues(c.transport).Observe(time.Since(start).Seconds())
		res = c.settle(err)
		c.record(res)
	}()

	err = c.submitter.Submit(ctx, creds)
	return res
}

// begin performs Entry and Validating and, on success, acquires the
// in-flight guard.  ok is false when no dispatch must happen.
func (c *Controller) begin() (creds Credentials, res Result, ok bool) {
	c.update(func(st *State) bool {
		if st.InFlight {
			res = Result{Outcome: OutcomeBusy}
			return false
		}
		st.ServerError = ""

		errs := Validate(st.Email, st.Password)
		st.Errors = errs
		if !errs.Valid() {
			res = Result{
				Outcome: OutcomeValidationFailure,
				Errors:  errs.clone(),
				Err:     &ValidationError{Fields: errs.clone()},
			}
			return true
		}

		st.InFlight = true
		creds = NewCredentials(st.Email, st.Password, st.Remember)
		ok = true
		return true
	})
	return creds, res, ok
}

// settle releases the in-flight guard and records the failure message.
func (c *Controller) settle(err error) Result {
	var res Result
	c.update(func(st *State) bool {
		st.InFlight = false
		if err != nil {
			st.ServerError = messageOf(err)
			res = Result{Outcome: OutcomeTransportFailure, Err: err}
		} else {
			res = Result{Outcome: OutcomeSuccess}
		}
		return true
	})

	if err != nil {
		c.log.Warnw("sign-in failed",
			"transport", c.transport,
			"message", messageOf(err),
		)
	} else {
		c.log.Infow("sign-in succeeded", "transport", c.transport)
	}
	return res
}

func (c *Controller) record(res Result) {
	metrics.SubmitTotal.WithLabelValues(res.Outcome.String()).Inc()
	if res.Outcome == OutcomeBusy {
		c.log.Debugw("submit ignored, attempt in flight")
	}
}

// messageOf returns err's text or MsgSomethingWrong when it has none.
func messageOf(err error) string {
	if msg := err.Error(); strings.TrimSpace(msg) != "" {
		return msg
	}
	return MsgSomethingWrong
}

// panicError carries a recovered panic value.  Only error values contribute
// a message.
type panicError struct{ value any }

func (p *panicError) Error() string {
	if e, ok := p.value.(error); ok {
		return e.Error()
	}
	return ""
}

func (p *panicError) Unwrap() error {
	e, _ := p.value.(error)
	return e
}
