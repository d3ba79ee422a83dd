// internal/form/controller_test.go
//
// Unit-tests for Controller.
//
// Context
// -------
// These tests drive full submit attempts through injected handlers and an
// httptest endpoint.  They cover the settle rules (success, handler error,
// panic, empty message), the in-flight guard under overlapping triggers
// and the order of observer snapshots.

package form_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yanizio/adept-signin/internal/form"
)

// fill sets valid or invalid field values on c.
func fill(t *testing.T, c *form.Controller, email, password string, remember bool) {
	t.Helper()
	require.True(t, c.SetEmail(email))
	require.True(t, c.SetPassword(password))
	require.True(t, c.SetRemember(remember))
}

func TestController_HandlerSuccess(t *testing.T) {
	var got form.Credentials
	c := form.NewController(form.WithHandler(form.HandlerFunc(
		func(_ context.Context, cr form.Credentials) error {
			got = cr
			return nil
		})))
	fill(t, c, "a@b.com", " secret1 ", true)

	res := c.Submit(context.Background())

	assert.Equal(t, form.OutcomeSuccess, res.Outcome)
	assert.NoError(t, res.Err)

	st := c.Snapshot()
	assert.False(t, st.InFlight)
	assert.Empty(t, st.ServerError)
	assert.Empty(t, st.Errors)
	assert.Equal(t, form.Credentials{Email: "a@b.com", Password: " secret1 ", Remember: true}, got)
}

func TestController_HandlerRejects(t *testing.T) {
	c := form.NewController(form.WithHandler(form.HandlerFunc(
		func(context.Context, form.Credentials) error {
			return errors.New("Invalid credentials")
		})))
	fill(t, c, "a@b.com", "abcdef", false)

	res := c.Submit(context.Background())

	assert.Equal(t, form.OutcomeTransportFailure, res.Outcome)
	st := c.Snapshot()
	assert.False(t, st.InFlight)
	assert.Equal(t, "Invalid credentials", st.ServerError)
	assert.Empty(t, st.Errors)
}

func TestController_InvalidInputNeverDispatches(t *testing.T) {
	var calls atomic.Int32
	c := form.NewController(form.WithHandler(form.HandlerFunc(
		func(context.Context, form.Credentials) error {
			calls.Add(1)
			return nil
		})))
	fill(t, c, "not-an-email", "abc", false)

	res := c.Submit(context.Background())

	assert.Equal(t, form.OutcomeValidationFailure, res.Outcome)
	assert.True(t, form.IsValidationError(res.Err))
	assert.Equal(t, form.FieldErrors{
		form.FieldEmail:    form.MsgEmailInvalid,
		form.FieldPassword: form.MsgPasswordTooShort,
	}, res.Errors)
	assert.Zero(t, calls.Load())

	st := c.Snapshot()
	assert.False(t, st.InFlight)
	assert.Empty(t, st.ServerError)
	assert.Equal(t, res.Errors, st.Errors)
}

func TestController_ClearsStaleServerError(t *testing.T) {
	c := form.NewController(form.WithHandler(form.HandlerFunc(
		func(context.Context, form.Credentials) error { return errors.New("Invalid credentials") })))
	fill(t, c, "a@b.com", "abcdef", false)
	c.Submit(context.Background())
	require.Equal(t, "Invalid credentials", c.Snapshot().ServerError)

	// A validation failure on the next attempt must not keep the old banner.
	require.True(t, c.SetPassword(""))
	res := c.Submit(context.Background())

	assert.Equal(t, form.OutcomeValidationFailure, res.Outcome)
	st := c.Snapshot()
	assert.Empty(t, st.ServerError)
	assert.Equal(t, form.FieldErrors{form.FieldPassword: form.MsgPasswordRequired}, st.Errors)
}

func TestController_ErrorsRebuiltEachAttempt(t *testing.T) {
	c := form.NewController(form.WithHandler(form.HandlerFunc(
		func(context.Context, form.Credentials) error { return nil })))
	fill(t, c, "", "", false)
	c.Submit(context.Background())
	require.Len(t, c.Snapshot().Errors, 2)

	// Edits alone do not revalidate.
	require.True(t, c.SetEmail("a@b.com"))
	require.Len(t, c.Snapshot().Errors, 2)

	require.True(t, c.SetPassword("abcdef"))
	res := c.Submit(context.Background())
	assert.Equal(t, form.OutcomeSuccess, res.Outcome)
	assert.Empty(t, c.Snapshot().Errors)
}

func TestController_FallbackMessages(t *testing.T) {
	tests := []struct {
		name    string
		handler form.HandlerFunc
		want    string
	}{
		{
			name:    "empty error text",
			handler: func(context.Context, form.Credentials) error { return errors.New("") },
			want:    form.MsgSomethingWrong,
		},
		{
			name:    "panic with non-error value",
			handler: func(context.Context, form.Credentials) error { panic("boom") },
			want:    form.MsgSomethingWrong,
		},
		{
			name:    "panic with error value",
			handler: func(context.Context, form.Credentials) error { panic(errors.New("kaput")) },
			want:    "kaput",
		},
		{
			name:    "context error",
			handler: func(context.Context, form.Credentials) error { return context.DeadlineExceeded },
			want:    context.DeadlineExceeded.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := form.NewController(form.WithHandler(tt.handler))
			fill(t, c, "a@b.com", "abcdef", false)

			res := c.Submit(context.Background())

			assert.Equal(t, form.OutcomeTransportFailure, res.Outcome)
			st := c.Snapshot()
			assert.False(t, st.InFlight, "in-flight must be released on every path")
			assert.Equal(t, tt.want, st.ServerError)
		})
	}
}

func TestController_OverlappingSubmits(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	c := form.NewController(form.WithHandler(form.HandlerFunc(
		func(context.Context, form.Credentials) error {
			calls.Add(1)
			close(entered)
			<-release
			return nil
		})))
	fill(t, c, "a@b.com", "abcdef", false)

	done := make(chan form.Result)
	go func() { done <- c.Submit(context.Background()) }()
	<-entered

	st := c.Snapshot()
	assert.True(t, st.InFlight)
	assert.Equal(t, form.LabelSigningIn, st.SubmitLabel())
	assert.False(t, st.InputsEnabled())

	// Overlapping triggers are refused without touching state.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, form.OutcomeBusy, c.Submit(context.Background()).Outcome)
		}()
	}
	wg.Wait()

	// Inputs are locked while in flight; visibility is not.
	assert.False(t, c.SetEmail("x@y.z"))
	assert.False(t, c.SetPassword("zzzzzz"))
	assert.False(t, c.SetRemember(true))
	assert.True(t, c.ToggleShowPassword())

	close(release)
	res := <-done

	assert.Equal(t, form.OutcomeSuccess, res.Outcome)
	assert.Equal(t, int32(1), calls.Load())

	st = c.Snapshot()
	assert.False(t, st.InFlight)
	assert.Equal(t, "a@b.com", st.Email)
	assert.Equal(t, form.LabelSignIn, st.SubmitLabel())
	assert.True(t, st.ShowPassword)
}

func TestController_ObserverOrder(t *testing.T) {
	var seen []form.State
	c := form.NewController(
		form.WithHandler(form.HandlerFunc(func(context.Context, form.Credentials) error {
			return errors.New("Invalid credentials")
		})),
		form.WithObserver(func(s form.State) { seen = append(seen, s) }),
	)
	fill(t, c, "a@b.com", "abcdef", false)
	seen = nil

	c.Submit(context.Background())

	require.Len(t, seen, 2)
	assert.True(t, seen[0].InFlight)
	assert.Empty(t, seen[0].ServerError)
	assert.False(t, seen[1].InFlight)
	assert.Equal(t, "Invalid credentials", seen[1].ServerError)
}

func TestController_NilHandlerFallsBackToHTTP(t *testing.T) {
	var (
		calls   atomic.Int32
		gotBody form.Credentials
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, form.LoginPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))
	defer srv.Close()

	var nilFn form.HandlerFunc
	c := form.NewController(
		form.WithHandler(nilFn),
		form.WithHTTP(srv.URL, srv.Client()),
	)
	fill(t, c, "a@b.com", "  pass word  ", true)

	res := c.Submit(context.Background())

	assert.Equal(t, form.OutcomeTransportFailure, res.Outcome)
	assert.True(t, form.IsTransportError(res.Err))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Invalid credentials", c.Snapshot().ServerError)
	assert.Equal(t, form.Credentials{Email: "a@b.com", Password: "  pass word  ", Remember: true}, gotBody)
}
