// internal/console/console.go
//
// Adept Sign-in – terminal presentation of the sign-in form.
//
// Context
//   The form controller owns state and rules.  This package is the
//   presentation collaborator for a terminal: it prompts for the fields,
//   masks the password unless the user asked to see it, prints per-field
//   errors, the server banner, and the “Signing in...” label while an
//   attempt is in flight.
//
// Workflow
//   •  View.Render is registered as a controller observer.  It prints only
//      the transitions a user needs to see: in-flight start, settle, banner,
//      and password-visibility changes.
//   •  View.Run loops: prompt → Submit → report, until success or the
//      attempt budget is spent.
//   •  At the password prompt “/show” and “/hide” toggle visibility and
//      re-prompt.  Masked entry uses x/term when stdin is a terminal.
//   •  Every read waits on the context as well as on input, so a cancelled
//      context (Ctrl-C in cmd/login) ends a prompt at once.  A line read
//      that was abandoned stays pending and feeds the next prompt.
//
//------------------------------------------------------------------------------

package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/yanizio/adept-signin/internal/form"
)

// Password prompt commands.
const (
	CmdShow = "/show"
	CmdHide = "/hide"
)

// ErrAttemptsExhausted is returned by Run when no attempt succeeded.
var ErrAttemptsExhausted = errors.New("sign-in attempts exhausted")

// View renders form state and reads user input.
type View struct {
	in  *bufio.Reader
	out io.Writer

	// secretFD is the terminal fd used for masked entry, or -1.
	secretFD int

	// pending carries an outstanding line read.  Only the Run goroutine
	// touches it.
	pending chan lineResult

	mu   sync.Mutex
	last form.State
}

// New builds a View.  Masked password entry is enabled when in is an
// *os.File attached to a terminal.
func New(in io.Reader, out io.Writer) *View {
	v := &View{in: bufio.NewReader(in), out: out, secretFD: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		v.secretFD = int(f.Fd())
	}
	return v
}

// Render is a form.Controller observer.
func (v *View) Render(s form.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	last := v.last
	v.last = s

	switch {
	case s.InFlight && !last.InFlight:
		fmt.Fprintf(v.out, "%s\n", s.SubmitLabel())
	case !s.InFlight && last.InFlight && s.ServerError == "":
		fmt.Fprintln(v.out, "Signed in.")
	}
	if s.ServerError != "" && s.ServerError != last.ServerError {
		fmt.Fprintf(v.out, "! %s\n", s.ServerError)
	}
	if s.ShowPassword != last.ShowPassword {
		if s.ShowPassword {
			fmt.Fprintln(v.out, "(password visible)")
		} else {
			fmt.Fprintln(v.out, "(password hidden)")
		}
	}
}

type lineResult struct {
	line string
	err  error
}

// RunOptions tunes Run.
type RunOptions struct {
	Attempts    int  // maximum submit attempts, < 1 means 3
	AskRemember bool // prompt for “Remember me”
}

// Run prompts and submits until success, an input error, or the attempt
// budget runs out.  The last Result is always returned.
func (v *View) Run(ctx context.Context, c *form.Controller, opts RunOptions) (form.Result, error) {
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 3
	}

	var res form.Result
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := v.promptFields(ctx, c, opts.AskRemember); err != nil {
			return res, err
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res = c.Submit(ctx)
		if err := ctx.Err(); err != nil && res.Outcome != form.OutcomeSuccess {
			return res, err
		}
		switch res.Outcome {
		case form.OutcomeSuccess:
			return res, nil
		case form.OutcomeValidationFailure:
			v.printFieldErrors(res.Errors)
		case form.OutcomeTransportFailure, form.OutcomeBusy:
			// Banner already rendered by the observer.
		}
	}
	return res, ErrAttemptsExhausted
}

func (v *View) promptFields(ctx context.Context, c *form.Controller, askRemember bool) error {
	cur := c.Snapshot()

	email, err := v.readLine(ctx, withDefault("Email address", cur.Email))
	if err != nil {
		return err
	}
	if email == "" {
		email = cur.Email
	}
	c.SetEmail(email)

	pw, err := v.readPassword(ctx, c)
	if err != nil {
		return err
	}
	c.SetPassword(pw)

	if askRemember {
		ans, err := v.readLine(ctx, yesNo("Remember me", cur.Remember))
		if err != nil {
			return err
		}
		c.SetRemember(parseYes(ans, cur.Remember))
	}
	return nil
}

// readPassword handles the /show and /hide commands.
func (v *View) readPassword(ctx context.Context, c *form.Controller) (string, error) {
	for {
		show := c.Snapshot().ShowPassword
		var (
			pw  string
			err error
		)
		if show || v.secretFD < 0 {
			pw, err = v.readLine(ctx, "Password: ")
		} else {
			pw, err = v.readSecret(ctx, "Password: ")
		}
		if err != nil {
			return "", err
		}

		switch pw {
		case CmdShow:
			if !show {
				c.ToggleShowPassword()
			}
		case CmdHide:
			if show {
				c.ToggleShowPassword()
			}
		default:
			return pw, nil
		}
	}
}

// readLine prints prompt and returns the line without its terminator.
// Leading and trailing spaces are kept; the controller decides what to trim.
func (v *View) readLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(v.out, prompt)

	if v.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := v.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
		v.pending = ch
	}

	var r lineResult
	select {
	case <-ctx.Done():
		fmt.Fprintln(v.out)
		return "", ctx.Err()
	case r = <-v.pending:
		v.pending = nil
	}

	if r.err != nil && !(errors.Is(r.err, io.EOF) && r.line != "") {
		return "", r.err
	}
	return strings.TrimRight(r.line, "\r\n"), nil
}

// readSecret reads without echo.  On cancellation it restores the terminal
// state saved before the read; the abandoned ReadPassword never will.
func (v *View) readSecret(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(v.out, prompt)

	state, err := term.GetState(v.secretFD)
	if err != nil {
		return "", err
	}
	ch := make(chan lineResult, 1)
	go func() {
		raw, err := term.ReadPassword(v.secretFD)
		ch <- lineResult{line: string(raw), err: err}
	}()

	select {
	case <-ctx.Done():
		_ = term.Restore(v.secretFD, state)
		fmt.Fprintln(v.out)
		return "", ctx.Err()
	case r := <-ch:
		fmt.Fprintln(v.out)
		if r.err != nil {
			return "", r.err
		}
		return r.line, nil
	}
}

func (v *View) printFieldErrors(errs form.FieldErrors) {
	for _, f := range []form.Field{form.FieldEmail, form.FieldPassword} {
		if msg, ok := errs[f]; ok {
			fmt.Fprintf(v.out, "  %s: %s\n", f, msg)
		}
	}
}

func withDefault(label, cur string) string {
	if cur == "" {
		return label + ": "
	}
	return fmt.Sprintf("%s [%s]: ", label, cur)
}

func yesNo(label string, cur bool) string {
	if cur {
		return label + "? [Y/n]: "
	}
	return label + "? [y/N]: "
}

func parseYes(ans string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(ans)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}
