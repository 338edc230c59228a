package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// IO is what a command writes through. Output goes to stdout, errors and
// warnings to stderr.
//
// Warnings are held back and printed both before the first output and after
// the last, so a `| head` or `| tail` still shows them. Any warning makes
// the command exit 1 while keeping its normal output.
type IO struct {
	out      io.Writer
	errOut   io.Writer
	warnings []string
	shown    bool
}

// NewIO creates an IO writing to out and errOut.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Warn records a warning as "issue: action". Repeats are recorded once.
func (o *IO) Warn(issue string, action string) {
	w := issue + ": " + action
	if !slices.Contains(o.warnings, w) {
		o.warnings = append(o.warnings, w)
	}
}

// Println writes a line to stdout.
func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.stdout(), a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.stdout(), format, a...)
}

// JSON writes v to stdout as one line of JSON.
func (o *IO) JSON(v any) error {
	err := json.NewEncoder(o.stdout()).Encode(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// Error reports err on stderr.
func (o *IO) Error(err error) {
	_, _ = fmt.Fprintln(o.errOut, "error:", err)
}

// Finish prints the warnings after the output and returns the exit code.
func (o *IO) Finish() int {
	o.printWarnings()

	if len(o.warnings) > 0 {
		return 1
	}

	return 0
}

// stdout returns the output writer. Warnings recorded before the first
// output are printed ahead of it.
func (o *IO) stdout() io.Writer {
	if !o.shown && len(o.warnings) > 0 {
		o.printWarnings()
		o.shown = true
	}

	return o.out
}

func (o *IO) printWarnings() {
	for _, w := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", w)
	}
}
