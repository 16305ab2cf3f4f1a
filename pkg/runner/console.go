package runner

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// console prints user-facing status lines, separate from structured
// logging. Lines go to stderr so stdout stays the child's alone.
type console struct {
	w      io.Writer
	green  *color.Color
	yellow *color.Color
	red    *color.Color
}

func newConsole(w io.Writer) *console {
	return &console{
		w:      w,
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
	}
}

func (c *console) status(format string, args ...interface{}) {
	c.green.Fprintf(c.w, "[remon] "+format+"\n", args...) // nolint:errcheck
}

func (c *console) notice(format string, args ...interface{}) {
	c.yellow.Fprintf(c.w, "[remon] "+format+"\n", args...) // nolint:errcheck
}

func (c *console) failure(format string, args ...interface{}) {
	c.red.Fprintf(c.w, "[remon] "+format+"\n", args...) // nolint:errcheck
}

// command renders the supervised command line for status messages.
func command(executable string, args []string) string {
	line := executable
	for _, a := range args {
		line += " " + a
	}
	return fmt.Sprintf("`%s`", line)
}
