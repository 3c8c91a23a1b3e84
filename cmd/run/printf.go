package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/wippyai/baremetal-platform/printf"
)

// defaultCapacity is the destination size used when none is given.
const defaultCapacity = 64

type printfOptions struct {
	capacity    int
	profile     string
	untruncated bool
	args        string
	hex         bool
}

func newPrintfCmd(a *app) *cobra.Command {
	var o printfOptions

	cmd := &cobra.Command{
		Use:   "printf <format> [args...]",
		Short: "Render a format string with the bounded formatter",
		Long: `Render a format string into a buffer of --capacity bytes and print the
result and the returned count.

Arguments are typed by their text:
  42, -7, 0x2a      signed integer (values above int64 become unsigned)
  u:42              unsigned integer
  c:x               character
  p:0x1000          pointer
  null              null string pointer
  s:text            string (anything else is a string too)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := a.cfg.Formatter()
			if cmd.Flags().Changed("profile") {
				p, err := printf.ParseProfile(o.profile)
				if err != nil {
					return err
				}
				f.Profile = p
			}
			if cmd.Flags().Changed("untruncated") {
				f.Untruncated = o.untruncated
			}

			raw := args[1:]
			if o.args != "" {
				split, err := shlex.Split(o.args)
				if err != nil {
					return fmt.Errorf("split --args: %w", err)
				}
				raw = append(raw, split...)
			}
			vals, err := parseArgs(raw)
			if err != nil {
				return err
			}
			if o.capacity < 0 {
				return fmt.Errorf("capacity must not be negative, got %d", o.capacity)
			}

			res := render(f, o.capacity, args[0], vals)
			res.print(cmd.OutOrStdout(), o.hex)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&o.capacity, "capacity", "n", defaultCapacity, "destination buffer size in bytes, terminator included")
	fl.StringVar(&o.profile, "profile", "", "directive profile: minimal or padded (overrides printf.profile)")
	fl.BoolVar(&o.untruncated, "untruncated", false, "return the untruncated length (overrides printf.untruncated)")
	fl.StringVar(&o.args, "args", "", "additional arguments as one shell-quoted string")
	fl.BoolVar(&o.hex, "hex", false, "also dump the destination buffer")
	return cmd
}

// rendered is the outcome of one bounded render.
type rendered struct {
	buf   []byte
	count int
	text  string
}

func render(f *printf.Formatter, capacity int, format string, args []printf.Arg) rendered {
	buf := make([]byte, capacity)
	n := f.Snprintf(buf, format, args...)
	text := ""
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		text = string(buf[:i])
	}
	return rendered{buf: buf, count: n, text: text}
}

func (r rendered) print(w io.Writer, hex bool) {
	fmt.Fprintf(w, "output: %q\n", r.text)
	fmt.Fprintf(w, "return: %d\n", r.count)
	if hex {
		fmt.Fprintf(w, "buffer: % x\n", r.buf)
	}
}

func parseArgs(raw []string) ([]printf.Arg, error) {
	out := make([]printf.Arg, len(raw))
	for i, s := range raw {
		a, err := parseArg(s)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = a
	}
	return out, nil
}

// parseArg types one textual argument. See the printf command help.
func parseArg(s string) (printf.Arg, error) {
	if s == "null" {
		return printf.Null(), nil
	}

	if tag, rest, ok := strings.Cut(s, ":"); ok && len(tag) == 1 {
		switch tag {
		case "s":
			return printf.Str(rest), nil
		case "c":
			if len(rest) != 1 {
				return printf.Arg{}, fmt.Errorf("char argument %q must be one byte", s)
			}
			return printf.Char(rest[0]), nil
		case "p":
			v, err := strconv.ParseUint(rest, 0, 64)
			if err != nil {
				return printf.Arg{}, fmt.Errorf("pointer argument %q: %w", s, err)
			}
			return printf.Ptr(v), nil
		case "u":
			v, err := strconv.ParseUint(rest, 0, 64)
			if err != nil {
				return printf.Arg{}, fmt.Errorf("unsigned argument %q: %w", s, err)
			}
			return printf.Uint(v), nil
		}
	}

	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return printf.Int(v), nil
	}
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return printf.Uint(v), nil
	}
	return printf.Str(s), nil
}
