package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/baremetal-platform/host"
)

// entryPoints are tried in order when --func is not given.
var entryPoints = []string{"_start", "main", "run"}

type execOptions struct {
	funcName string
	args     []string
	wasi     bool
	list     bool
}

func newExecCmd(a *app) *cobra.Command {
	var o execOptions

	cmd := &cobra.Command{
		Use:   "exec <module.wasm>",
		Short: "Instantiate a wasm module against the env host module and call a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.exec(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.funcName, "func", "f", "", "exported function to call (default: _start, main or run)")
	f.StringArrayVarP(&o.args, "arg", "a", nil, "function argument, repeatable (integers, or floats for f32/f64 params)")
	f.BoolVar(&o.wasi, "wasi", false, "also provide wasi_snapshot_preview1 (overrides wasi.enabled)")
	f.BoolVarP(&o.list, "list", "l", false, "list the module's exported functions and exit")
	return cmd
}

func (a *app) exec(ctx context.Context, stdout, stderr io.Writer, path string, o execOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read wasm file: %w", err)
	}

	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, data)
	if err != nil {
		return fmt.Errorf("compile %s: %w", path, err)
	}

	if o.list {
		printFunctions(stdout, compiled.ExportedFunctions())
		return nil
	}

	if o.wasi || a.cfg.WASI.Enabled {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			return fmt.Errorf("instantiate wasi: %w", err)
		}
	}

	p := a.cfg.NewPlatform(a.log)
	env := host.New(p, a.cfg.HostOptions()...)
	if _, err := env.Instantiate(ctx, r); err != nil {
		return err
	}

	name, err := pickFunction(compiled.ExportedFunctions(), o.funcName)
	if err != nil {
		return err
	}
	def := compiled.ExportedFunctions()[name]
	params, err := encodeParams(def.ParamTypes(), o.args)
	if err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}

	cfg := wazero.NewModuleConfig().
		WithStdout(stdout).
		WithStderr(stderr).
		WithStartFunctions()
	guest, err := r.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return fmt.Errorf("instantiate %s: %w", path, err)
	}
	defer env.Detach(guest)

	a.log.Debug("calling guest function", zap.String("func", name), zap.Int("params", len(params)))
	results, err := guest.ExportedFunction(name).Call(ctx, params...)
	if err != nil {
		var exit *sys.ExitError
		if errors.As(err, &exit) && exit.ExitCode() == 0 {
			return nil
		}
		return fmt.Errorf("call %s: %w", name, err)
	}

	if len(results) > 0 {
		fmt.Fprintf(stdout, "%s => %s\n", name, formatResults(def.ResultTypes(), results))
	}
	return nil
}

func newExportsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exports",
		Short: "List the functions the env host module provides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := host.New(a.cfg.NewPlatform(a.log), a.cfg.HostOptions()...)
			out := cmd.OutOrStdout()
			for _, s := range env.Exports() {
				fmt.Fprintf(out, "%s.%s\n", env.Name(), signature(s.Name, s.Params, s.Results))
			}
			return nil
		},
	}
}

// pickFunction resolves the function to call: the requested name, or the
// first entry point the module exports.
func pickFunction(exports map[string]api.FunctionDefinition, requested string) (string, error) {
	if requested != "" {
		if _, ok := exports[requested]; !ok {
			return "", fmt.Errorf("module does not export function %q", requested)
		}
		return requested, nil
	}
	for _, name := range entryPoints {
		if _, ok := exports[name]; ok {
			return name, nil
		}
	}
	if len(exports) == 1 {
		for name := range exports {
			return name, nil
		}
	}
	return "", fmt.Errorf("no entry point found (tried %s); use --func", strings.Join(entryPoints, ", "))
}

// encodeParams converts textual arguments to the stack encoding of types.
func encodeParams(types []api.ValueType, args []string) ([]uint64, error) {
	if len(args) != len(types) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(types), len(args))
	}
	params := make([]uint64, len(args))
	for i, s := range args {
		switch types[i] {
		case api.ValueTypeI32:
			v, err := parseInteger(s, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			params[i] = api.EncodeI32(int32(v))
		case api.ValueTypeI64:
			v, err := parseInteger(s, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			params[i] = api.EncodeI64(v)
		case api.ValueTypeF32:
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			params[i] = api.EncodeF32(float32(v))
		case api.ValueTypeF64:
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			params[i] = api.EncodeF64(v)
		default:
			return nil, fmt.Errorf("argument %d: unsupported type %s", i, api.ValueTypeName(types[i]))
		}
	}
	return params, nil
}

// parseInteger accepts signed values and unsigned values up to the width, so
// both -1 and 0xffffffff are valid i32 arguments.
func parseInteger(s string, bits int) (int64, error) {
	if v, err := strconv.ParseInt(s, 0, bits); err == nil {
		return v, nil
	}
	u, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %d-bit integer %q", bits, s)
	}
	return int64(u), nil
}

func formatResults(types []api.ValueType, results []uint64) string {
	parts := make([]string, len(results))
	for i, v := range results {
		switch types[i] {
		case api.ValueTypeI32:
			parts[i] = strconv.FormatInt(int64(api.DecodeI32(v)), 10)
		case api.ValueTypeF32:
			parts[i] = strconv.FormatFloat(float64(api.DecodeF32(v)), 'g', -1, 32)
		case api.ValueTypeF64:
			parts[i] = strconv.FormatFloat(api.DecodeF64(v), 'g', -1, 64)
		default:
			parts[i] = strconv.FormatInt(int64(v), 10)
		}
	}
	return strings.Join(parts, ", ")
}

func printFunctions(w io.Writer, defs map[string]api.FunctionDefinition) {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := defs[name]
		fmt.Fprintln(w, signature(name, d.ParamTypes(), d.ResultTypes()))
	}
}

func signature(name string, params, results []api.ValueType) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, t := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(api.ValueTypeName(t))
	}
	b.WriteByte(')')
	if len(results) > 0 {
		b.WriteString(" -> ")
		for i, t := range results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(api.ValueTypeName(t))
		}
	}
	return b.String()
}
