package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/baremetal-platform/config"
	"github.com/wippyai/baremetal-platform/internal/wasmgen"
	"github.com/wippyai/baremetal-platform/printf"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		in   string
		want printf.Arg
	}{
		{"42", printf.Int(42)},
		{"-7", printf.Int(-7)},
		{"0x2a", printf.Int(42)},
		{"18446744073709551615", printf.Uint(1<<64 - 1)},
		{"u:42", printf.Uint(42)},
		{"c:x", printf.Char('x')},
		{"p:0x1000", printf.Ptr(0x1000)},
		{"null", printf.Null()},
		{"s:42", printf.Str("42")},
		{"hello", printf.Str("hello")},
		{"key:value", printf.Str("key:value")},
		{"", printf.Str("")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseArg(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"c:", "c:xy", "p:zz", "u:-1"} {
		_, err := parseArg(bad)
		assert.Error(t, err, bad)
	}
}

func TestPrintfCommand(t *testing.T) {
	out, err := runCmd(t, "printf", "%s=%d", "answer", "42")
	require.NoError(t, err)
	assert.Equal(t, "output: \"answer=42\"\nreturn: 9\n", out)
}

func TestPrintfCommand_Truncates(t *testing.T) {
	out, err := runCmd(t, "printf", "--capacity", "4", "--hex", "%s", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, `output: "hel"`)
	assert.Contains(t, out, "return: 3\n")
	assert.Contains(t, out, "buffer: 68 65 6c 00\n")

	out, err = runCmd(t, "printf", "--capacity", "4", "--untruncated", "%s", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "return: 5\n")
}

func TestPrintfCommand_ProfileAndShellArgs(t *testing.T) {
	out, err := runCmd(t, "printf", "--profile", "padded", "--args", `"two words" 7`, "[%-10s|%3d]")
	require.NoError(t, err)
	assert.Contains(t, out, `output: "[two words |  7]"`)

	_, err = runCmd(t, "printf", "--profile", "fancy", "%d", "1")
	assert.Error(t, err)

	_, err = runCmd(t, "printf", "--args", `"unterminated`, "%s")
	assert.Error(t, err)
}

func TestExportsCommand(t *testing.T) {
	out, err := runCmd(t, "exports")
	require.NoError(t, err)
	assert.Contains(t, out, "env.snprintf(i32, i32, i32, i32) -> i32\n")
	assert.Contains(t, out, "env.os_getpagesize() -> i32\n")
}

func writeGuest(t *testing.T) string {
	t.Helper()
	i32 := []wasmgen.ValType{wasmgen.I32}
	gen := wasmgen.New(2).
		Import("env", "os_getpagesize", nil, i32).
		Import("env", "strlen", i32, i32).
		Import("env", "fmax", []wasmgen.ValType{wasmgen.F64, wasmgen.F64}, []wasmgen.ValType{wasmgen.F64}).
		Data(16, []byte("hello\x00"))

	path := filepath.Join(t.TempDir(), "guest.wasm")
	require.NoError(t, os.WriteFile(path, gen.Encode(), 0o644))
	return path
}

func TestExecCommand(t *testing.T) {
	path := writeGuest(t)

	out, err := runCmd(t, "exec", path, "--func", "call_os_getpagesize")
	require.NoError(t, err)
	assert.Equal(t, "call_os_getpagesize => 4096\n", out)

	out, err = runCmd(t, "exec", path, "-f", "call_strlen", "-a", "16")
	require.NoError(t, err)
	assert.Equal(t, "call_strlen => 5\n", out)

	out, err = runCmd(t, "exec", path, "-f", "call_fmax", "-a", "1.5", "-a", "-2")
	require.NoError(t, err)
	assert.Equal(t, "call_fmax => 1.5\n", out)
}

func TestExecCommand_List(t *testing.T) {
	out, err := runCmd(t, "exec", writeGuest(t), "--list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"call_fmax(f64, f64) -> f64",
		"call_os_getpagesize() -> i32",
		"call_strlen(i32) -> i32",
	}, lines)
}

func TestExecCommand_Errors(t *testing.T) {
	path := writeGuest(t)

	_, err := runCmd(t, "exec", path)
	assert.ErrorContains(t, err, "no entry point")

	_, err = runCmd(t, "exec", path, "-f", "missing")
	assert.ErrorContains(t, err, "does not export")

	_, err = runCmd(t, "exec", path, "-f", "call_strlen")
	assert.ErrorContains(t, err, "expected 1 arguments")

	_, err = runCmd(t, "exec", filepath.Join(t.TempDir(), "none.wasm"))
	assert.Error(t, err)
}

func TestEncodeParams(t *testing.T) {
	types := []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32}
	params, err := encodeParams(types, []string{"-1", "0xffffffff", "-2", "0.5"})
	require.NoError(t, err)
	assert.Equal(t, api.EncodeI32(-1), params[0])
	assert.Equal(t, api.EncodeI32(-1), params[1])
	assert.Equal(t, api.EncodeI64(-2), params[2])
	assert.Equal(t, api.EncodeF32(0.5), params[3])

	_, err = encodeParams(types[:1], []string{"0x100000000"})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger(config.LogConfig{Level: "debug", Format: config.FormatJSON}, os.Stderr)
	require.NoError(t, err)
	assert.NotNil(t, log)

	_, err = newLogger(config.LogConfig{Level: "loud", Format: config.FormatConsole}, os.Stderr)
	assert.Error(t, err)
}

func TestPlayModel(t *testing.T) {
	m := newPlayModel(&printf.Formatter{}, "%s is %d")

	res, err := m.evaluate()
	require.NoError(t, err)
	assert.Equal(t, "answer is 42", res.text)
	assert.Equal(t, 12, res.count)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, fieldCapacity, m.focusIdx)
	m.inputs[fieldCapacity].SetValue("7")

	res, err = m.evaluate()
	require.NoError(t, err)
	assert.Equal(t, "answer", res.text)
	assert.Equal(t, "answer is 42", m.untruncatedText())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, printf.ProfilePadded, m.formatter.Profile)

	m.inputs[fieldCapacity].SetValue("lots")
	_, err = m.evaluate()
	assert.Error(t, err)
	assert.Contains(t, m.View(), "Error:")
}
