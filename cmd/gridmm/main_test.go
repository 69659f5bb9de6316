package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridmm/bench"
)

func run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = execute(args, &out, &errOut)

	return code, out.String(), errOut.String()
}

// TestExecuteUsageErrors checks exit code 1 and the usage messages.
func TestExecuteUsageErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		msg  string
	}{
		{"missing size", nil, bench.MsgMissingSize},
		{"bad size", []string{"abc"}, bench.MsgInvalidSize},
		{"zero size", []string{"0"}, bench.MsgInvalidSize},
		{"not square", []string{"--np", "3", "12"}, bench.MsgNotSquare},
		{"not divisible", []string{"--np", "4", "5"}, bench.MsgNotDivisible},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, stdout, stderr := run(tc.args...)
			require.Equal(t, 1, code)
			require.Empty(t, stdout)
			require.True(t, strings.HasPrefix(stderr, tc.msg+"\n"), stderr)
			require.Contains(t, stderr, "Usage:")
		})
	}
}

// TestExecuteBadFlagValue reports enum errors without usage text.
func TestExecuteBadFlagValue(t *testing.T) {
	code, _, stderr := run("--kernel", "fast", "8")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "gridmm:")
}

// TestExecuteLocal runs a verified in-process benchmark.
func TestExecuteLocal(t *testing.T) {
	code, stdout, stderr := run("--np", "4", "--verify", "both", "--kernel", "blas", "--overlap", "8")
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 5)
	require.True(t, strings.HasPrefix(lines[4], "number_procs: 4 | matrix_size: 8 |  time: "), lines[4])
	for _, l := range lines[:4] {
		require.True(t, strings.HasPrefix(l, "rank: "), l)
	}
}

// TestExecuteSweep writes a CSV file.
func TestExecuteSweep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	code, _, stderr := run("sweep", "--procs", "1,4", "--sizes", "4", "--runs", "2", "--csv", path)
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, rows, 5)
	require.True(t, strings.HasPrefix(rows[0], "nb_proc,size,run,time,Gflops"))
}

// TestSweepRejectsBadGrid fails before running anything.
func TestSweepRejectsBadGrid(t *testing.T) {
	code, _, stderr := run("sweep", "--procs", "2", "--sizes", "4", "--csv", "-")
	require.Equal(t, 1, code)
	require.True(t, strings.HasPrefix(stderr, bench.MsgNotSquare), stderr)
}

// TestChildArgs checks what launch passes to every rank.
func TestChildArgs(t *testing.T) {
	rf := runFlags{verify: "sum", kernel: "naive", alloc: "heap", overlap: true}
	args := childArgs([]string{"127.0.0.1:1", "127.0.0.1:2"}, 3*time.Second, &rf, "64")
	require.Equal(t, []string{
		"--peers=127.0.0.1:1,127.0.0.1:2",
		"--init-timeout=3s",
		"--verify=sum",
		"--kernel=naive",
		"--alloc=heap",
		"--overlap=true",
		"--hugepages=false",
		"64",
	}, args)
}

// TestFreeAddrs reserves distinct loopback ports.
func TestFreeAddrs(t *testing.T) {
	addrs, err := freeAddrs("127.0.0.1", 4)
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, a := range addrs {
		require.False(t, seen[a])
		seen[a] = true
	}
}

// TestLaunchNotSquare validates before spawning.
func TestLaunchNotSquare(t *testing.T) {
	code, _, stderr := run("launch", "--np", "2", "16")
	require.Equal(t, 1, code)
	require.True(t, strings.HasPrefix(stderr, bench.MsgNotSquare), stderr)
}
