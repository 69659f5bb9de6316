package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/katalvlaran/gridmm/bench"
	"github.com/katalvlaran/gridmm/comm/grpcnet"
)

// exitError carries a child's exit code up to main.
type exitError struct {
	rank int
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("rank %d exited with code %d", e.rank, e.code)
}

func newLaunchCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		rf          runFlags
		np          int
		host        string
		initTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "launch --np P [flags] <matrix size>",
		Short: "Run P ranks as separate local processes connected over gRPC",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.config(args)
			if err != nil {
				return err
			}
			if _, err = cfg.Grid(np); err != nil {
				return err
			}
			peers, err := freeAddrs(host, np)
			if err != nil {
				return err
			}
			self, err := os.Executable()
			if err != nil {
				return err
			}
			return launch(cmd.Context(), self, childArgs(peers, initTimeout, &rf, args[0]), np, stdout, stderr)
		},
	}

	fs := cmd.Flags()
	rf.register(fs)
	fs.IntVar(&np, "np", 1, "number of processes")
	fs.StringVar(&host, "host", "127.0.0.1", "address the ranks listen on")
	fs.DurationVar(&initTimeout, "init-timeout", grpcnet.DefaultDialTimeout, "how long each rank waits for its peers")

	return cmd
}

// freeAddrs reserves n ephemeral ports on host. The ports are released
// before the children bind them again.
func freeAddrs(host string, n int) ([]string, error) {
	addrs := make([]string, n)
	listeners := make([]net.Listener, 0, n)
	defer func() {
		for _, l := range listeners {
			l.Close()
		}
	}()
	for i := range addrs {
		l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
		if err != nil {
			return nil, fmt.Errorf("reserve port: %w", err)
		}
		listeners = append(listeners, l)
		addrs[i] = l.Addr().String()
	}

	return addrs, nil
}

// childArgs returns the argument vector of every child; the rank is
// appended per child by launch.
func childArgs(peers []string, initTimeout time.Duration, rf *runFlags, size string) []string {
	args := []string{
		"--peers=" + strings.Join(peers, ","),
		"--init-timeout=" + initTimeout.String(),
	}
	args = append(args, rf.forward()...)

	return append(args, size)
}

// launch starts np copies of self and waits for all of them. Their output is
// forwarded line-safe to stdout/stderr. It returns the first non-zero exit.
func launch(ctx context.Context, self string, args []string, np int, stdout, stderr io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	out, errOut := bench.NewSyncWriter(stdout), bench.NewSyncWriter(stderr)

	var eg errgroup.Group
	for r := 0; r < np; r++ {
		argv := append([]string{"--rank=" + strconv.Itoa(r)}, args...)
		c := exec.CommandContext(ctx, self, argv...)
		c.Stdout = out
		c.Stderr = errOut
		if err := c.Start(); err != nil {
			return fmt.Errorf("start rank %d: %w", r, err)
		}
		klog.V(1).InfoS("rank started", "rank", r, "pid", c.Process.Pid)

		eg.Go(func() error {
			err := c.Wait()
			var ee *exec.ExitError
			if errors.As(err, &ee) {
				return &exitError{rank: r, code: ee.ExitCode()}
			}
			return err
		})
	}

	return eg.Wait()
}
