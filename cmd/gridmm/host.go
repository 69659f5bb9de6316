package main

import (
	"runtime"

	"golang.org/x/sys/cpu"
	"k8s.io/klog/v2"
)

// logHost reports the CPU features the BLAS kernel may benefit from.
func logHost() {
	if !klog.V(1).Enabled() {
		return
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		klog.InfoS("host", "arch", runtime.GOARCH, "cpus", runtime.NumCPU(),
			"avx2", cpu.X86.HasAVX2, "fma", cpu.X86.HasFMA, "avx512f", cpu.X86.HasAVX512F)
	case "arm64":
		klog.InfoS("host", "arch", runtime.GOARCH, "cpus", runtime.NumCPU(),
			"asimd", cpu.ARM64.HasASIMD, "sve", cpu.ARM64.HasSVE)
	default:
		klog.InfoS("host", "arch", runtime.GOARCH, "cpus", runtime.NumCPU())
	}
}
