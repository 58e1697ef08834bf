// Command pdptw-alns runs the Adaptive Large Neighborhood Search solver
// over a Li & Lim PDPTW benchmark file.
package main

import (
	"fmt"
	"os"

	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
