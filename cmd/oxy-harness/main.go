// Command oxy-harness runs the rendering harness.
//
// Usage:
//
//	oxy-harness [flags]
//
// The window and its event loop stay on the main OS thread; rendering runs on a
// second goroutine locked to its own thread. Exit status is 0 when the window is
// closed or a signal is received, 1 when setup or a frame fails.
package main

import (
	"os"
	"runtime"
)

func init() {
	// GLFW requires the main goroutine to stay on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	os.Exit(execute(newRootCmd(runHarness), os.Stderr))
}
