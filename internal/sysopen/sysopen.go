// Package sysopen hands URLs and files to the operating system's default
// opener.
package sysopen

import (
	"fmt"
	"os/exec"
	"runtime"
)

// URL opens a URL in the default browser.
func URL(url string) error {
	return open(url)
}

// File opens a local file with the default application for its type.
func File(path string) error {
	return open(path)
}

func open(target string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "linux":
		cmd = exec.Command("xdg-open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
