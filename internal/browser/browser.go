// Package browser opens URLs in the user's default web browser.
package browser

import (
	"os"
	"os/exec"
	"runtime"
)

// Open launches the platform's URL handler for url. It returns once the
// handler process has started; it does not wait for the browser itself.
func Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Start()
}
