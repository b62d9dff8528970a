package cmd

import (
	"fmt"
	"os"
	"os/user"

	"github.com/codeready-toolchain/toolchain-cicd/critic-notify/internal/console"
)

// recordEnvironment adds a header describing the run to the transcript.
// Lookup failures are recorded too, they must not fail the run.
func recordEnvironment(handler *console.Handler, args string) {
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = fmt.Sprintf("unknown (%v)", err)
	}
	path, err := os.Getwd()
	if err != nil {
		path = fmt.Sprintf("unknown (%v)", err)
	}
	handler.Note("User: " + username)
	handler.Note("Host: " + hostname)
	handler.Note("Path: " + path)
	handler.Note("Args: " + args)
	handler.Note("")
}

func writeTranscript(handler *console.Handler, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	if _, err := handler.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write log file: %w", err)
	}
	return f.Close()
}
