package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/healthlab/patientmigrate/internal/exitcode"
)

func main() {
	// A missing .env is fine; flags and the real environment still apply.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	var coded *exitcode.Error
	if err != nil && !errors.As(err, &coded) {
		// Usage errors have not been logged by a command yet.
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitcode.From(err))
}
