package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// HashPasswordOptions defines the arguments of the hash-password command.
type HashPasswordOptions struct {
	Password string
	Cost     int
	Stdout   io.Writer
	Stderr   io.Writer
}

// HashPasswordCommand prints a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPasswordCommand(opts HashPasswordOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if len(opts.Password) < 8 {
		_, _ = fmt.Fprintln(opts.Stderr, "hash-password: password must be at least 8 characters")
		return 1
	}
	cost := opts.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), cost)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "hash-password: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(opts.Stdout, string(hash))
	return 0
}
