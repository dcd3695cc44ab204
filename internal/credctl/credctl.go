// Package credctl implements the operator command line: generating the
// token signing key pair and registering credentials directly against the
// database.
package credctl

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const usage = `usage: credctl <command> [flags]

commands:
  keygen    write private.pem and public.pem for token signing
  register  create a credential, prompting for its password`

var ErrUsage = errors.New("invalid usage")

// Run dispatches args (without the program name) to a subcommand.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "keygen":
		return keygen(rest, stdout, stderr)
	case "register":
		return register(ctx, rest, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s\n", cmd, usage)
		return ErrUsage
	}
}
