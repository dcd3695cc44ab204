package credctl

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/credauth/internal/logging"
	"github.com/dmitrijs2005/credauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credauth/internal/server/services"
	"golang.org/x/term"
)

type registrar interface {
	Register(ctx context.Context, req services.RegisterRequest) error
}

// Test seams.
var (
	readPassword = term.ReadPassword
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
	openDB       = repomanager.OpenPostgres
	newRegistrar = func(db *sql.DB, l logging.Logger) registrar {
		return services.NewAuthService(db, repomanager.NewPostgresRepositoryManager(), nil, nil, l)
	}
)

func register(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var req services.RegisterRequest
	fs.StringVar(&req.Role, "role", "", "role: admins, users, employees or managers")
	fs.StringVar(&req.Username, "username", "", "username")
	fs.StringVar(&req.Contact, "contact", "", "contact")
	fs.StringVar(&req.FirstName, "firstname", "", "first name")
	fs.StringVar(&req.LastName, "lastname", "", "last name")
	dsn := fs.String("d", os.Getenv("DATABASE_URL"), "database DSN")
	migrate := fs.Bool("m", false, "apply migrations before registering")
	level := fs.String("l", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	if *dsn == "" {
		return errors.New("database DSN is required (-d or DATABASE_URL)")
	}

	pass, err := promptPassword(stderr)
	if err != nil {
		return err
	}
	req.Password = pass

	db, err := openDB(ctx, *dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if *migrate {
		if err := repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	logger := logging.NewJSONLogger(stderr, *level)
	if err := newRegistrar(db, logger).Register(ctx, req); err != nil {
		return fmt.Errorf("register %q: %w", req.Username, err)
	}

	fmt.Fprintf(stdout, "registered %s in %s\n", req.Username, req.Role)
	return nil
}

func promptPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Password: ")
	first, err := readPassword(stdinFd())
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword(stdinFd())
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	defer wipe(first)
	defer wipe(second)

	p1 := strings.TrimRight(string(first), "\r\n")
	if p1 != strings.TrimRight(string(second), "\r\n") {
		return "", errors.New("passwords do not match")
	}
	return p1, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
