package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/fx"

	"github.com/polkiloo/servicemart/internal/pkg/auth"
)

const hashAdminKeyCommand = "hash-admin-key"

func run(ctx context.Context, app *fx.App) {
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start application: %v\n", err)
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	if err := app.Stop(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop application: %v\n", err)
		os.Exit(1)
	}
}

// hashAdminKey reads a key from stdin and prints the bcrypt hash expected in
// ADMIN_KEY_HASH.
func hashAdminKey(in io.Reader, out, errOut io.Writer, args []string) int {
	fs := flag.NewFlagSet(hashAdminKeyCommand, flag.ContinueOnError)
	fs.SetOutput(errOut)
	cost := fs.Int("cost", 0, "bcrypt cost (default when zero)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		fmt.Fprintf(errOut, "read admin key: %v\n", err)
		return 1
	}
	key := strings.TrimSpace(line)
	if key == "" {
		fmt.Fprintln(errOut, "admin key must not be empty")
		return 1
	}

	hash, err := auth.NewBcryptHasher(*cost).Hash(key)
	if err != nil {
		fmt.Fprintf(errOut, "hash admin key: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, hash)
	return 0
}
