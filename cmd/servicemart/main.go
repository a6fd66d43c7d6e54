package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/fx"

	"github.com/polkiloo/servicemart/internal/di"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == hashAdminKeyCommand {
		os.Exit(hashAdminKey(os.Stdin, os.Stdout, os.Stderr, os.Args[2:]))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := fx.New(
		fx.Provide(func() context.Context { return ctx }),
		di.Module(),
	)

	run(ctx, app)
}
