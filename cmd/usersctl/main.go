package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sample_app/internal/config"
	"github.com/Skotchmaster/sample_app/internal/db"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{open: func(ctx context.Context) (*gorm.DB, error) {
		return db.Open(ctx, cfg.DatabaseURL)
	}}

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
