package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/bookshelf/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	prefsPath := flag.String("prefs", "", "override preferences path (optional)")
	open := flag.String("open", "/", "screen to open, e.g. /books/create or /books/<isbn>")
	pageSize := flag.Int("page-size", 0, "books per page (optional, defaults to config)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Route:      *open,
		PageSize:   *pageSize,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "bookshelf: %v\n", err)
		return 1
	}
	return 0
}
