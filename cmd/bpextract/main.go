// Command bpextract converts Blue Prism export documents into tabular
// summaries and splits combined exports into one file per item.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	if err := a.execute(ctx, newRootCmd(a)); err != nil {
		stop()
		os.Exit(1)
	}
}
