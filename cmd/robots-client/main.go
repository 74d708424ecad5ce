package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"robots/internal/client"
	"robots/pkg/logging"
)

func main() {
	opts, err := client.ParseOptions(os.Args[1:])
	if errors.Is(err, client.ErrHelp) {
		fmt.Print(client.ClientUsage())
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.Init(opts.LogFile, false)
	defer logging.Sync()

	c, err := client.NewClient(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	c.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		c.Interrupt()
	}()

	if err := c.Wait(); !errors.Is(err, client.ErrInterrupted) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
