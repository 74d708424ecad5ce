package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"robots/internal/server"
	"robots/pkg/logging"
)

func main() {
	opts, err := server.ParseOptions(os.Args[1:])
	if errors.Is(err, server.ErrHelp) {
		fmt.Print(server.ServerUsage())
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.Init(opts.LogFile, false)
	defer logging.Sync()

	gameServer := server.NewGameServer(opts)
	if err := gameServer.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		gameServer.Interrupt()
	}()

	if err := gameServer.Wait(); !errors.Is(err, server.ErrInterrupted) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
