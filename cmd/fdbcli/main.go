package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/veesix-networks/fdbd/pkg/fdbapi"
)

var serverAddr = flag.String("server", "localhost:50051", "fdbd gateway address")

func main() {
	flag.Parse()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	client, err := fdbapi.Dial(*serverAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", *serverAddr, err)
		fmt.Fprintf(os.Stderr, "Make sure fdbd is running\n")
		os.Exit(1)
	}
	defer client.Close()

	cli := NewCLI(client, *serverAddr)

	if args := flag.Args(); len(args) > 0 {
		if err := cli.Exec(os.Stdout, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cli.Stop()
		os.Exit(0)
	}()

	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
