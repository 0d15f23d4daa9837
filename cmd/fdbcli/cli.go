package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/veesix-networks/fdbd/pkg/fdbapi"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

const requestTimeout = 10 * time.Second

// Client is the part of the gateway API the shell uses.
type Client interface {
	ListEntries(ctx context.Context, vlan fdb.VlanID) ([]fdb.L2Entry, error)
	ListManagedObjects(ctx context.Context) ([]string, error)
	ApplyMacIntent(ctx context.Context, intent fdbapi.MacIntent) error
}

type CLI struct {
	client     Client
	serverAddr string
	rl         *readline.Instance
	running    bool
}

func NewCLI(client Client, serverAddr string) *CLI {
	return &CLI{
		client:     client,
		serverAddr: serverAddr,
		running:    true,
	}
}

func (c *CLI) Run() error {
	var err error
	c.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "fdb> ",
		HistoryFile:     os.ExpandEnv("$HOME/.fdbcli_history"),
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer c.rl.Close()

	fmt.Fprintf(c.rl.Stdout(), "fdbd shell, connected to %s. Type 'help' for commands.\n", c.serverAddr)

	for c.running {
		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					break
				}
				continue
			} else if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		if err := c.Exec(c.rl.Stdout(), args); err != nil {
			fmt.Fprintf(c.rl.Stderr(), "Error: %v\n", err)
		}
	}

	return nil
}

func (c *CLI) Stop() {
	c.running = false
}

func completer() readline.AutoCompleter {
	macArgs := readline.PcItem("port")
	return readline.NewPrefixCompleter(
		readline.PcItem("show",
			readline.PcItem("fdb",
				readline.PcItem("vlan"),
				readline.PcItem("json"),
				readline.PcItem("managed"),
			),
		),
		readline.PcItem("mac",
			readline.PcItem("add", macArgs),
			readline.PcItem("remove", macArgs),
			readline.PcItem("move", macArgs),
		),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}
