package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/veesix-networks/fdbd/pkg/fdbapi"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

const helpText = `Commands:
  show fdb [vlan <id>] [json]                 bound forwarding entries
  show fdb managed                            every managed entry, bound or pending
  mac add <mac> port <name> [static] [class <id>]
  mac remove <mac> port <name>
  mac move <mac> port <from> <to> [static] [class <id>]
  help
  exit
`

// Exec runs one command line.
func (c *CLI) Exec(w io.Writer, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch args[0] {
	case "show":
		return c.show(ctx, w, args[1:])
	case "mac":
		return c.mac(ctx, w, args[1:])
	case "help", "?":
		fmt.Fprint(w, helpText)
		return nil
	case "exit", "quit":
		c.Stop()
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (c *CLI) show(ctx context.Context, w io.Writer, args []string) error {
	if len(args) == 0 || args[0] != "fdb" {
		return fmt.Errorf("usage: show fdb [vlan <id>] [json] | show fdb managed")
	}
	args = args[1:]

	if len(args) == 1 && args[0] == "managed" {
		lines, err := c.client.ListManagedObjects(ctx)
		if err != nil {
			return err
		}
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
		return nil
	}

	var (
		vlan   fdb.VlanID
		asJSON bool
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "json":
			asJSON = true
		case "vlan":
			if i+1 >= len(args) {
				return fmt.Errorf("vlan requires an id")
			}
			v, err := strconv.ParseUint(args[i+1], 10, 12)
			if err != nil {
				return fmt.Errorf("invalid vlan %q", args[i+1])
			}
			vlan = fdb.VlanID(v)
			i++
		default:
			return fmt.Errorf("unexpected argument %q", args[i])
		}
	}

	entries, err := c.client.ListEntries(ctx, vlan)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(w, entries)
	}
	return writeTable(w, entries)
}

func (c *CLI) mac(ctx context.Context, w io.Writer, args []string) error {
	intent, err := parseMacCommand(args)
	if err != nil {
		return err
	}
	if err := c.client.ApplyMacIntent(ctx, intent); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s submitted\n", intent.Op)
	return nil
}

// parseMacCommand turns "add|remove|move <mac> port <name> [<to>] [static] [class <id>]"
// into an intent.
func parseMacCommand(args []string) (fdbapi.MacIntent, error) {
	if len(args) < 4 || args[2] != "port" {
		return fdbapi.MacIntent{}, fmt.Errorf("usage: mac add|remove|move <mac> port <name> ...")
	}
	op, mac, port := args[0], args[1], args[3]
	rest := args[4:]

	switch op {
	case "remove":
		if len(rest) != 0 {
			return fdbapi.MacIntent{}, fmt.Errorf("unexpected argument %q", rest[0])
		}
		return fdbapi.MacIntent{Op: op, Old: &fdbapi.MacSpec{MAC: mac, Port: port}}, nil
	case "add":
		spec, err := parseSpecOptions(mac, port, rest)
		if err != nil {
			return fdbapi.MacIntent{}, err
		}
		return fdbapi.MacIntent{Op: op, New: spec}, nil
	case "move":
		if len(rest) == 0 {
			return fdbapi.MacIntent{}, fmt.Errorf("move requires a destination port")
		}
		spec, err := parseSpecOptions(mac, rest[0], rest[1:])
		if err != nil {
			return fdbapi.MacIntent{}, err
		}
		old := &fdbapi.MacSpec{MAC: mac, Port: port, Type: spec.Type}
		return fdbapi.MacIntent{Op: "change", Old: old, New: spec}, nil
	default:
		return fdbapi.MacIntent{}, fmt.Errorf("unknown mac command %q", op)
	}
}

func parseSpecOptions(mac, port string, opts []string) (*fdbapi.MacSpec, error) {
	spec := &fdbapi.MacSpec{MAC: mac, Port: port, Type: fdb.EntryTypeDynamic.String()}
	for i := 0; i < len(opts); i++ {
		switch opts[i] {
		case "static":
			spec.Type = fdb.EntryTypeStatic.String()
		case "class":
			if i+1 >= len(opts) {
				return nil, fmt.Errorf("class requires an id")
			}
			v, err := strconv.ParseUint(opts[i+1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid class %q", opts[i+1])
			}
			spec.ClassID = fdb.Uint32Ptr(uint32(v))
			i++
		default:
			return nil, fmt.Errorf("unexpected argument %q", opts[i])
		}
	}
	return spec, nil
}
