package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

func writeTable(w io.Writer, entries []fdb.L2Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VLAN\tMAC\tPORT\tCLASS\tVALIDATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", e.VlanID, e.MAC, portColumn(e), classColumn(e), e.Validated)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nTotal: %d\n", len(entries))
	return err
}

func writeJSON(w io.Writer, entries []fdb.L2Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func portColumn(e fdb.L2Entry) string {
	switch {
	case e.Port != nil:
		return "port " + strconv.FormatUint(uint64(*e.Port), 10)
	case e.Trunk != nil:
		return "lag " + strconv.FormatUint(uint64(*e.Trunk), 10)
	default:
		return "-"
	}
}

func classColumn(e fdb.L2Entry) string {
	if e.ClassID == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*e.ClassID), 10)
}
