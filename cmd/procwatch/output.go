package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/view"
	"github.com/spf13/cobra"
)

// viewFlags are the filter, sort and output flags shared by snapshot and
// watch.
type viewFlags struct {
	search   string
	category string
	sort     string
	asc      bool
	limit    int
	output   string
}

func (v *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&v.search, "search", "q", "", "match name, bundle id, pid or executable path")
	cmd.Flags().StringVar(&v.category, "category", "all", "all, user, system or app")
	cmd.Flags().StringVar(&v.sort, "sort", "cpu", "cpu, memory, name, pid or threads")
	cmd.Flags().BoolVar(&v.asc, "asc", false, "sort ascending")
	cmd.Flags().IntVarP(&v.limit, "limit", "n", 0, "show at most N rows (0 = all)")
	cmd.Flags().StringVarP(&v.output, "output", "o", "table", "table, json or csv")
}

func (v *viewFlags) state() (view.State, error) {
	cat, err := view.ParseCategory(v.category)
	if err != nil {
		return view.State{}, err
	}
	key, err := view.ParseSortKey(v.sort)
	if err != nil {
		return view.State{}, err
	}
	return view.State{Search: v.search, Category: cat, Sort: key, Ascending: v.asc}, nil
}

func (v *viewFlags) renderer() (func(io.Writer, []process.Record) error, error) {
	switch v.output {
	case "table", "":
		return renderTable, nil
	case "json":
		return renderJSON, nil
	case "csv":
		return renderCSV, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, json or csv)", v.output)
	}
}

// apply filters, sorts and truncates a snapshot's records.
func (v *viewFlags) apply(s process.Snapshot, st view.State) []process.Record {
	recs := view.Apply(s.Records, st)
	if v.limit > 0 && len(recs) > v.limit {
		recs = recs[:v.limit]
	}
	return recs
}

var columns = []string{"PID", "NAME", "STATE", "CPU%", "MEM", "THREADS", "CONNS", "ENERGY", "USER"}

func row(r process.Record) []string {
	return []string{
		strconv.Itoa(int(r.PID)),
		r.Name,
		r.State.String(),
		optf(r.CPUPercent, "%.1f"),
		optf(r.RSS, "%s"),
		optf(r.Threads, "%d"),
		optf(r.Connections, "%d"),
		optf(r.EnergyImpact, "%.2f"),
		optf(r.User, "%t"),
	}
}

func optf[T any](o process.Opt[T], format string) string {
	v, ok := o.Get()
	if !ok {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

func renderTable(w io.Writer, recs []process.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, r := range recs {
		fmt.Fprintln(tw, strings.Join(row(r), "\t"))
	}
	return tw.Flush()
}

func renderJSON(w io.Writer, recs []process.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

func renderCSV(w io.Writer, recs []process.Record) error {
	cw := csv.NewWriter(w)
	_ = cw.Write(columns)
	for _, r := range recs {
		_ = cw.Write(row(r))
	}
	cw.Flush()
	return cw.Error()
}
