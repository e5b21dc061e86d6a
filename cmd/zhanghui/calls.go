package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/inkstone/zhanghui/internal/calllog"
	"github.com/inkstone/zhanghui/internal/svcctx"
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Summarize recorded classifier calls",
	Long: `Summarize the classifier call log: per purpose, how many calls ran,
how many degraded, and their latency and token totals. The log accumulates
across runs at ~/.zhanghui/calls.jsonl.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := svcctx.HomeFrom(cmd.Context()).CallLogPath()
		calls, err := calllog.Read(path)
		if os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "no calls recorded")
			return nil
		}
		if err != nil {
			return err
		}

		type tally struct {
			calls, degraded     int
			latencyMs           int
			inTokens, outTokens int
		}
		byPurpose := make(map[string]*tally)
		for _, c := range calls {
			t := byPurpose[c.Purpose]
			if t == nil {
				t = &tally{}
				byPurpose[c.Purpose] = t
			}
			t.calls++
			t.latencyMs += c.LatencyMs
			t.inTokens += c.InputTokens
			t.outTokens += c.OutputTokens
			if c.Error != "" {
				t.degraded++
			}
		}

		purposes := make([]string, 0, len(byPurpose))
		for p := range byPurpose {
			purposes = append(purposes, p)
		}
		sort.Strings(purposes)

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%d call(s) recorded\n", len(calls))
		for _, p := range purposes {
			t := byPurpose[p]
			fmt.Fprintf(w, "  %-22s %d call(s), %d degraded, avg %dms, %d in / %d out tokens\n",
				p, t.calls, t.degraded, t.latencyMs/t.calls, t.inTokens, t.outTokens)
		}
		return nil
	},
}
