package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"hoteldash/internal/analytics"
	"hoteldash/internal/core"
	"hoteldash/internal/log"
	"hoteldash/internal/source"
)

var (
	computePayload   string
	computeRows      string
	computeDimension string
	computeMetric    string
	computeMetrics   string
	computeLimit     int
	computeMode      string
	computeFormat    string
)

var computeCmd = &cobra.Command{
	Use:       "compute <distribution|fluctuation|table|ranking>",
	Short:     "Compute a dashboard view from a payload or CSV file",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{core.ViewDistribution, core.ViewFluctuation, core.ViewTable, core.ViewRanking},
	RunE: func(cmd *cobra.Command, args []string) error {
		if (computePayload == "") == (computeRows == "") {
			return fmt.Errorf("exactly one of --payload or --rows is required")
		}
		switch computeFormat {
		case "json":
		case "text":
			if args[0] != core.ViewTable {
				return fmt.Errorf("text format is only available for the %s view", core.ViewTable)
			}
		default:
			return fmt.Errorf("unknown format %q: must be json or text", computeFormat)
		}

		engine := analytics.NewEngine(log.FromContext(cmd.Context()).WithComponent(log.ComponentAnalytics))
		p, err := loadPayload(cmd, engine)
		if err != nil {
			return err
		}

		out, err := computeView(engine, args[0], p)
		if err != nil {
			return err
		}
		if rows, ok := out.([]core.TableRow); ok && computeFormat == "text" {
			return printTable(cmd.OutOrStdout(), rows)
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	computeCmd.Flags().StringVar(&computePayload, "payload", "", "Payload JSON file (\"-\" for stdin)")
	computeCmd.Flags().StringVar(&computeRows, "rows", "", "Daily rows CSV file (\"-\" for stdin)")
	computeCmd.Flags().StringVar(&computeDimension, "dimension", string(core.BookingChannel), "Dimension of the CSV rows")
	computeCmd.Flags().StringVar(&computeMetric, "metric", core.MetricRevenue, "Metric for distribution, fluctuation and ranking")
	computeCmd.Flags().StringVar(&computeMetrics, "metrics", "", "Comma separated table metrics (default all)")
	computeCmd.Flags().IntVar(&computeLimit, "limit", 5, "Top-N for distribution and ranking")
	computeCmd.Flags().StringVar(&computeMode, "mode", string(core.RankTop), "Ranking mode: top, bottom, rising or falling")
	computeCmd.Flags().StringVar(&computeFormat, "format", "json", "Output format: json, or text for the table view")
	rootCmd.AddCommand(computeCmd)
}

func loadPayload(cmd *cobra.Command, engine *analytics.Engine) (core.Payload, error) {
	if computePayload != "" {
		in, err := openInput(computePayload)
		if err != nil {
			return core.Payload{}, err
		}
		defer in.Close()

		var p core.Payload
		if err := json.NewDecoder(in).Decode(&p); err != nil {
			return core.Payload{}, fmt.Errorf("decode payload: %w", err)
		}
		return p, nil
	}

	dim := core.Dimension(strings.ToLower(computeDimension))
	if !dim.IsValid() {
		return core.Payload{}, fmt.Errorf("%w %q", core.ErrInvalidDimension, computeDimension)
	}

	in, err := openInput(computeRows)
	if err != nil {
		return core.Payload{}, err
	}
	defer in.Close()

	rows, invalid, err := source.ReadCSV(in, dim)
	if err != nil {
		return core.Payload{}, err
	}
	for _, rowErr := range invalid {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipping %v\n", rowErr)
	}
	return engine.AssemblePayload(dim, rows), nil
}

func computeView(engine *analytics.Engine, view string, p core.Payload) (any, error) {
	switch view {
	case core.ViewDistribution:
		if err := requireMetric(p, computeMetric); err != nil {
			return nil, err
		}
		return engine.Distribution(p, computeMetric, computeLimit), nil
	case core.ViewFluctuation:
		if _, ok := p.FluctuationData[computeMetric]; !ok {
			return nil, fmt.Errorf("unknown metric %q", computeMetric)
		}
		return engine.Fluctuation(p, computeMetric), nil
	case core.ViewTable:
		metrics := lo.Compact(lo.Map(strings.Split(computeMetrics, ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))
		for _, m := range metrics {
			if err := requireMetric(p, m); err != nil {
				return nil, err
			}
		}
		return engine.Table(p, metrics...), nil
	case core.ViewRanking:
		mode, err := core.ParseRankMode(computeMode)
		if err != nil {
			return nil, fmt.Errorf("%w %q", err, computeMode)
		}
		if err := requireMetric(p, computeMetric); err != nil {
			return nil, err
		}
		return engine.Ranking(p, computeMetric, mode, computeLimit), nil
	default:
		return nil, fmt.Errorf("unknown view %q", view)
	}
}

// printTable writes table rows as aligned columns: the category, then the
// value, previous value and change of each metric.
func printTable(w io.Writer, rows []core.TableRow) error {
	metrics := lo.Uniq(lo.FlatMap(rows, func(r core.TableRow, _ int) []string { return r.Metrics() }))
	sort.Strings(metrics)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"category"}
	for _, m := range metrics {
		header = append(header, m, core.PreviousKey(m), core.ChangeKey(m))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, r := range rows {
		cells := []string{r.Category}
		for _, m := range metrics {
			for _, key := range []string{m, core.PreviousKey(m), core.ChangeKey(m)} {
				cells = append(cells, strconv.FormatFloat(r.Values[key], 'f', -1, 64))
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func requireMetric(p core.Payload, metric string) error {
	if _, ok := p.KPIs[metric]; !ok {
		keys := lo.Keys(p.KPIs)
		sort.Strings(keys)
		return fmt.Errorf("unknown metric %q (payload has %s)", metric, strings.Join(keys, ", "))
	}
	return nil
}
