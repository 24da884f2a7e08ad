package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/interest-engine/api"
	"github.com/warp/interest-engine/interest"
)

type calcFlags struct {
	principal       string
	rate            string
	start           string
	end             string
	dayBase         string
	divideBy        string
	index           string
	correctionStart string
	correctionEnd   string
	nearest         bool
	asJSON          bool
}

func newCalcCmd(a *app) *cobra.Command {
	var f calcFlags

	cmd := &cobra.Command{
		Use:   "calc <formula>",
		Short: "Run one calculation",
		Long: `Runs one calculation with a formula preset (see "GET /api/formulas") or a
bare kind such as simple_monthly.

Passing --index corrects the principal first. The correction range defaults
to the calculation range.`,
		Example: `  interestd calc compound-annual --principal 10000 --rate 12 --start 2024-01-01 --end 2024-12-30
  interestd calc simple-monthly --principal 1.000,00 --rate 1 --start 2024-01-01 --end 2024-02-29 --index ipca_demo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.calc(cmd.Context(), cmd.OutOrStdout(), args[0], f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.principal, "principal", "", "principal amount (decimal comma accepted)")
	fl.StringVar(&f.rate, "rate", "", "rate in percent")
	fl.StringVar(&f.start, "start", "", "start date")
	fl.StringVar(&f.end, "end", "", "end date")
	fl.StringVar(&f.dayBase, "day-base", "", "days per month (default from config)")
	fl.StringVar(&f.divideBy, "divide-by", "", "rate divisor (default from formula)")
	fl.StringVar(&f.index, "index", "", "index series to correct the principal by")
	fl.StringVar(&f.correctionStart, "correction-start", "", "correction range start (default --start)")
	fl.StringVar(&f.correctionEnd, "correction-end", "", "correction range end (default --end)")
	fl.BoolVar(&f.nearest, "nearest", false, "use the nearest records when the correction range is empty")
	fl.BoolVar(&f.asJSON, "json", false, "print the full result as JSON")
	cmd.MarkFlagRequired("principal")
	cmd.MarkFlagRequired("rate")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

func (f calcFlags) raw() interest.RawInput {
	raw := interest.RawInput{
		Principal: f.principal,
		Rate:      f.rate,
		Start:     f.start,
		End:       f.end,
		DayBase:   f.dayBase,
		DivideBy:  f.divideBy,
	}
	if f.index != "" {
		raw.ApplyCorrection = true
		raw.Index = f.index
		raw.CorrectionStart = orString(f.correctionStart, f.start)
		raw.CorrectionEnd = orString(f.correctionEnd, f.end)
		raw.Nearest = f.nearest
	}
	return raw
}

func (a *app) calc(ctx context.Context, out io.Writer, formulaID string, f calcFlags) error {
	h, closeStore, err := a.newHandler(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	def, err := h.Formulas.Lookup(formulaID)
	if err != nil {
		return err
	}
	in, err := interest.ParseInput(f.raw())
	if err != nil {
		return err
	}
	formula, err := h.Formulas.Build(def, in)
	if err != nil {
		return err
	}
	calc, err := h.Calculator.Calculate(ctx, in, formula)
	if err != nil {
		return err
	}

	dto := api.NewCalculationDTO(def, calc)
	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(dto)
	}
	return printCalculation(out, dto)
}

func printCalculation(out io.Writer, dto api.CalculationDTO) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Formula:\t%s (%s)\n", dto.FormulaName, dto.Kind)
	fmt.Fprintf(tw, "Period:\t%s to %s (%d days)\n", dto.Start, dto.End, dto.Days)
	fmt.Fprintf(tw, "Principal:\t%s\n", dto.Principal)
	fmt.Fprintf(tw, "Rate:\t%s%%\n", dto.Rate)
	fmt.Fprintf(tw, "Correction:\t%s\n", dto.Correction.Status)
	if dto.Correction.Applied {
		fmt.Fprintf(tw, "Corrected principal:\t%s (%s, factor %.6f)\n",
			dto.Correction.Amount, dto.Correction.Index, dto.Correction.Factor)
	}
	if dto.Correction.Error != "" {
		fmt.Fprintf(tw, "Correction error:\t%s\n", dto.Correction.Error)
	}
	fmt.Fprintf(tw, "Interest:\t%s\n", dto.Interest)
	fmt.Fprintf(tw, "Total:\t%s\n", dto.Total)
	return tw.Flush()
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
