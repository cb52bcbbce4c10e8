package engine

import (
	"fmt"
	"strings"

	"github.com/akoiralaa/options-pricer/models"
)

func FormatContract(spec models.ContractSpec) string {
	return fmt.Sprintf("S=%.2f K=%.2f T=%.4fy (%.0f days) r=%.2f%% vol=%.2f%%",
		spec.Spot, spec.Strike, spec.TimeToExpiry, spec.TimeToExpiry*365, spec.Rate*100, spec.Volatility*100)
}

func FormatBSM(spec models.ContractSpec, res models.BSMResult, higher *models.HigherOrderGreeks) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Black-Scholes %s: %s\n", res.OptionType, FormatContract(spec))
	fmt.Fprintf(&b, "Price: %.4f\n", res.Price)
	fmt.Fprintf(&b, "Delta: %.4f\n", res.Greeks.Delta)
	fmt.Fprintf(&b, "Gamma: %.4f\n", res.Greeks.Gamma)
	fmt.Fprintf(&b, "Vega:  %.4f (per 1%% vol)\n", res.Greeks.Vega)
	fmt.Fprintf(&b, "Theta: %.4f (per day)\n", res.Greeks.Theta)
	fmt.Fprintf(&b, "Rho:   %.4f (per 1%% rate)\n", res.Greeks.Rho)
	if higher != nil {
		fmt.Fprintf(&b, "Shadow gamma: up %.4f, down %.4f\n", higher.ShadowUpGamma, higher.ShadowDownGamma)
		fmt.Fprintf(&b, "Skew gamma: %.6f\n", higher.SkewGamma)
	}
	return b.String()
}

func FormatImpliedVol(optionType models.OptionType, observedPrice float64, res models.ImpliedVolResult, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Implied volatility of %s at %.4f: %.4f%%\n", optionType, observedPrice, res.Volatility*100)
	fmt.Fprintf(&b, "Method: %s, iterations: %d, converged: %t\n", res.Method, res.Iterations, res.Converged)
	if err != nil {
		fmt.Fprintf(&b, "Warning: %v\n", err)
	}
	return b.String()
}

func FormatSimulation(payoff models.PayoffSpec, res models.SimulationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Monte Carlo %s: %d paths\n", describePayoff(payoff), res.NumPaths)
	fmt.Fprintf(&b, "Price: %.4f\n", res.Price)
	fmt.Fprintf(&b, "Standard error: %.4f\n", res.StandardError)
	fmt.Fprintf(&b, "%.0f%% CI: [%.4f, %.4f]\n", res.ConfidenceLevel*100, res.ConfidenceInterval.Low, res.ConfidenceInterval.High)
	return b.String()
}

func FormatComparison(cmp Comparison) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Black-Scholes %s: %.4f\n", cmp.Analytic.OptionType, cmp.Analytic.Price)
	fmt.Fprintf(&b, "Monte Carlo:  %.4f (SE %.4f, %d paths)\n", cmp.MonteCarlo.Price, cmp.MonteCarlo.StandardError, cmp.MonteCarlo.NumPaths)
	fmt.Fprintf(&b, "%.0f%% CI: [%.4f, %.4f]\n", cmp.MonteCarlo.ConfidenceLevel*100, cmp.MonteCarlo.ConfidenceInterval.Low, cmp.MonteCarlo.ConfidenceInterval.High)
	fmt.Fprintf(&b, "Difference: %.4f (%.2f%%)\n", cmp.AbsoluteDifference, cmp.RelativeDifference)
	if cmp.WithinConfidence {
		b.WriteString("Black-Scholes price is inside the confidence interval\n")
	} else {
		b.WriteString("Black-Scholes price is OUTSIDE the confidence interval\n")
	}
	return b.String()
}

func FormatLadder(rows []LadderRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%10s %10s %8s %10s %8s %8s %8s\n", "Strike", "Call", "Delta", "Put", "Delta", "Gamma", "Vega")
	for _, row := range rows {
		fmt.Fprintf(&b, "%10.2f %10.4f %8.4f %10.4f %8.4f %8.4f %8.4f",
			row.Strike, row.Call.Price, row.Call.Greeks.Delta, row.Put.Price, row.Put.Greeks.Delta, row.Call.Greeks.Gamma, row.Call.Greeks.Vega)
		if row.CallImpliedVol != nil {
			fmt.Fprintf(&b, "  IV %.2f%%", row.CallImpliedVol.Volatility*100)
			if row.CallImpliedVolError != "" {
				fmt.Fprintf(&b, " (%s)", row.CallImpliedVolError)
			} else if !row.CallImpliedVol.Converged {
				b.WriteString(" (not converged)")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func describePayoff(p models.PayoffSpec) string {
	if p.Type != models.PayoffBarrier {
		return fmt.Sprintf("%s %s", p.Type, p.OptionType)
	}
	direction := ""
	if p.BarrierDirection != "" {
		direction = string(p.BarrierDirection) + " "
	}
	return fmt.Sprintf("%s%s %s barrier at %.2f", direction, p.BarrierKind, p.OptionType, p.BarrierLevel)
}
