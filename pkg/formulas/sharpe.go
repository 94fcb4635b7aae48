package formulas

// SharpeRatio calculates the annualized Sharpe ratio from daily returns.
//
// Sharpe Ratio Formula:
//
//	Sharpe = (Annualized Return - Risk-free Rate) / Annualized Volatility
//
// Args:
//
//	returns: Array of daily returns
//	riskFreeRate: Risk-free rate (annual, as decimal, e.g., 0.06 for 6%)
//
// Returns:
//
//	Sharpe ratio, or 0 when volatility is zero (undefined, not NaN).
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	vol := AnnualizedVolatility(returns)
	if vol == 0 {
		return 0
	}

	return (AnnualizedReturn(returns) - riskFreeRate) / vol
}

// SortinoRatio is the downside-deviation variant of the Sharpe ratio:
// same numerator, denominator uses the deviation of negative returns only.
// Returns 0 when there is no downside deviation.
func SortinoRatio(returns []float64, riskFreeRate float64) float64 {
	downside := DownsideDeviation(returns)
	if downside == 0 {
		return 0
	}

	return (AnnualizedReturn(returns) - riskFreeRate) / downside
}

// Alpha is the CAPM residual return of a series over a benchmark:
//
//	alpha = r_p - r_f - beta * (r_b - r_f)
//
// where r_p and r_b are annualized mean returns.
func Alpha(returns, benchmark []float64, riskFreeRate float64) float64 {
	beta := Beta(returns, benchmark)
	return AnnualizedReturn(returns) - riskFreeRate -
		beta*(AnnualizedReturn(benchmark)-riskFreeRate)
}
