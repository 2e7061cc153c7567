package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/ledger"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/portfolio"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/repository"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/services"
)

type reportCmd struct {
	user     int64
	currency string
	json     bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print the valuation of a user's portfolio" }
func (*reportCmd) Usage() string {
	return `ledgerctl report -user <id> [-currency usd|eur|kzt] [-json]

  Values the user's holdings with live CoinGecko prices and prints one row
  per asset followed by the portfolio totals.
`
}

func (r *reportCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&r.user, "user", 0, "Id of the user whose portfolio is valued.")
	f.StringVar(&r.currency, "currency", "usd", "Fiat currency of the valuation.")
	f.BoolVar(&r.json, "json", false, "Print the raw report as JSON.")
}

func (r *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if r.user <= 0 {
		fmt.Fprintln(os.Stderr, "report: -user is required")
		f.Usage()
		return subcommands.ExitUsageError
	}

	cfg, db, log, err := openStore(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	feed := services.NewPriceFeed(
		services.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.CoinGeckoKey, nil),
		services.NewExchangeRateClient(cfg.ExchangeRateURL, cfg.ExchangeRateKey, nil),
		log,
	)
	svc := ledger.NewService(repository.NewDealRepository(db), feed, log)

	report, err := svc.Report(ctx, models.Session{ID: "ledgerctl", UserID: r.user}, r.currency)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if r.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	} else {
		err = writeReport(os.Stdout, report)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// writeReport prints the report as an aligned table.
func writeReport(out io.Writer, report models.ValuationReport) error {
	money := func(v float64) string { return portfolio.FormatAmount(v, report.Currency) }
	pct := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) + "%" }

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ASSET\tQTY\tAVG COST\tPRICE\tVALUE\tP/L\tP/L %\tSHARE\t")
	for _, a := range report.Assets {
		price, value, pl, plPct, share := "n/a", "n/a", "n/a", "n/a", "n/a"
		if a.Priced {
			price, value, pl = money(a.CurrentPrice), money(a.CurrentValue), money(a.ProfitLoss)
			plPct, share = pct(a.ProfitLossPercent), pct(a.ShareOfPortfolio)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			a.CurrencyID,
			strconv.FormatFloat(a.TotalCount, 'f', -1, 64),
			money(a.AvgPrice),
			price, value, pl, plPct, share,
		)
	}
	fmt.Fprintf(w, "TOTAL\t\t%s\t\t%s\t%s\t%s\t\t\n",
		money(report.TotalInvested),
		money(report.TotalCurrentValue),
		money(report.TotalProfitLoss),
		pct(report.TotalProfitLossPercent),
	)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(report.Unpriced) > 0 {
		fmt.Fprintf(out, "\nno %s price for: %v\n", report.Currency, report.Unpriced)
	}
	return nil
}
