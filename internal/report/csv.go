package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// csvHeader lists the columns in the order WriteCSV emits them.
var csvHeader = []string{
	"tick", "price", "best_bid", "best_ask", "transactions", "volume",
	"shock", "shock_value", "optimists",
	"mm_wealth", "mm_cash", "mm_position",
	"fund_wealth", "fund_cash", "fund_position",
	"chart_wealth", "chart_cash", "chart_position",
}

// WriteCSV writes the collected series as CSV, header first.
func (c *Collector) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range c.Records() {
		row := []string{
			strconv.Itoa(rec.Tick),
			formatFloat(rec.Price),
			formatFloat(rec.BestBid),
			formatFloat(rec.BestAsk),
			strconv.FormatInt(rec.Transactions, 10),
			strconv.FormatInt(rec.Volume, 10),
			strconv.FormatBool(rec.Shock),
			formatFloat(rec.ShockValue),
			strconv.Itoa(rec.Optimists),
			formatFloat(rec.MarketMakers.Wealth),
			formatFloat(rec.MarketMakers.Cash),
			strconv.FormatInt(rec.MarketMakers.Position, 10),
			formatFloat(rec.Fundamentalists.Wealth),
			formatFloat(rec.Fundamentalists.Cash),
			strconv.FormatInt(rec.Fundamentalists.Position, 10),
			formatFloat(rec.Chartists.Wealth),
			formatFloat(rec.Chartists.Cash),
			strconv.FormatInt(rec.Chartists.Position, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", rec.Tick, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the series to a file, creating or truncating it.
func (c *Collector) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	if err := c.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
