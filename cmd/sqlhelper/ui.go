package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/ido50/sqlhelper"
	"github.com/pterm/pterm"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

func printSuccess(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func printError(w io.Writer, format string, args ...interface{}) {
	errorColor.Fprintf(w, "✗ "+format+"\n", args...)
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	warningColor.Fprintf(w, "! "+format+"\n", args...)
}

func printInfo(w io.Writer, format string, args ...interface{}) {
	infoColor.Fprintf(w, format+"\n", args...)
}

// printRows renders rows as a table. Columns are sorted by name since
// rows don't keep the order of the query.
func printRows(w io.Writer, rows []sqlhelper.Row) error {
	if len(rows) == 0 {
		printWarning(w, "no rows")
		return nil
	}

	seen := make(map[string]bool)
	var headers []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				headers = append(headers, col)
			}
		}
	}
	sort.Strings(headers)

	data := pterm.TableData{headers}
	for _, row := range rows {
		line := make([]string, len(headers))
		for i, col := range headers {
			if val, ok := row[col]; ok && val != nil {
				line[i] = fmt.Sprint(val)
			} else {
				line[i] = "NULL"
			}
		}
		data = append(data, line)
	}

	if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render(); err != nil {
		return err
	}

	printInfo(w, "%d row(s)", len(rows))
	return nil
}
