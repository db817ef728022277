// Command audit-engine re-evaluates the balance checks inside a generated
// workbook through the spreadsheet formula engine, independently of the Go
// math that produced it. Exits non-zero if any check fails.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"finmodel/pkg/models"
)

// Standard check cells per model family. A run record supplied via -run
// overrides these with the checks captured at build time.
var lboChecks = []models.CheckCell{
	{Sheet: "Sources_Uses", Cell: "B15", Label: "Sources equal Uses", Want: "zero"},
	{Sheet: "ProForma_BS", Cell: "B15", Label: "Balance sheet balances", Want: "zero"},
}

var dcfChecks = []models.CheckCell{
	{Sheet: "DCF", Cell: "B26", Label: "Cost of equity exceeds after-tax cost of debt", Want: "positive"},
	{Sheet: "DCF", Cell: "B27", Label: "WACC exceeds terminal growth", Want: "positive"},
	{Sheet: "Summary", Cell: "B20", Label: "Quality checks clear", Want: "positive"},
}

func main() {
	workbookPath := flag.String("workbook", "", "path to a generated .xlsx model")
	runPath := flag.String("run", "", "optional run record JSON whose embedded checks replace the standard set")
	tol := flag.Float64("tol", 1e-6, "absolute tolerance for zero checks")
	flag.Parse()

	if *workbookPath == "" {
		fmt.Println("usage: audit-engine -workbook model.xlsx [-run run.json] [-tol 1e-6]")
		os.Exit(2)
	}

	f, err := excelize.OpenFile(*workbookPath)
	if err != nil {
		fmt.Printf("Error opening workbook: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	checks, err := resolveChecks(f, *runPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, c := range checks {
		value, err := evaluate(f, c.Sheet, c.Cell)
		if err != nil {
			fmt.Printf("[FAIL] %s!%s  %s: %v\n", c.Sheet, c.Cell, c.Label, err)
			failed++
			continue
		}

		var ok bool
		switch c.Want {
		case "zero":
			ok = math.Abs(value) <= *tol
		case "positive":
			ok = value > 0
		default:
			fmt.Printf("[FAIL] %s!%s  %s: unknown expectation %q\n", c.Sheet, c.Cell, c.Label, c.Want)
			failed++
			continue
		}

		status := "PASS"
		if !ok {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s!%s  %s  (want %s, got %g)\n", status, c.Sheet, c.Cell, c.Label, c.Want, value)
	}

	if failed > 0 {
		fmt.Printf("%d of %d check(s) failed\n", failed, len(checks))
		os.Exit(1)
	}
	fmt.Printf("%d check(s) passed: workbook is internally consistent\n", len(checks))
}

// resolveChecks picks the check set: the run record's when given, otherwise
// the standard set for whichever model family the sheet list identifies.
func resolveChecks(f *excelize.File, runPath string) ([]models.CheckCell, error) {
	if runPath != "" {
		data, err := os.ReadFile(runPath)
		if err != nil {
			return nil, fmt.Errorf("read run record: %w", err)
		}
		var run models.ModelRun
		if err := json.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("parse run record: %w", err)
		}
		if len(run.Summary.Checks) == 0 {
			return nil, fmt.Errorf("run record %s carries no checks", runPath)
		}
		return run.Summary.Checks, nil
	}

	for _, sheet := range f.GetSheetList() {
		switch sheet {
		case "DebtSchedule":
			return lboChecks, nil
		case "DCF":
			return dcfChecks, nil
		}
	}
	return nil, fmt.Errorf("workbook has neither a DebtSchedule nor a DCF sheet; pass -run to supply checks")
}

func evaluate(f *excelize.File, sheet, cell string) (float64, error) {
	raw, err := f.CalcCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, fmt.Errorf("evaluate: %w", err)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric result %q", raw)
	}
	return value, nil
}
