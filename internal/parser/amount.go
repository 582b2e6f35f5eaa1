package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern matches a comma-decimal amount with optional sign and "." thousands
const amountPattern = `[-+]?\d{1,3}(?:\.\d{3})+,\d{2}|[-+]?\d+,\d{2}`

// parseDecimal converts "1.234,567" style numbers to a decimal without rounding
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	s = strings.TrimPrefix(s, "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse number %q: %w", s, err)
	}
	return d, nil
}

// parseAmount converts a receipt amount like "-0,63" or "1.234,56" to a
// 2-digit fixed point value
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(2), nil
}

// ReadLines splits extracted receipt text into lines, dropping carriage returns
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return lines, nil
}
