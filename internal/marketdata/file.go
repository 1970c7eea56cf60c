package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/varcalc/internal/risk"
)

// FileProvider date,close CSV 기반 오프라인 공급자
// path가 디렉터리면 <path>/<SYMBOL>.csv 를 읽는다.
type FileProvider struct {
	path        string
	minCoverage float64
}

// NewFileProvider creates a provider over a CSV file or a directory of them.
func NewFileProvider(path string, minCoverage float64) *FileProvider {
	return &FileProvider{path: path, minCoverage: minCoverage}
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339, "02-01-2006"}

// Fetch reads prices and converts them like the online provider.
func (p *FileProvider) Fetch(ctx context.Context, symbol string, window int) (risk.ReturnSeries, error) {
	if err := ctx.Err(); err != nil {
		return risk.ReturnSeries{}, err
	}

	path, err := p.resolve(symbol)
	if err != nil {
		return risk.ReturnSeries{}, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return risk.ReturnSeries{}, risk.NewError(risk.ErrDataUnavailable, "symbol",
			fmt.Errorf("no price file for %s at %s", symbol, path))
	}
	if err != nil {
		return risk.ReturnSeries{}, fmt.Errorf("open prices: %w", err)
	}
	defer f.Close()

	points, err := ReadPrices(f)
	if err != nil {
		return risk.ReturnSeries{}, fmt.Errorf("read %s: %w", path, err)
	}
	return buildSeries(symbol, points, window, p.minCoverage)
}

func (p *FileProvider) resolve(symbol string) (string, error) {
	info, err := os.Stat(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p.path, nil
		}
		return "", fmt.Errorf("stat prices: %w", err)
	}
	if info.IsDir() {
		return filepath.Join(p.path, strings.ToUpper(symbol)+".csv"), nil
	}
	return p.path, nil
}

// ReadPrices parses date,close rows. A header row and blank or "null"
// closes are skipped; extra columns are ignored.
func ReadPrices(r io.Reader) ([]PricePoint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var points []PricePoint
	line := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: want date,close", line)
		}

		date, derr := parseDate(rec[0])
		if derr != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("line %d: %w", line, derr)
		}

		raw := strings.TrimSpace(rec[1])
		if raw == "" || strings.EqualFold(raw, "null") {
			continue
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: close %q: %w", line, raw, err)
		}
		points = append(points, PricePoint{Date: date, Close: price})
	}
	return points, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
