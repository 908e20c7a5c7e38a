package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/thrasher-corp/swingtrader/common/convert"
	"github.com/thrasher-corp/swingtrader/kline"
	"github.com/thrasher-corp/swingtrader/log"
)

const barColumns = 7

var errInvalidRow = errors.New("invalid bar row")

// loadBars reads a CSV file of symbol,time,open,high,low,close,volume rows. A
// header row is skipped. Bars are returned ordered by time then symbol
func loadBars(path string) ([]kline.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil {
			log.Errorln(log.Global, cErr)
		}
	}()
	return readBars(f)
}

func readBars(r io.Reader) ([]kline.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = barColumns
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var bars []kline.Bar
	for n := 1; ; n++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if n == 1 && strings.EqualFold(row[0], "symbol") {
			continue
		}
		b, err := parseBar(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, j int) bool {
		if !bars[i].Time.Equal(bars[j].Time) {
			return bars[i].Time.Before(bars[j].Time)
		}
		return bars[i].Symbol < bars[j].Symbol
	})
	return bars, nil
}

func parseBar(row []string) (kline.Bar, error) {
	symbol := strings.ToUpper(strings.TrimSpace(row[0]))
	if symbol == "" {
		return kline.Bar{}, fmt.Errorf("%w: empty symbol", errInvalidRow)
	}
	t, err := convert.TimeFromString(row[1])
	if err != nil {
		return kline.Bar{}, fmt.Errorf("%w: %s %w", errInvalidRow, symbol, err)
	}
	var values [5]float64
	for i := range values {
		values[i], err = convert.FloatFromString(row[i+2])
		if err != nil {
			return kline.Bar{}, fmt.Errorf("%w: %s %w", errInvalidRow, symbol, err)
		}
	}
	b := kline.Bar{
		Symbol: symbol,
		Time:   t,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}
	return b, b.Validate()
}
