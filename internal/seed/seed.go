// Package seed loads the SurfsUp CSV exports into the station and
// measurement tables.
package seed

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

var (
	stationColumns     = []string{"station", "name", "latitude", "longitude", "elevation"}
	measurementColumns = []string{"station", "date", "prcp", "tobs"}
)

const (
	insertStationSQL     = `INSERT INTO station (station, name, latitude, longitude, elevation) VALUES ($1, $2, $3, $4, $5)`
	insertMeasurementSQL = `INSERT INTO measurement (station, date, prcp, tobs) VALUES ($1, $2, $3, $4)`
)

type Result struct {
	Stations     int
	Measurements int
}

// Load replaces the dataset with the rows read from the two CSV streams.
// Both files need a header row; columns are matched by name. An empty prcp
// cell is stored as NULL. Everything happens in one transaction, so a bad
// row leaves the previous dataset untouched.
func Load(ctx context.Context, db *sql.DB, stations, measurements io.Reader) (Result, error) {
	var res Result

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("seed rollback", "error", err)
		}
	}()

	for _, table := range []string{"measurement", "station"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return res, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	res.Stations, err = loadCSV(ctx, tx, "stations", stations, stationColumns, insertStationSQL, stationArgs)
	if err != nil {
		return Result{}, err
	}
	res.Measurements, err = loadCSV(ctx, tx, "measurements", measurements, measurementColumns, insertMeasurementSQL, measurementArgs)
	if err != nil {
		return Result{}, err
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func loadCSV(ctx context.Context, tx *sql.Tx, what string, r io.Reader, columns []string, insert string, toArgs func([]string) ([]any, error)) (int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("%s: read header: %w", what, err)
	}
	idx, err := columnIndex(header, columns)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("%s: prepare: %w", what, err)
	}
	defer stmt.Close()

	n := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("%s: %w", what, err)
		}
		line, _ := cr.FieldPos(0)

		fields := make([]string, len(idx))
		for i, j := range idx {
			fields[i] = strings.TrimSpace(rec[j])
		}
		args, err := toArgs(fields)
		if err != nil {
			return n, fmt.Errorf("%s line %d: %w", what, line, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return n, fmt.Errorf("%s line %d: insert: %w", what, line, err)
		}
		n++
	}
	return n, nil
}

// columnIndex maps each wanted column to its position in header.
func columnIndex(header, want []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	idx := make([]int, len(want))
	for i, c := range want {
		j, ok := pos[c]
		if !ok {
			return nil, fmt.Errorf("missing column %q in header %v", c, header)
		}
		idx[i] = j
	}
	return idx, nil
}

func stationArgs(f []string) ([]any, error) {
	if f[0] == "" {
		return nil, errors.New("empty station id")
	}
	coords := make([]any, 3)
	for i, name := range []string{"latitude", "longitude", "elevation"} {
		v, err := strconv.ParseFloat(f[i+2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", name, f[i+2])
		}
		coords[i] = v
	}
	return append([]any{f[0], f[1]}, coords...), nil
}

func measurementArgs(f []string) ([]any, error) {
	if f[0] == "" || f[1] == "" {
		return nil, errors.New("station and date are required")
	}
	var prcp any
	if f[2] != "" {
		v, err := strconv.ParseFloat(f[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid prcp %q", f[2])
		}
		prcp = v
	}
	tobs, err := strconv.ParseFloat(f[3], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid tobs %q", f[3])
	}
	return []any{f[0], f[1], prcp, tobs}, nil
}
