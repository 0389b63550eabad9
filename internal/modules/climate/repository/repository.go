package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"climate-server/internal/modules/climate/types"
)

//go:embed sql/get-precipitation-since.sql
var getPrecipitationSinceSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-most-active-station.sql
var getMostActiveStationSQL string

//go:embed sql/get-station-tobs-since.sql
var getStationTobsSinceSQL string

//go:embed sql/get-temperature-summary.sql
var getTemperatureSummarySQL string

//go:embed sql/get-temperature-summary-between.sql
var getTemperatureSummaryBetweenSQL string

// ClimateRepository is the read-only data access layer over the station and
// measurement tables. Every call runs on its own session (a dedicated pooled
// connection) that is released before the call returns.
type ClimateRepository interface {
	// GetPrecipitationSince returns non-null (date, prcp) rows with date >= since,
	// in store order.
	GetPrecipitationSince(ctx context.Context, since string) ([]types.DailyValue, error)
	GetStations(ctx context.Context) ([]types.Station, error)
	// GetMostActiveStationTobs finds the station with the most measurements
	// (ties go to the lowest station id) and returns its (date, tobs) rows with
	// date >= since. The station id is empty when there are no measurements.
	GetMostActiveStationTobs(ctx context.Context, since string) (string, []types.DailyValue, error)
	// GetTemperatureSummary aggregates tobs and date over date >= start, and
	// date <= end when end is non-nil.
	GetTemperatureSummary(ctx context.Context, start string, end *string) (types.TemperatureSummary, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ClimateRepository {
	return &repositoryImpl{db: db}
}

// withSession acquires a connection for the duration of fn and always
// returns it to the pool.
func (r *repositoryImpl) withSession(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire session: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Error("release session", "error", err)
		}
	}()
	return fn(conn)
}

func (r *repositoryImpl) GetPrecipitationSince(ctx context.Context, since string) ([]types.DailyValue, error) {
	var out []types.DailyValue
	err := r.withSession(ctx, func(conn *sql.Conn) error {
		var err error
		out, err = queryDailyValues(ctx, conn, "precipitation", getPrecipitationSinceSQL, since)
		return err
	})
	return out, err
}

func (r *repositoryImpl) GetStations(ctx context.Context) ([]types.Station, error) {
	var out []types.Station
	err := r.withSession(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, getStationsSQL)
		if err != nil {
			return fmt.Errorf("query stations: %w", err)
		}
		defer func() {
			if err := rows.Close(); err != nil {
				slog.Error("close stations rows", "error", err)
			}
		}()
		for rows.Next() {
			var s types.Station
			if err := rows.Scan(&s.ID, &s.Name, &s.Latitude, &s.Longitude, &s.Elevation); err != nil {
				return fmt.Errorf("scan station: %w", err)
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

func (r *repositoryImpl) GetMostActiveStationTobs(ctx context.Context, since string) (string, []types.DailyValue, error) {
	var (
		station string
		out     []types.DailyValue
	)
	err := r.withSession(ctx, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, getMostActiveStationSQL).Scan(&station)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("query most active station: %w", err)
		}
		out, err = queryDailyValues(ctx, conn, "tobs", getStationTobsSinceSQL, station, since)
		return err
	})
	return station, out, err
}

func (r *repositoryImpl) GetTemperatureSummary(ctx context.Context, start string, end *string) (types.TemperatureSummary, error) {
	query, args := getTemperatureSummarySQL, []any{start}
	if end != nil {
		query, args = getTemperatureSummaryBetweenSQL, []any{start, *end}
	}

	var summary types.TemperatureSummary
	err := r.withSession(ctx, func(conn *sql.Conn) error {
		var (
			minTemp, avgTemp, maxTemp sql.NullFloat64
			fromDate, toDate          sql.NullString
		)
		err := conn.QueryRowContext(ctx, query, args...).Scan(&minTemp, &avgTemp, &maxTemp, &fromDate, &toDate)
		if err != nil {
			return fmt.Errorf("query temperature summary: %w", err)
		}
		summary = types.TemperatureSummary{
			FromDate: nullString(fromDate),
			ToDate:   nullString(toDate),
			MinTemp:  nullFloat(minTemp),
			AvgTemp:  nullFloat(avgTemp),
			MaxTemp:  nullFloat(maxTemp),
		}
		return nil
	})
	return summary, err
}

func queryDailyValues(ctx context.Context, conn *sql.Conn, what string, query string, args ...any) ([]types.DailyValue, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close "+what+" rows", "error", err)
		}
	}()
	var out []types.DailyValue
	for rows.Next() {
		var v types.DailyValue
		if err := rows.Scan(&v.Date, &v.Value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
