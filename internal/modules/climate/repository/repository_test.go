package repository

import (
	"context"
	"database/sql"
	"testing"

	"climate-server/internal/migrate"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Each :memory: connection is its own database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Fatalf("close db: %v", closeErr)
		}
	})
	if _, err := migrate.Run(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustExec(t *testing.T, db *sql.DB, query string) {
	t.Helper()
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// seedExample loads the three-row scenario: S1 on 08-20, a null-prcp S1 row
// and an S2 row both on 08-22.
func seedExample(t *testing.T, db *sql.DB) {
	t.Helper()
	mustExec(t, db, `INSERT INTO station (station, name, latitude, longitude, elevation) VALUES
		('S1', 'Station One', 21.1, -157.1, 3.0),
		('S2', 'Station Two', 21.2, -157.2, 14.6)`)
	mustExec(t, db, `INSERT INTO measurement (station, date, prcp, tobs) VALUES
		('S1', '2017-08-20', 0.1, 70),
		('S1', '2017-08-22', NULL, 75),
		('S2', '2017-08-22', 0.3, 68)`)
}

func TestNewRepository(t *testing.T) {
	if NewRepository(setupTestDB(t)) == nil {
		t.Fatal("NewRepository returned nil")
	}
}

func TestGetPrecipitationSince_DropsNulls(t *testing.T) {
	db := setupTestDB(t)
	seedExample(t, db)
	repo := NewRepository(db)

	got, err := repo.GetPrecipitationSince(context.Background(), "2016-08-23")
	if err != nil {
		t.Fatalf("GetPrecipitationSince: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetPrecipitationSince: got %d rows %v, want 2", len(got), got)
	}
	for _, v := range got {
		if v.Date == "2017-08-22" && v.Value != 0.3 {
			t.Errorf("2017-08-22 prcp = %v, want 0.3", v.Value)
		}
	}
}

func TestGetPrecipitationSince_LowerBoundInclusive(t *testing.T) {
	db := setupTestDB(t)
	mustExec(t, db, `INSERT INTO station (station, name, latitude, longitude, elevation) VALUES ('S1', 'One', 0, 0, 0)`)
	mustExec(t, db, `INSERT INTO measurement (station, date, prcp, tobs) VALUES
		('S1', '2016-08-22', 1.0, 70),
		('S1', '2016-08-23', 2.0, 71),
		('S1', '2016-08-24', 3.0, 72)`)
	repo := NewRepository(db)

	got, err := repo.GetPrecipitationSince(context.Background(), "2016-08-23")
	if err != nil {
		t.Fatalf("GetPrecipitationSince: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows %v, want 2", len(got), got)
	}
	for _, v := range got {
		if v.Date < "2016-08-23" {
			t.Errorf("row %v is before the lower bound", v)
		}
	}
}

func TestGetStations(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		stations, err := NewRepository(setupTestDB(t)).GetStations(context.Background())
		if err != nil {
			t.Fatalf("GetStations: %v", err)
		}
		if len(stations) != 0 {
			t.Fatalf("GetStations: got %d stations, want 0", len(stations))
		}
	})

	t.Run("with data", func(t *testing.T) {
		db := setupTestDB(t)
		seedExample(t, db)

		stations, err := NewRepository(db).GetStations(context.Background())
		if err != nil {
			t.Fatalf("GetStations: %v", err)
		}
		if len(stations) != 2 {
			t.Fatalf("GetStations: got %d stations, want 2", len(stations))
		}
		byID := map[string]bool{}
		for _, s := range stations {
			byID[s.ID] = true
			if s.ID == "S2" && (s.Name != "Station Two" || s.Elevation != 14.6 || s.Latitude != 21.2 || s.Longitude != -157.2) {
				t.Errorf("S2 = %+v", s)
			}
		}
		if !byID["S1"] || !byID["S2"] {
			t.Errorf("stations = %+v, want S1 and S2", stations)
		}
	})
}

func TestGetMostActiveStationTobs(t *testing.T) {
	t.Run("no measurements", func(t *testing.T) {
		station, rows, err := NewRepository(setupTestDB(t)).GetMostActiveStationTobs(context.Background(), "2016-08-23")
		if err != nil {
			t.Fatalf("GetMostActiveStationTobs: %v", err)
		}
		if station != "" || len(rows) != 0 {
			t.Fatalf("got station=%q rows=%v, want empty", station, rows)
		}
	})

	t.Run("picks highest count and filters dates", func(t *testing.T) {
		db := setupTestDB(t)
		mustExec(t, db, `INSERT INTO station (station, name, latitude, longitude, elevation) VALUES
			('A', 'A', 0, 0, 0), ('B', 'B', 0, 0, 0)`)
		mustExec(t, db, `INSERT INTO measurement (station, date, prcp, tobs) VALUES
			('A', '2017-01-01', 0, 60),
			('B', '2015-01-01', 0, 61),
			('B', '2016-08-22', 0, 62),
			('B', '2016-08-23', 0, 63),
			('B', '2017-08-23', 0, 64)`)

		station, rows, err := NewRepository(db).GetMostActiveStationTobs(context.Background(), "2016-08-23")
		if err != nil {
			t.Fatalf("GetMostActiveStationTobs: %v", err)
		}
		if station != "B" {
			t.Fatalf("station = %q, want B", station)
		}
		if len(rows) != 2 {
			t.Fatalf("rows = %v, want 2 rows on/after 2016-08-23", rows)
		}
		for _, r := range rows {
			if r.Date < "2016-08-23" {
				t.Errorf("row %v before lower bound", r)
			}
		}
	})

	t.Run("ties go to lowest station id", func(t *testing.T) {
		db := setupTestDB(t)
		mustExec(t, db, `INSERT INTO station (station, name, latitude, longitude, elevation) VALUES
			('Z', 'Z', 0, 0, 0), ('M', 'M', 0, 0, 0)`)
		mustExec(t, db, `INSERT INTO measurement (station, date, prcp, tobs) VALUES
			('Z', '2017-01-01', 0, 70), ('Z', '2017-01-02', 0, 71),
			('M', '2017-01-01', 0, 72), ('M', '2017-01-02', 0, 73)`)

		station, _, err := NewRepository(db).GetMostActiveStationTobs(context.Background(), "2016-08-23")
		if err != nil {
			t.Fatalf("GetMostActiveStationTobs: %v", err)
		}
		if station != "M" {
			t.Fatalf("station = %q, want M", station)
		}
	})
}

func TestGetTemperatureSummary(t *testing.T) {
	db := setupTestDB(t)
	seedExample(t, db)
	repo := NewRepository(db)
	ctx := context.Background()
	end := "2017-08-22"

	t.Run("closed range", func(t *testing.T) {
		s, err := repo.GetTemperatureSummary(ctx, "2017-08-20", &end)
		if err != nil {
			t.Fatalf("GetTemperatureSummary: %v", err)
		}
		if s.FromDate == nil || *s.FromDate != "2017-08-20" || s.ToDate == nil || *s.ToDate != "2017-08-22" {
			t.Errorf("dates = %v..%v", s.FromDate, s.ToDate)
		}
		if s.MinTemp == nil || *s.MinTemp != 68 || s.MaxTemp == nil || *s.MaxTemp != 75 {
			t.Errorf("min/max = %v/%v, want 68/75", s.MinTemp, s.MaxTemp)
		}
		if s.AvgTemp == nil || *s.AvgTemp != 71 {
			t.Errorf("avg = %v, want 71", s.AvgTemp)
		}
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		only := "2017-08-20"
		s, err := repo.GetTemperatureSummary(ctx, "2017-08-20", &only)
		if err != nil {
			t.Fatalf("GetTemperatureSummary: %v", err)
		}
		if s.MinTemp == nil || *s.MinTemp != 70 || *s.MaxTemp != 70 {
			t.Errorf("single-day summary = %+v, want 70/70", s)
		}
	})

	t.Run("open ended", func(t *testing.T) {
		s, err := repo.GetTemperatureSummary(ctx, "2017-08-21", nil)
		if err != nil {
			t.Fatalf("GetTemperatureSummary: %v", err)
		}
		if s.MinTemp == nil || *s.MinTemp != 68 || *s.MaxTemp != 75 {
			t.Errorf("summary = %+v, want min 68 max 75", s)
		}
		if *s.FromDate != "2017-08-22" {
			t.Errorf("from date = %q, want 2017-08-22", *s.FromDate)
		}
	})

	t.Run("empty range yields nulls", func(t *testing.T) {
		for _, tc := range []struct {
			start string
			end   *string
		}{
			{start: "2018-01-01"},
			{start: "2017-08-22", end: func() *string { s := "2017-08-20"; return &s }()},
			{start: "not-a-date"},
		} {
			s, err := repo.GetTemperatureSummary(ctx, tc.start, tc.end)
			if err != nil {
				t.Fatalf("GetTemperatureSummary(%q): %v", tc.start, err)
			}
			if s.FromDate != nil || s.ToDate != nil || s.MinTemp != nil || s.AvgTemp != nil || s.MaxTemp != nil {
				t.Errorf("GetTemperatureSummary(%q) = %+v, want all nil", tc.start, s)
			}
		}
	})
}

// Ensure repo implements the interface.
var _ ClimateRepository = (*repositoryImpl)(nil)
