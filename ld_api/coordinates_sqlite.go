package ld_api

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
)

const coordinateSchema = `
CREATE TABLE IF NOT EXISTS snp (
	rsid TEXT PRIMARY KEY,
	chromosome TEXT NOT NULL,
	grch37_position INTEGER,
	grch38_position INTEGER
);`

// SQLiteResolver resolves rsids against a local dbSNP extract
type SQLiteResolver struct {
	DB *sqlx.DB
}

// snpRow conforms to the rows of the "snp" table and can be parsed with sqlx
type snpRow struct {
	Rsid       string        `db:"rsid"`
	Chromosome string        `db:"chromosome"`
	GRCh37     sql.NullInt64 `db:"grch37_position"`
	GRCh38     sql.NullInt64 `db:"grch38_position"`
}

// OpenCoordinateDb opens (and creates if needed) a coordinate database
func OpenCoordinateDb(path string) (*SQLiteResolver, error) {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect(whichSQLiteDriver, path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	if sqlitePragmas != "" {
		if _, err := db.Exec(sqlitePragmas); err != nil {
			db.Close()
			return nil, fmt.Errorf("unable to set pragmas: %w", err)
		}
	}

	if _, err := db.Exec(coordinateSchema); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}

	return &SQLiteResolver{DB: db}, nil
}

func (r *SQLiteResolver) Close() error {
	return r.DB.Close()
}

// WhichSQLiteDriver returns the name of the compiled in SQLite driver
func WhichSQLiteDriver() string {
	return whichSQLiteDriver
}

func (r *SQLiteResolver) Resolve(ctx context.Context, raw []string) ([]VariantQuery, error) {
	ids := NormalizeIds(raw)
	if len(ids) == 0 {
		return []VariantQuery{}, nil
	}

	rsids := make([]string, len(ids))
	for i, id := range ids {
		rsids[i] = "rs" + id
	}

	query, args, err := sqlx.In("SELECT rsid, chromosome, grch37_position, grch38_position FROM snp WHERE rsid IN (?)", rsids)
	if err != nil {
		return nil, &LookupError{Reason: "cannot build query", Err: err}
	}

	rows := []snpRow{}
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return nil, &LookupError{Reason: "query failed", Err: err}
	}

	byRsid := make(map[string]snpRow, len(rows))
	for _, row := range rows {
		byRsid[row.Rsid] = row
	}

	queries := make([]VariantQuery, 0, len(rsids))
	for _, rsid := range rsids {
		row, ok := byRsid[rsid]
		if !ok {
			return nil, &LookupError{Id: rsid, Reason: "not found in coordinate database"}
		}
		if !row.GRCh37.Valid && !row.GRCh38.Valid {
			return nil, &LookupError{Id: rsid, Reason: "no position on any assembly"}
		}

		// A NULL position leaves the assembly out, the variant is then not found on that build
		positions := map[string]int64{}
		if row.GRCh37.Valid {
			positions[AssemblyGRCh37] = row.GRCh37.Int64
		}
		if row.GRCh38.Valid {
			positions[AssemblyGRCh38] = row.GRCh38.Int64
		}
		queries = append(queries, VariantQuery{
			Id:                 rsid,
			Chromosome:         row.Chromosome,
			PositionByAssembly: positions,
		})
	}

	return queries, nil
}

// ImportCoordinates loads tab separated lines (rsid, chromosome, grch37
// position, grch38 position) into the database. Lines starting with '#' are
// skipped. It returns the number of imported rows.
func (r *SQLiteResolver) ImportCoordinates(ctx context.Context, input io.Reader) (int, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, pfx.Err(err)
	}
	defer tx.Rollback()

	statement, err := tx.PreparexContext(ctx, tx.Rebind("INSERT OR REPLACE INTO snp (rsid, chromosome, grch37_position, grch38_position) VALUES (?, ?, ?, ?)"))
	if err != nil {
		return 0, pfx.Err(err)
	}
	defer statement.Close()

	count := 0
	lineNumber := 0
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			return 0, fmt.Errorf("line %d: expected 4 columns, got %d", lineNumber, len(fields))
		}
		grch37, err := parseOptionalPosition(fields[2])
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		grch38, err := parseOptionalPosition(fields[3])
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", lineNumber, err)
		}

		rsid := fields[0]
		if !strings.HasPrefix(rsid, "rs") {
			rsid = "rs" + rsid
		}
		if _, err := statement.ExecContext(ctx, rsid, normalizeChromosome(fields[1]), grch37, grch38); err != nil {
			return 0, pfx.Err(err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, pfx.Err(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, pfx.Err(err)
	}
	return count, nil
}

// parseOptionalPosition reads a position, "." or an empty value is NULL
func parseOptionalPosition(value string) (sql.NullInt64, error) {
	if value == "" || value == "." {
		return sql.NullInt64{}, nil
	}
	position, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("invalid position '%s'", value)
	}
	return sql.NullInt64{Int64: position, Valid: true}, nil
}
