// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/skawahara/tochinavi/spatial"
	"github.com/uber/h3-go/v4"
)

// Repository persists a listings dataset in DuckDB so large imports survive
// between sessions and searches can prefilter by H3 cell instead of scanning
// every row.
type Repository interface {
	// CreateSchema creates the listings table
	CreateSchema() error

	// BulkInsert inserts a slice of listings into the database
	BulkInsert(listings []*Listing) error

	// All returns every stored listing
	All() ([]*Listing, error)

	// Candidates returns the listings whose res-6 H3 cell is in cells
	Candidates(cells []int64) ([]*Listing, error)

	// Count returns the total number of stored listings
	Count() (int, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlListingRepository struct {
	db *sql.DB
}

// NewRepository creates a DuckDB-backed listing repository.
func NewRepository(db *sql.DB) Repository {
	return &sqlListingRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlListingRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlListingRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS listings_seq START 1;

		CREATE TABLE IF NOT EXISTS listings (
			id INTEGER PRIMARY KEY DEFAULT nextval('listings_seq'),
			address VARCHAR NOT NULL,
			point POINT_2D NOT NULL,
			price DOUBLE,
			area_tsubo DOUBLE,
			area_sqm DOUBLE,
			unit_price DOUBLE,
			zoning VARCHAR,
			transaction_type VARCHAR,
			registrant VARCHAR,
			phone VARCHAR,
			listing_date VARCHAR,
			h3_res6 UBIGINT,
			h3_res8 UBIGINT
		);
	`)

	return err
}

func (r *sqlListingRepository) BulkInsert(listings []*Listing) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO listings(
			address,
			point,
			price,
			area_tsubo,
			area_sqm,
			unit_price,
			zoning,
			transaction_type,
			registrant,
			phone,
			listing_date,
			h3_res6,
			h3_res8
		)
		VALUES (?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	for _, l := range listings {
		if err = l.computeH3(); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}

		_, err := stmt.Exec(
			l.Address,
			l.Point.Lng,
			l.Point.Lat,
			l.Price,
			l.AreaTsubo,
			l.AreaSqm,
			l.UnitPrice,
			nullable(l.Zoning),
			nullable(l.TransactionType),
			nullable(l.Registrant),
			nullable(l.Phone),
			nullable(l.ListingDate),
			l.H3Res6,
			l.H3Res8,
		)
		if err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}
	}

	return tx.Commit()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

const listingColumns = `
	id, address, point, price, area_tsubo, area_sqm, unit_price,
	zoning, transaction_type, registrant, phone, listing_date,
	h3_res6, h3_res8
`

func (r *sqlListingRepository) All() ([]*Listing, error) {
	return r.list(`SELECT `+listingColumns+` FROM listings ORDER BY id`, nil)
}

func (r *sqlListingRepository) Candidates(cells []int64) ([]*Listing, error) {
	if len(cells) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cells)), ",")
	args := make([]any, len(cells))

	for i, cell := range cells {
		args[i] = cell
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM listings
		WHERE h3_res6 IN (%s)
		ORDER BY id
	`, listingColumns, placeholders)

	return r.list(query, args)
}

func (r *sqlListingRepository) Count() (int, error) {
	var count int

	err := r.db.QueryRow(`SELECT COUNT(*) FROM listings`).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *sqlListingRepository) list(query string, args []any) ([]*Listing, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*Listing

	for rows.Next() {
		l := &Listing{}

		var zoning, transactionType, registrant, phone, listingDate sql.NullString

		var h3Res6, h3Res8 sql.NullInt64

		err := rows.Scan(
			&l.ID, &l.Address, &l.Point,
			&l.Price, &l.AreaTsubo, &l.AreaSqm, &l.UnitPrice,
			&zoning, &transactionType, &registrant, &phone, &listingDate,
			&h3Res6, &h3Res8,
		)
		if err != nil {
			return nil, err
		}

		if zoning.Valid {
			l.Zoning = zoning.String
		}

		if transactionType.Valid {
			l.TransactionType = transactionType.String
		}

		if registrant.Valid {
			l.Registrant = registrant.String
		}

		if phone.Valid {
			l.Phone = phone.String
		}

		if listingDate.Valid {
			l.ListingDate = listingDate.String
		}

		if h3Res6.Valid {
			l.H3Res6 = h3Res6.Int64
		}

		if h3Res8.Valid {
			l.H3Res8 = h3Res8.Int64
		}

		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// res6EdgeKm approximates the res-6 hexagon edge length. Good enough for a
// coarse covering; the exact haversine predicate runs afterwards.
const res6EdgeKm = 3.23

// CoveringCells returns the res-6 H3 cells whose union covers a circle of
// radiusKm around center, for use as a Candidates prefilter.
func CoveringCells(center spatial.Point, radiusKm float64) ([]int64, error) {
	latLng := h3.NewLatLng(center.Lat, center.Lng)

	origin, err := h3.LatLngToCell(latLng, 6)
	if err != nil {
		return nil, fmt.Errorf("converting center to h3 cell: %w", err)
	}

	k := int(math.Ceil(radiusKm/res6EdgeKm)) + 1

	cells, err := h3.GridDisk(origin, k)
	if err != nil {
		return nil, fmt.Errorf("computing h3 covering: %w", err)
	}

	result := make([]int64, len(cells))
	for i, cell := range cells {
		result[i] = int64(cell)
	}

	return result, nil
}
