// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/internal/platform/database/schema"
	"github.com/taibuivan/addressbook/internal/platform/dberr"
)

var (
	table          = schema.Address.Table
	addressColumns = schema.List(schema.Address.Columns())
)

// # PostgreSQL Repository

// postgresRepository implements the [Repository] interface using pgx.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed address store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

/*
Insert stores a new address, letting the unique constraint arbitrate duplicates.

Description: ON CONFLICT DO NOTHING on the unique key index makes two concurrent inserts of the same key
safe without a prior existence check: exactly one returns a row, the other none.
*/
func (repository *postgresRepository) Insert(context context.Context, owner string, fields Fields) (WriteResult, error) {
	query := `
		INSERT INTO ` + table + ` (ownerid, street, city, postcode, country)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ` + schema.Address.UniqueKeyTarget + ` DO NOTHING
		RETURNING ` + addressColumns

	row := repository.pool.QueryRow(context, query, owner, fields.Street, fields.City, fields.Postcode, fields.Country)

	address, err := scanAddress(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return WriteResult{Outcome: OutcomeDuplicate}, nil
	}
	if err != nil {
		return WriteResult{}, dberr.Wrap(err, "insert_address")
	}

	return WriteResult{Address: address, Outcome: OutcomeWritten}, nil
}

/*
List returns a filtered page of the owner's addresses ordered by id.

Description: COUNT(*) OVER() returns the total alongside the page. When the
page lies past the end no row carries it, so the count is queried separately.
*/
func (repository *postgresRepository) List(context context.Context, owner string, filter Filter, limit, offset int) ([]*Address, int, error) {
	where, args := filterClause(owner, filter)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s
		ORDER BY id ASC
		LIMIT $%d OFFSET $%d`, addressColumns, table, where, len(args)+1, len(args)+2)

	rows, err := repository.pool.Query(context, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_addresses")
	}
	defer rows.Close()

	addresses := make([]*Address, 0, limit)
	total := 0
	for rows.Next() {
		address := &Address{}
		if err := rows.Scan(
			&address.ID, &address.OwnerID, &address.Street, &address.City,
			&address.Postcode, &address.Country, &address.CreatedAt, &address.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_address")
		}
		addresses = append(addresses, address)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_addresses")
	}

	if len(addresses) == 0 && offset > 0 {
		countQuery := "SELECT COUNT(*) FROM " + table + " WHERE " + where
		if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
			return nil, 0, dberr.Wrap(err, "count_addresses")
		}
	}

	return addresses, total, nil
}

// FindByID returns the owner's address with the given id.
func (repository *postgresRepository) FindByID(context context.Context, owner string, id int64) (*Address, error) {
	query := `SELECT ` + addressColumns + ` FROM ` + table + ` WHERE id = $1 AND ownerid = $2`

	address, err := scanAddress(repository.pool.QueryRow(context, query, id, owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Address")
	}
	if err != nil {
		return nil, dberr.Wrap(err, "get_address")
	}

	return address, nil
}

/*
Update replaces the writable fields of the owner's address.

Description: The owner column is never part of the SET list, so an update cannot
move an address to another user. A unique violation means the new key collides
with another of the owner's rows.
*/
func (repository *postgresRepository) Update(context context.Context, owner string, id int64, fields Fields) (WriteResult, error) {
	query := `
		UPDATE ` + table + `
		SET street = $3, city = $4, postcode = $5, country = $6, updatedat = NOW()
		WHERE id = $1 AND ownerid = $2
		RETURNING ` + addressColumns

	row := repository.pool.QueryRow(context, query, id, owner, fields.Street, fields.City, fields.Postcode, fields.Country)

	address, err := scanAddress(row)
	switch {
	case err == nil:
		return WriteResult{Address: address, Outcome: OutcomeWritten}, nil
	case dberr.IsUniqueViolation(err, schema.Address.UniqueKey):
		return WriteResult{Outcome: OutcomeDuplicate}, nil
	case errors.Is(err, pgx.ErrNoRows):
		return WriteResult{}, apperr.NotFound("Address")
	default:
		return WriteResult{}, dberr.Wrap(err, "update_address")
	}
}

// Delete removes the owner's address with the given id.
func (repository *postgresRepository) Delete(context context.Context, owner string, id int64) error {
	tag, err := repository.pool.Exec(context, `DELETE FROM `+table+` WHERE id = $1 AND ownerid = $2`, id, owner)
	if err != nil {
		return dberr.Wrap(err, "delete_address")
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Address")
	}

	return nil
}

/*
DeleteMany removes the selected addresses of owner in one statement.

Description: The owner predicate is part of the statement, so foreign ids in
the selection simply match nothing.
*/
func (repository *postgresRepository) DeleteMany(context context.Context, owner string, selection Selection) ([]int64, error) {
	var (
		query string
		args  []any
	)

	switch {
	case selection.All:
		query = `DELETE FROM ` + table + ` WHERE ownerid = $1 RETURNING id`
		args = []any{owner}
	case len(selection.IDs) > 0:
		query = `DELETE FROM ` + table + ` WHERE ownerid = $1 AND id = ANY($2) RETURNING id`
		args = []any{owner, selection.IDs}
	default:
		return []int64{}, nil
	}

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "delete_addresses")
	}

	deleted, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, dberr.Wrap(err, "delete_addresses")
	}

	return deleted, nil
}

// # Helpers

// filterClause builds the WHERE clause for a listing. $1 is always the owner.
func filterClause(owner string, filter Filter) (string, []any) {
	conditions := []string{schema.Address.OwnerID + " = $1"}
	args := []any{owner}

	for _, criterion := range []struct {
		column string
		value  string
	}{
		{schema.Address.Street, filter.Street},
		{schema.Address.City, filter.City},
		{schema.Address.Postcode, filter.Postcode},
		{schema.Address.Country, filter.Country},
	} {
		if criterion.value == "" {
			continue
		}
		args = append(args, criterion.value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", criterion.column, len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

// scanAddress reads one row selected with addressColumns.
func scanAddress(row pgx.Row) (*Address, error) {
	address := &Address{}
	err := row.Scan(
		&address.ID, &address.OwnerID, &address.Street, &address.City,
		&address.Postcode, &address.Country, &address.CreatedAt, &address.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return address, nil
}
