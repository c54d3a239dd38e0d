package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/go-arrower/todo/item"
	"github.com/go-arrower/todo/postgres"
)

var ErrMissingConnection = errors.New("missing database connection")

const foreignKeyViolation = "23503"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar) //nolint:gochecknoglobals,lll // squirrel recommends this

// NewPostgresRepositories returns the PostgreSQL implementations of
// item.Repository and item.LabelRepository.
// The schema is expected to be migrated, see postgres.ConnectAndMigrate.
//
// If the context of a call carries a transaction, see postgres.WithTX,
// the repositories take part in it.
func NewPostgresRepositories(pgx *pgxpool.Pool) (*PostgresItemRepository, *PostgresLabelRepository, error) {
	if pgx == nil {
		return nil, nil, ErrMissingConnection
	}

	return &PostgresItemRepository{pgx: pgx}, &PostgresLabelRepository{pgx: pgx}, nil
}

var _ item.Repository = (*PostgresItemRepository)(nil)

type PostgresItemRepository struct {
	pgx *pgxpool.Pool
}

func selectItems() squirrel.SelectBuilder {
	return psql.
		Select("items.id", "items.text", "items.completed", "labels.id AS label_id", "labels.name AS label_name").
		From("items").
		LeftJoin("item_labels ON item_labels.item_id = items.id").
		LeftJoin("labels ON labels.id = item_labels.label_id")
}

func (repo *PostgresItemRepository) Create(ctx context.Context, payload item.CreateItem) (item.Item, error) {
	var created item.Item

	err := postgres.InTX(ctx, repo.pgx, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := psql.Insert("items").Columns("text").Values(payload.Text).Suffix("RETURNING id").ToSql()
		if err != nil {
			return storageError(err)
		}

		var id item.ID
		if err = tx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
			return storageError(err)
		}

		if err = insertLabels(ctx, tx, id, payload.LabelIDs); err != nil {
			return err
		}

		created, err = findItem(ctx, tx, id)

		return err
	})
	if err != nil {
		return item.Item{}, storageError(err)
	}

	return created, nil
}

func (repo *PostgresItemRepository) Find(ctx context.Context, id item.ID) (item.Item, error) {
	return findItem(ctx, postgres.ConnOrTX(ctx, repo.pgx), id)
}

// All returns all items ordered by descending id.
func (repo *PostgresItemRepository) All(ctx context.Context) ([]item.Item, error) {
	sql, args, err := selectItems().OrderBy("items.id DESC", "labels.id ASC").ToSql()
	if err != nil {
		return nil, storageError(err)
	}

	var rows []joinedRow
	if err = pgxscan.Select(ctx, postgres.ConnOrTX(ctx, repo.pgx), &rows, sql, args...); err != nil {
		return nil, storageError(err)
	}

	return foldRows(rows), nil
}

func (repo *PostgresItemRepository) Update(ctx context.Context, id item.ID, payload item.UpdateItem) (item.Item, error) {
	var updated item.Item

	err := postgres.InTX(ctx, repo.pgx, func(ctx context.Context, tx pgx.Tx) error {
		query := psql.Update("items").Where(squirrel.Eq{"id": id})

		if payload.Text != nil {
			query = query.Set("text", *payload.Text)
		}

		if payload.Completed != nil {
			query = query.Set("completed", *payload.Completed)
		}

		if payload.Text == nil && payload.Completed == nil {
			// locks the row and reports if the item exists
			query = query.Set("text", squirrel.Expr("text"))
		}

		sql, args, err := query.ToSql()
		if err != nil {
			return storageError(err)
		}

		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return storageError(err)
		}

		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: item %d", item.ErrNotFound, id)
		}

		if payload.LabelIDs != nil {
			if err = deleteAssociations(ctx, tx, squirrel.Eq{"item_id": id}); err != nil {
				return err
			}

			if err = insertLabels(ctx, tx, id, *payload.LabelIDs); err != nil {
				return err
			}
		}

		updated, err = findItem(ctx, tx, id)

		return err
	})
	if err != nil {
		return item.Item{}, storageError(err)
	}

	return updated, nil
}

func (repo *PostgresItemRepository) Delete(ctx context.Context, id item.ID) error {
	err := postgres.InTX(ctx, repo.pgx, func(ctx context.Context, tx pgx.Tx) error {
		if err := deleteAssociations(ctx, tx, squirrel.Eq{"item_id": id}); err != nil {
			return err
		}

		return deleteRow(ctx, tx, psql.Delete("items").Where(squirrel.Eq{"id": id}), "item", int64(id))
	})
	if err != nil {
		return storageError(err)
	}

	return nil
}

func findItem(ctx context.Context, db postgres.DB, id item.ID) (item.Item, error) {
	sql, args, err := selectItems().Where(squirrel.Eq{"items.id": id}).OrderBy("labels.id ASC").ToSql()
	if err != nil {
		return item.Item{}, storageError(err)
	}

	var rows []joinedRow
	if err = pgxscan.Select(ctx, db, &rows, sql, args...); err != nil {
		return item.Item{}, storageError(err)
	}

	items := foldRows(rows)
	if len(items) == 0 {
		return item.Item{}, fmt.Errorf("%w: item %d", item.ErrNotFound, id)
	}

	return items[0], nil
}

func insertLabels(ctx context.Context, tx pgx.Tx, id item.ID, labelIDs []item.LabelID) error {
	labelIDs = item.UniqueLabelIDs(labelIDs)
	if len(labelIDs) == 0 {
		return nil
	}

	query := psql.Insert("item_labels").Columns("item_id", "label_id")
	for _, labelID := range labelIDs {
		query = query.Values(id, labelID)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return storageError(err)
	}

	if _, err = tx.Exec(ctx, sql, args...); err != nil {
		return storageError(err)
	}

	return nil
}

func deleteAssociations(ctx context.Context, tx pgx.Tx, where squirrel.Eq) error {
	sql, args, err := psql.Delete("item_labels").Where(where).ToSql()
	if err != nil {
		return storageError(err)
	}

	if _, err = tx.Exec(ctx, sql, args...); err != nil {
		return storageError(err)
	}

	return nil
}

func deleteRow(ctx context.Context, tx pgx.Tx, query squirrel.DeleteBuilder, entity string, id int64) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return storageError(err)
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return storageError(err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %d", item.ErrNotFound, entity, id)
	}

	return nil
}

var _ item.LabelRepository = (*PostgresLabelRepository)(nil)

type PostgresLabelRepository struct {
	pgx *pgxpool.Pool
}

func (repo *PostgresLabelRepository) Create(ctx context.Context, payload item.CreateLabel) (item.Label, error) {
	sql, args, err := psql.Insert("labels").Columns("name").Values(payload.Name).Suffix("RETURNING id, name").ToSql()
	if err != nil {
		return item.Label{}, storageError(err)
	}

	var label item.Label
	if err = pgxscan.Get(ctx, postgres.ConnOrTX(ctx, repo.pgx), &label, sql, args...); err != nil {
		return item.Label{}, storageError(err)
	}

	return label, nil
}

// All returns all labels ordered by ascending id.
func (repo *PostgresLabelRepository) All(ctx context.Context) ([]item.Label, error) {
	sql, args, err := psql.Select("id", "name").From("labels").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, storageError(err)
	}

	labels := []item.Label{}
	if err = pgxscan.Select(ctx, postgres.ConnOrTX(ctx, repo.pgx), &labels, sql, args...); err != nil {
		return nil, storageError(err)
	}

	return labels, nil
}

// Delete removes the label and its association to all items.
func (repo *PostgresLabelRepository) Delete(ctx context.Context, id item.LabelID) error {
	err := postgres.InTX(ctx, repo.pgx, func(ctx context.Context, tx pgx.Tx) error {
		if err := deleteAssociations(ctx, tx, squirrel.Eq{"label_id": id}); err != nil {
			return err
		}

		return deleteRow(ctx, tx, psql.Delete("labels").Where(squirrel.Eq{"id": id}), "label", int64(id))
	})
	if err != nil {
		return storageError(err)
	}

	return nil
}

// storageError maps err to the errors of the item package.
// Errors of the database driver are never wrapped, only their message is kept.
func storageError(err error) error {
	if errors.Is(err, item.ErrNotFound) || errors.Is(err, item.ErrInvalidLabel) || errors.Is(err, item.ErrUnexpected) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("%w: %s", item.ErrInvalidLabel, pgErr.Detail)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", item.ErrNotFound, err) //nolint:errorlint // prevent err in api
	}

	return fmt.Errorf("%w: %v", item.ErrUnexpected, err) //nolint:errorlint // prevent err in api
}
