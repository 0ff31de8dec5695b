package repository

import (
	"context"
	"errors"
	"fmt"

	"danawa/crawler/internal/domain"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// ErrBatchRolledBack marks a category batch that was not persisted at all.
var ErrBatchRolledBack = errors.New("batch rolled back")

const (
	// The category of an existing row is left alone, a product keeps the
	// bucket it was first filed under.
	upsertEquipmentQuery = `
	INSERT INTO equipments (equip_cate_no, equip_nm, equip_price, equip_link)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (equip_nm)
	DO UPDATE SET equip_price = EXCLUDED.equip_price, equip_link = EXCLUDED.equip_link`

	selectCategoriesQuery = `SELECT equip_cate_no, equip_cate_nm FROM equipments_cate ORDER BY equip_cate_no`
)

// DB is the part of *pgxpool.Pool the repository needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type EquipmentRepository interface {
	// UpsertBatch writes records of one category in a single transaction.
	// Either every row is written or none is.
	UpsertBatch(ctx context.Context, categoryID int, records []domain.Record) (int64, error)
	CategoryNames(ctx context.Context) (map[int]string, error)
}

type equipmentRepository struct {
	db DB
}

func NewEquipmentRepository(db DB) EquipmentRepository {
	return &equipmentRepository{
		db: db,
	}
}

func (r *equipmentRepository) UpsertBatch(ctx context.Context, categoryID int, records []domain.Record) (rows int64, err error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("❌ Failed to roll back category %d batch: %v", categoryID, rbErr)
		}
	}()

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(upsertEquipmentQuery, categoryID, rec.Name, rec.Price, rec.Link)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range records {
		tag, execErr := br.Exec()
		if execErr != nil {
			_ = br.Close()
			return 0, fmt.Errorf("%w: record %q: %w", ErrBatchRolledBack, records[i].Name, execErr)
		}
		rows += tag.RowsAffected()
	}
	if err = br.Close(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBatchRolledBack, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", ErrBatchRolledBack, err)
	}

	return rows, nil
}

func (r *equipmentRepository) CategoryNames(ctx context.Context) (map[int]string, error) {
	rows, err := r.db.Query(ctx, selectCategoriesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}

	type categoryRow struct {
		id   int
		name string
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (categoryRow, error) {
		var c categoryRow
		err := row.Scan(&c.id, &c.name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}

	names := make(map[int]string, len(list))
	for _, c := range list {
		names[c.id] = c.name
	}
	return names, nil
}
