package postgres

import (
	"context"
	"time"

	"chemoventry/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS qr_labels (
	store_name    TEXT        NOT NULL,
	id            TEXT        NOT NULL,
	chemical_id   TEXT        NOT NULL,
	chemical_name TEXT        NOT NULL DEFAULT '',
	date_created  TIMESTAMPTZ NOT NULL,
	created_by    TEXT        NOT NULL DEFAULT '',
	PRIMARY KEY (store_name, id)
)`

// LabelStore keeps the QR label list in PostgreSQL, one row per label.
type LabelStore struct {
	pool *pgxpool.Pool
	name string
}

func NewLabelStore(pool *pgxpool.Pool, name string) *LabelStore {
	return &LabelStore{pool: pool, name: name}
}

func (s *LabelStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

func (s *LabelStore) Load(ctx context.Context) ([]models.QRCode, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, chemical_id, chemical_name, date_created, created_by
		FROM qr_labels
		WHERE store_name = $1
		ORDER BY date_created ASC, id ASC
	`, s.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []models.QRCode
	for rows.Next() {
		var code models.QRCode
		var created time.Time
		if err := rows.Scan(&code.ID, &code.ChemicalID, &code.ChemicalName, &created, &code.CreatedBy); err != nil {
			return nil, err
		}
		code.DateCreated = created.UTC()
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

// Save replaces the stored list in one transaction.
func (s *LabelStore) Save(ctx context.Context, codes []models.QRCode) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM qr_labels WHERE store_name = $1`, s.name); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, code := range codes {
		batch.Queue(`
			INSERT INTO qr_labels (store_name, id, chemical_id, chemical_name, date_created, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, s.name, code.ID, code.ChemicalID, code.ChemicalName, code.DateCreated, code.CreatedBy)
	}
	if batch.Len() > 0 {
		if err = tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
