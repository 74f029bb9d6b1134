package message

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"message-service/internal/metrics"

	"github.com/uptrace/bun"
)

const tableName = "messages"

type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetAll(ctx context.Context) ([]Message, error)
	GetByID(ctx context.Context, id int64) (*Message, error)
	Update(ctx context.Context, message *Message, columns ...string) error
	Delete(ctx context.Context, id int64) error
	// RunInTx calls fn with a Repository bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

type repository struct {
	db      bun.IDB
	metrics *metrics.Metrics
}

func NewRepository(db bun.IDB, m *metrics.Metrics) Repository {
	if m == nil {
		m = metrics.NewMock()
	}
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &repository{db: tx, metrics: r.metrics})
	})
}

func (r *repository) Create(ctx context.Context, message *Message) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(message).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", tableName, time.Since(start), err)

	return err
}

func (r *repository) GetAll(ctx context.Context) ([]Message, error) {
	start := time.Now()
	messages := make([]Message, 0)
	err := r.db.NewSelect().Model(&messages).Order("id ASC").Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", tableName, time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Message, error) {
	start := time.Now()
	message := new(Message)
	err := r.db.NewSelect().Model(message).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", tableName, time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return message, nil
}

// Update writes only the given columns; created_at is never among them.
func (r *repository) Update(ctx context.Context, message *Message, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}

	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(message).
		Column(columns...).
		WherePK().
		Returning("*").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", tableName, time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*Message)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", tableName, time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}
