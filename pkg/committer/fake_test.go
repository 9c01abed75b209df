package committer_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type statement struct {
	SQL  string
	Args []any
}

type fakeResult struct {
	rows int64
	row  []any
	err  error
}

// fakeDB scripts the database behind a pool. Statements succeed by default: audit inserts
// return increasing ids, RETURNING clauses read from generated and updates and deletes touch
// rowsAffected rows.
type fakeDB struct {
	mu sync.Mutex

	generated    map[string]any
	rowsAffected int64
	// fail may override the result of any statement. attempt counts begun transactions.
	fail func(attempt int, sql string) (fakeResult, bool)
	// commitErrs are returned by successive commits.
	commitErrs []error

	nextAuditID int64
	begins      int
	commits     int
	rollbacks   int
	batches     int
	committed   []statement
}

func newFakeDB() *fakeDB {
	return &fakeDB{generated: map[string]any{}, rowsAffected: 1, nextAuditID: 100}
}

func (db *fakeDB) statements(prefix string) []statement {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []statement
	for _, s := range db.committed {
		if strings.HasPrefix(strings.TrimSpace(s.SQL), prefix) {
			out = append(out, s)
		}
	}
	return out
}

func (db *fakeDB) auditInserts() []statement {
	var out []statement
	for _, s := range db.statements("INSERT") {
		if strings.Contains(s.SQL, "audit_logs") {
			out = append(out, s)
		}
	}
	return out
}

func (db *fakeDB) handle(sql string) fakeResult {
	if db.fail != nil {
		if r, ok := db.fail(db.begins, sql); ok {
			return r
		}
	}
	if strings.Contains(sql, "audit_logs") {
		db.nextAuditID++
		return fakeResult{rows: 1, row: []any{db.nextAuditID}}
	}
	trimmed := strings.TrimSpace(sql)
	rows := int64(1)
	if !strings.HasPrefix(trimmed, "INSERT") {
		rows = db.rowsAffected
	}
	idx := strings.LastIndex(sql, " RETURNING ")
	if idx < 0 {
		return fakeResult{rows: rows}
	}
	if rows == 0 {
		return fakeResult{}
	}
	cols := strings.Split(sql[idx+len(" RETURNING "):], ", ")
	row := make([]any, len(cols))
	for i, c := range cols {
		row[i] = db.generated[strings.Trim(c, `"`)]
	}
	return fakeResult{rows: 1, row: row}
}

// fakePool satisfies repo.Pool.
type fakePool struct {
	db *fakeDB
}

func (p *fakePool) Begin(context.Context) (pgx.Tx, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	p.db.begins++
	return &fakeTx{db: p.db}, nil
}

func (p *fakePool) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not supported")
}

func (p *fakePool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	tx, _ := p.Begin(ctx)
	return tx.SendBatch(ctx, b)
}

func (p *fakePool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not supported")
}

func (p *fakePool) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (p *fakePool) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{err: errors.New("not supported")}
}

type fakeTx struct {
	db      *fakeDB
	staged  []statement
	closed  bool
	commits int
}

func (tx *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions are not supported")
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	if len(tx.db.commitErrs) > 0 {
		err := tx.db.commitErrs[0]
		tx.db.commitErrs = tx.db.commitErrs[1:]
		if err != nil {
			return err
		}
	}
	tx.commits++
	tx.db.commits++
	tx.db.committed = append(tx.db.committed, tx.staged...)
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	tx.db.rollbacks++
	tx.staged = nil
	return nil
}

func (tx *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not supported")
}

func (tx *fakeTx) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	tx.db.mu.Lock()
	tx.db.batches++
	tx.db.mu.Unlock()
	return &fakeBatchResults{tx: tx, queued: b.QueuedQueries}
}

func (tx *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (tx *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("not supported")
}

func (tx *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not supported")
}

func (tx *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (tx *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{err: errors.New("not supported")}
}

func (tx *fakeTx) Conn() *pgx.Conn { return nil }

// fakeBatchResults fails every statement after the first error, like an aborted transaction.
type fakeBatchResults struct {
	tx     *fakeTx
	queued []*pgx.QueuedQuery
	next   int
	err    error
}

func (b *fakeBatchResults) result() fakeResult {
	if b.err != nil {
		return fakeResult{err: b.err}
	}
	if b.next >= len(b.queued) {
		return fakeResult{err: errors.New("no more results in batch")}
	}
	q := b.queued[b.next]
	b.next++
	b.tx.db.mu.Lock()
	r := b.tx.db.handle(q.SQL)
	b.tx.db.mu.Unlock()
	if r.err != nil {
		b.err = r.err
		return r
	}
	b.tx.staged = append(b.tx.staged, statement{SQL: q.SQL, Args: q.Arguments})
	return r
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	r := b.result()
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", r.rows)), nil
}

func (b *fakeBatchResults) Query() (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBatchResults) QueryRow() pgx.Row {
	r := b.result()
	if r.err != nil {
		return fakeRow{err: r.err}
	}
	if r.row == nil {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: r.row}
}

func (b *fakeBatchResults) Close() error { return b.err }

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		if err := assign(d, r.values[i]); err != nil {
			return err
		}
	}
	return nil
}

// assign mimics pgx: a nil value sets the destination to its zero value and a pointer
// destination is allocated for non-nil values.
func assign(dest any, v any) error {
	dv := reflect.ValueOf(dest).Elem()
	if v == nil {
		dv.SetZero()
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dv.Type()) {
		dv.Set(rv)
		return nil
	}
	if dv.Kind() == reflect.Pointer && rv.Type().AssignableTo(dv.Type().Elem()) {
		p := reflect.New(dv.Type().Elem())
		p.Elem().Set(rv)
		dv.Set(p)
		return nil
	}
	return fmt.Errorf("scan: cannot assign %T to %s", v, dv.Type())
}
