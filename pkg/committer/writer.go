package committer

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/accounts/pkg/audit"
	"github.com/iota-uz/accounts/pkg/unitofwork"
)

// write is the business statement for one audit entry. Store-generated columns still pending
// are left out of the statement and read back through RETURNING.
type write struct {
	entry *audit.Entry
	sql   string
	args  []any

	returning []audit.FieldRef
	generated map[string]any
}

func newWrite(e *audit.Entry) *write {
	w := &write{entry: e, returning: e.Pending}
	r := e.Source
	table := quoteTable(r.Descriptor.Table())
	switch e.Operation {
	case audit.OperationCreated:
		w.sql, w.args = insertSQL(table, r)
	case audit.OperationUpdated:
		w.sql, w.args = updateSQL(table, r)
	case audit.OperationDeleted:
		w.sql, w.args = deleteSQL(table, r)
	}
	if len(w.returning) > 0 {
		cols := make([]string, len(w.returning))
		for i, ref := range w.returning {
			cols[i] = quote(ref.Field)
		}
		w.sql += " RETURNING " + strings.Join(cols, ", ")
	}
	return w
}

func insertSQL(table string, r unitofwork.Record) (string, []any) {
	fields := r.Descriptor.Fields()
	cols := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for i, f := range fields {
		if r.IsPending(i) {
			continue
		}
		cols = append(cols, quote(f.Name()))
		args = append(args, r.Current(i))
	}
	if len(cols) == 0 {
		return "INSERT INTO " + table + " DEFAULT VALUES", nil
	}
	return "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders(1, len(cols)) + ")", args
}

func updateSQL(table string, r unitofwork.Record) (string, []any) {
	changes := r.Changes()
	sets := make([]string, 0, len(changes))
	args := make([]any, 0, len(changes))
	for _, c := range changes {
		if !c.Modified {
			continue
		}
		args = append(args, c.Current)
		sets = append(sets, quote(c.Field)+" = $"+strconv.Itoa(len(args)))
	}
	where, args := whereKey(r, args)
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE " + where, args
}

func deleteSQL(table string, r unitofwork.Record) (string, []any) {
	where, args := whereKey(r, nil)
	return "DELETE FROM " + table + " WHERE " + where, args
}

// whereKey matches the row on the key values it was loaded with.
func whereKey(r unitofwork.Record, args []any) (string, []any) {
	fields := r.Descriptor.Fields()
	key := r.PriorKey()
	conds := make([]string, len(key))
	for n, i := range r.Descriptor.Keys() {
		args = append(args, key[n])
		conds[n] = quote(fields[i].Name()) + " = $" + strconv.Itoa(len(args))
	}
	return strings.Join(conds, " AND "), args
}

func (w *write) queue(b *batch) {
	b.add(w.sql, w.args, w.read)
}

// read consumes the statement's result. A missing row on update or delete is ErrRowNotFound,
// and RETURNING values the store left NULL are dropped so Resolve reports them as missing.
func (w *write) read(br pgx.BatchResults) error {
	name := w.entry.EntityType
	if len(w.returning) == 0 {
		tag, err := br.Exec()
		if err != nil {
			return errors.Wrapf(err, "write %s", name)
		}
		if w.entry.Operation != audit.OperationCreated && tag.RowsAffected() == 0 {
			return rowNotFound(name, w.entry.Source.PriorKey())
		}
		return nil
	}

	fields := w.entry.Source.Descriptor.Fields()
	dests := make([]any, len(w.returning))
	values := make([]func() (any, bool), len(w.returning))
	for i, ref := range w.returning {
		dests[i], values[i] = fields[ref.Index].ScanTarget()
	}
	if err := br.QueryRow().Scan(dests...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rowNotFound(name, w.entry.Source.PriorKey())
		}
		return errors.Wrapf(err, "write %s", name)
	}
	w.generated = make(map[string]any, len(w.returning))
	for i, ref := range w.returning {
		if v, ok := values[i](); ok {
			w.generated[ref.Field] = v
		}
	}
	return nil
}

func placeholders(from, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("$")
		sb.WriteString(strconv.Itoa(from + i))
	}
	return sb.String()
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// quoteTable accepts schema-qualified names.
func quoteTable(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}
