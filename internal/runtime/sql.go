package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"brisk/internal/kernel"
	"brisk/internal/object"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

var sqlOperations = kernel.OpRights{
	reflect.TypeOf(SqlOpen{}):  kernel.RightWrite,
	reflect.TypeOf(SqlExec{}):  kernel.RightWrite,
	reflect.TypeOf(SqlQuery{}): kernel.RightRead,
	reflect.TypeOf(SqlClose{}): kernel.RightWrite,
}

// Drivers accepted by sql::open.
var sqlDrivers = map[string]bool{
	"sqlite3": true, // cgo build of sqlite
	"sqlite":  true, // pure go build of sqlite
	"mysql":   true,
}

const sqlTimeout = time.Minute

// sqlStore owns every database handle opened by a script. Handles are small
// integers handed back to the script.
type sqlStore struct {
	ctx   context.Context
	conns map[int]*sql.DB
	next  int
}

func newSqlStore(ctx context.Context) *sqlStore {
	return &sqlStore{ctx: ctx, conns: make(map[int]*sql.DB), next: 1}
}

func (s *sqlStore) Handler(ctx *kernel.ActCtx, msg kernel.Message) kernel.HandlerSignal {
	switch payload := msg.Payload.(type) {
	case SqlOpen:
		handle, err := s.open(payload)
		kernel.Reply(ctx, msg, Result[int]{Value: handle, Err: err})
	case SqlExec:
		n, err := s.exec(payload)
		kernel.Reply(ctx, msg, Result[int64]{Value: n, Err: err})
	case SqlQuery:
		rows, err := s.query(payload)
		kernel.Reply(ctx, msg, Result[[][]object.Object]{Value: rows, Err: err})
	case SqlClose:
		db, err := s.conn(payload.Handle)
		if err == nil {
			delete(s.conns, payload.Handle)
			if cerr := db.Close(); cerr != nil {
				err = fmt.Errorf("%w: %v", ErrStorage, cerr)
			}
		}
		ack(ctx, msg, err)
	case kernel.Shutdown:
		for handle, db := range s.conns {
			if err := db.Close(); err != nil {
				log.Warnf("sql: close handle %d: %v", handle, err)
			}
		}
		s.conns = map[int]*sql.DB{}
	default:
		kernel.Reply(ctx, msg, kernel.UnknownOperation{})
	}
	return kernel.Continue{}
}

func (s *sqlStore) open(p SqlOpen) (int, error) {
	if !sqlDrivers[p.Driver] {
		return 0, fmt.Errorf("%w: unknown driver %q", ErrStorage, p.Driver)
	}
	db, err := sql.Open(p.Driver, p.Dsn)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := db.PingContext(s.ctx); err != nil {
		db.Close()
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	// An in-memory sqlite database lives as long as its connection.
	if strings.Contains(p.Dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	handle := s.next
	s.next++
	s.conns[handle] = db
	slog.Debug("sql handle opened", slog.Int("handle", handle), slog.String("driver", p.Driver))
	return handle, nil
}

func (s *sqlStore) conn(handle int) (*sql.DB, error) {
	db, ok := s.conns[handle]
	if !ok {
		return nil, fmt.Errorf("%w: no open database with handle %d", ErrStorage, handle)
	}
	return db, nil
}

func (s *sqlStore) exec(p SqlExec) (int64, error) {
	db, err := s.conn(p.Handle)
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(s.ctx, p.Query, p.Params...)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *sqlStore) query(p SqlQuery) ([][]object.Object, error) {
	db, err := s.conn(p.Handle)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(s.ctx, p.Query, p.Params...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	var out [][]object.Object
	for rows.Next() {
		vals := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		row := make([]object.Object, len(vals))
		for i, v := range vals {
			row[i] = columnValue(v, types[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return out, nil
}

// columnValue maps a scanned driver value onto a script value. NULL is void.
func columnValue(v any, ct *sql.ColumnType) object.Object {
	switch x := v.(type) {
	case nil:
		return object.VOID
	case int:
		return object.Num(float64(x))
	case int64:
		return object.Num(float64(x))
	case float64:
		return object.Num(x)
	case bool:
		return object.NativeBool(x)
	case time.Time:
		return object.Str(x.Format(time.RFC3339Nano))
	case []byte:
		if ct != nil {
			decl := strings.ToUpper(ct.DatabaseTypeName())
			if strings.Contains(decl, "INT") || decl == "DECIMAL" || decl == "DOUBLE" || decl == "FLOAT" {
				if n, err := object.ParseLiteral(object.NUMBER_OBJ, string(x)); err == nil {
					return n
				}
			}
		}
		return object.Str(string(x))
	case string:
		return object.Str(x)
	}
	return object.Str(fmt.Sprintf("%v", v))
}

// SQL is the client side of the sql store.
type SQL struct {
	rt *Runtime
}

func (q SQL) Open(driver, dsn string) (int, error) {
	return requestWithin[int](q.rt, SqlService, SqlOpen{Driver: driver, Dsn: dsn}, sqlTimeout)
}

// Exec runs a statement and reports the number of affected rows.
func (q SQL) Exec(handle int, query string, params ...any) (int64, error) {
	return requestWithin[int64](q.rt, SqlService, SqlExec{Handle: handle, Query: query, Params: params}, sqlTimeout)
}

func (q SQL) Query(handle int, query string, params ...any) ([][]object.Object, error) {
	return requestWithin[[][]object.Object](q.rt, SqlService, SqlQuery{Handle: handle, Query: query, Params: params}, sqlTimeout)
}

func (q SQL) Close(handle int) error {
	_, err := requestWithin[struct{}](q.rt, SqlService, SqlClose{Handle: handle}, sqlTimeout)
	return err
}
