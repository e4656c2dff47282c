package sqly

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sync"
)

// Locker provides mutual exclusion for migration runs.
type Locker interface {
	// Acquire blocks until the lock for key is held or ctx is done. The
	// returned release function must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// PostgresLock implements Locker with session level advisory locks. The lock
// lives on a dedicated connection that is returned to the pool on release.
type PostgresLock struct {
	db *sql.DB
}

// NewPostgresLock creates a new PostgresLock.
func NewPostgresLock(db *sql.DB) *PostgresLock {
	return &PostgresLock{db: db}
}

// Acquire takes pg_advisory_lock on the FNV-1a hash of key.
func (l *PostgresLock) Acquire(ctx context.Context, key string) (func(), error) {
	if l.db == nil {
		return nil, ErrNoDatabase
	}
	lockID := hashLockKey(key)
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, lockID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pg_advisory_lock(%d): %w", lockID, err)
	}
	return func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
		conn.Close()
	}, nil
}

// MySQLLock implements Locker with GET_LOCK named locks.
type MySQLLock struct {
	db *sql.DB
}

// NewMySQLLock creates a new MySQLLock.
func NewMySQLLock(db *sql.DB) *MySQLLock {
	return &MySQLLock{db: db}
}

// Acquire waits for GET_LOCK on key. MySQL caps lock names at 64 characters.
func (l *MySQLLock) Acquire(ctx context.Context, key string) (func(), error) {
	if l.db == nil {
		return nil, ErrNoDatabase
	}
	if len(key) > 64 {
		key = fmt.Sprintf("sqly:%x", hashLockKey(key))
	}
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, -1)`, key).Scan(&got); err != nil {
		conn.Close()
		return nil, fmt.Errorf("GET_LOCK(%s): %w", key, err)
	}
	if got.Int64 != 1 {
		conn.Close()
		return nil, fmt.Errorf("GET_LOCK(%s): not granted", key)
	}
	return func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT RELEASE_LOCK(?)`, key)
		conn.Close()
	}, nil
}

// SQLiteLock implements Locker with process local mutexes keyed by lock key.
// SQLite's own file locking covers other processes.
type SQLiteLock struct{}

var sqliteLocks sync.Map // key -> chan struct{}

// NewSQLiteLock creates a new SQLiteLock.
func NewSQLiteLock() *SQLiteLock {
	return &SQLiteLock{}
}

// Acquire waits for the key's slot or for ctx to be done.
func (l *SQLiteLock) Acquire(ctx context.Context, key string) (func(), error) {
	v, _ := sqliteLocks.LoadOrStore(key, make(chan struct{}, 1))
	slot := v.(chan struct{})
	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire sqlite lock: %w", ctx.Err())
	}
}

// hashLockKey produces a stable non-negative int64 from key.
func hashLockKey(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64() & 0x7FFFFFFFFFFFFFFF) //nolint:gosec // advisory lock ids are signed
}
