package migration

import (
	"fmt"
	"strings"
)

// KeyError reports a migration key that does not follow "app:ts_name".
type KeyError struct {
	Input  string
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("malformed migration key %q: %s", e.Input, e.Reason)
}

// UnitError reports a unit rejected at construction.
type UnitError struct {
	// Source names where the unit came from, usually a file path.
	Source string
	Reason string
}

func (e *UnitError) Error() string {
	if e.Source == "" {
		return "invalid migration: " + e.Reason
	}
	return fmt.Sprintf("invalid migration %s: %s", e.Source, e.Reason)
}

// UnknownKeyError reports a key that matches no unit. Referrer is set when the
// key was named as a dependency.
type UnknownKeyError struct {
	Key      Key
	Referrer *Key
}

func (e *UnknownKeyError) Error() string {
	if e.Referrer != nil {
		return fmt.Sprintf("unknown migration %s (dependency of %s)", e.Key, *e.Referrer)
	}
	return fmt.Sprintf("unknown migration %s", e.Key)
}

// DuplicateKeyError reports two units with the same key.
type DuplicateKeyError struct {
	Key Key
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate migration %s", e.Key)
}

// CyclicDependencyError reports a dependency cycle. Cycle starts and ends with
// the same key.
type CyclicDependencyError struct {
	Cycle []Key
}

func (e *CyclicDependencyError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, k := range e.Cycle {
		parts[i] = k.String()
	}
	return "migration dependency cycle: " + strings.Join(parts, " -> ")
}

// ExecutionError reports a failure while applying one unit. Statement is the
// zero-based index into the unit's statement list, or -1 when the failure was
// in the transaction or ledger bookkeeping.
type ExecutionError struct {
	Key       Key
	Direction Direction
	Statement int
	Err       error
}

func (e *ExecutionError) Error() string {
	if e.Statement < 0 {
		return fmt.Sprintf("migration %s %s: %v", e.Key, e.Direction, e.Err)
	}
	return fmt.Sprintf("migration %s %s: statement %d: %v", e.Key, e.Direction, e.Statement+1, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
