package db

import "errors"

// ErrKeyNotFound is returned by BlobStore.Get for absent keys.
var ErrKeyNotFound = errors.New("db: key not found")

// Command names recorded in Error.Op.
const (
	OpPing    = "PING"
	OpDel     = "DEL"
	OpExists  = "EXISTS"
	OpHGetAll = "HGETALL"
	OpHSet    = "HSET"
	OpGet     = "GET"
	OpSetNX   = "SET NX"
	OpZAdd    = "ZADD"
	OpZRange  = "ZRANGE"
	OpZRem    = "ZREM"
)

// Error records which command failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "db: " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
