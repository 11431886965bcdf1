package engine

import "errors"

var (
	// ErrRecordStoreRequired indicates a missing record store.
	ErrRecordStoreRequired = errors.New("record store is required")
	// ErrMailboxRequired indicates a missing mailbox log.
	ErrMailboxRequired = errors.New("mailbox log is required")
	// ErrLockerRequired indicates a missing game locker.
	ErrLockerRequired = errors.New("game locker is required")
)
