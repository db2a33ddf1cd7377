package syncer

import "errors"

var (
	// ErrOffline indicates no connectivity; the local cache write still
	// succeeded and the change will sync later.
	ErrOffline = errors.New("offline: saved locally, sync pending")
	// ErrRemoteTimeout indicates a remote call exceeded its deadline. For
	// fallback purposes it is treated like any other remote failure.
	ErrRemoteTimeout = errors.New("remote call timed out")
	// ErrNotFound indicates the requested document or account is absent from
	// every tier, as opposed to being unreachable.
	ErrNotFound = errors.New("not found")
	// ErrDualWriteFailure indicates both the blob-store and metadata-index
	// writes failed, so no durable remote channel holds the update.
	ErrDualWriteFailure = errors.New("both remote writes failed")
)
