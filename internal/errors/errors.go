// Package errors defines the sentinel errors shared across sqldevcfg.
//
// Callers wrap these with fmt.Errorf("...: %w", err) so the message carries the
// file path or pattern involved, and check them with errors.Is.
package errors

import "errors"

// Cryptographic errors.
var (
	// ErrCryption indicates a stored password could not be encrypted or decrypted
	// (malformed base64, bad block length or invalid padding).
	ErrCryption = errors.New("password cryption failed")
)

// Installation state errors.
var (
	// ErrNotInitialized indicates the preferences file does not exist yet.
	// SQL Developer creates it on first launch.
	ErrNotInitialized = errors.New("sql developer has not been initialized")

	// ErrMissingIdentifier indicates the preferences file carries no db.system.id value.
	ErrMissingIdentifier = errors.New("machine identifier not found in preferences")

	// ErrAmbiguousInstallation indicates a file pattern matched zero or several files
	// where exactly one was expected.
	ErrAmbiguousInstallation = errors.New("installation layout is ambiguous")

	// ErrNoInstallations indicates no connections file was found under the search root.
	ErrNoInstallations = errors.New("no sql developer installations found")
)

// Document errors.
var (
	// ErrSerialization indicates an attribute value cannot be written as XML text.
	ErrSerialization = errors.New("value is not representable as text")

	// ErrConnectionNotFound indicates no connection with the requested name exists.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrNoBackup indicates there is no backup to restore.
	ErrNoBackup = errors.New("no backup found")
)

// Re-exported standard helpers so callers need a single errors import.
var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)
