package sentinel

import "errors"

// Store-level facts. Registry stores return these, possibly wrapped, and the
// registry service turns them into domain errors:
//
//   - ErrNotFound: no athlete, achievement, caller mapping or event with that key
//   - ErrConflict: a uniqueness rule rejected the write (caller already mapped)
//   - ErrInvalidState: persisted state disagrees with the write (out-of-order
//     id, pinned owner mismatch)
//
// Input validation failures never use these; see pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)
