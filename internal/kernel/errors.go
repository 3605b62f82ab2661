package kernel

import "errors"

// Mapping errors, each translated by the syscall layer into a distinct
// guest-visible result code. Guest software matches on these exactly.
var (
	// ErrInvalidCombination: the requested permission/address shape
	// contradicts how the object was created.
	ErrInvalidCombination = errors.New("kernel: invalid combination")
	// ErrWrongPermission: the creator's own access rights exceed what
	// the mapper is granting back.
	ErrWrongPermission = errors.New("kernel: wrong permission")
	// ErrInvalidAddress: an explicit target address outside the shared
	// memory window.
	ErrInvalidAddress = errors.New("kernel: invalid address")
	// ErrInvalidAddressState: the target range is not free.
	ErrInvalidAddressState = errors.New("kernel: invalid address state")
)
