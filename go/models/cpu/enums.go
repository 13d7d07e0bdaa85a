package cpu

// hook enums mirror Unicorn's so the unicorn backend can pass them through
// https://github.com/unicorn-engine/unicorn/blob/master/bindings/go/unicorn/unicorn_const.go
const (
	// hook CPU interrupts
	HOOK_INTR = 1

	// hook each executed instruction
	HOOK_CODE = 4

	// hook unmapped memory access
	HOOK_MEM_READ_UNMAPPED  = 16
	HOOK_MEM_WRITE_UNMAPPED = 32
	HOOK_MEM_FETCH_UNMAPPED = 64
	HOOK_MEM_UNMAPPED       = HOOK_MEM_READ_UNMAPPED | HOOK_MEM_WRITE_UNMAPPED | HOOK_MEM_FETCH_UNMAPPED

	// hook protection violations
	HOOK_MEM_READ_PROT  = 128
	HOOK_MEM_WRITE_PROT = 256
	HOOK_MEM_FETCH_PROT = 512
	HOOK_MEM_PROT       = HOOK_MEM_READ_PROT | HOOK_MEM_WRITE_PROT | HOOK_MEM_FETCH_PROT

	// hook all memory errors
	HOOK_MEM_ERR = HOOK_MEM_UNMAPPED | HOOK_MEM_PROT
)

// access values passed to fault hooks
const (
	MEM_WRITE_UNMAPPED = 20
	MEM_READ_UNMAPPED  = 19
	MEM_FETCH_UNMAPPED = 21
	MEM_WRITE_PROT     = 22
	MEM_READ_PROT      = 23
	MEM_FETCH_PROT     = 24
)

const (
	PROT_NONE  = 0
	PROT_READ  = 1
	PROT_WRITE = 2
	PROT_EXEC  = 4
	PROT_ALL   = 7
)

// AccessName is used in diagnostics.
func AccessName(access int) string {
	switch access {
	case MEM_READ_UNMAPPED:
		return "read"
	case MEM_WRITE_UNMAPPED:
		return "write"
	case MEM_FETCH_UNMAPPED:
		return "fetch"
	case MEM_READ_PROT:
		return "protected read"
	case MEM_WRITE_PROT:
		return "protected write"
	case MEM_FETCH_PROT:
		return "protected exec"
	}
	return "access"
}
