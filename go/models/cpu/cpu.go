package cpu

type Hook interface{}

// Cpu is the minimum an emulator backend must provide to run a lazily loaded image.
type Cpu interface {
	// memory mapping
	MemMapProt(addr, size uint64, prot int) error

	// memory IO, never triggers fault hooks
	MemRead(addr, size uint64) ([]byte, error)
	MemReadInto(p []byte, addr uint64) error
	MemWrite(addr uint64, p []byte) error

	// register IO
	RegRead(reg int) (uint64, error)
	RegWrite(reg int, val uint64) error

	// execution
	Start(begin, until uint64) error
	Stop() error

	// hooks
	HookAdd(htype int, cb interface{}, begin, end uint64, extra ...int) (Hook, error)
	HookDel(hook Hook) error

	// cleanup
	Close() error
}

// Builder creates a fresh Cpu for one run.
type Builder interface {
	New() (Cpu, error)
}
