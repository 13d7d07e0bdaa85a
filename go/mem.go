package lazycorn

const (
	STACK_BASE = 0x60000000
	// _start returns here; the address is never mapped, execution stops before fetching it
	RETURN_SENTINEL = 0xfffff000
)

// align rounds addr down and addr+size up to a multiple of to.
func align(addr, size, to uint64) (uint64, uint64) {
	mask := ^(to - 1)
	right := (addr + size + to - 1) & mask
	addr &= mask
	return addr, right - addr
}
