package models

import (
	"fmt"
	"strings"
)

type Ins interface {
	Addr() uint64
	Bytes() []byte
	Mnemonic() string
	OpStr() string
}

// FormatIns renders "addr: bytes mnemonic opstr".
func FormatIns(ins Ins) string {
	return strings.TrimRight(fmt.Sprintf("%#x: %x %s %s", ins.Addr(), ins.Bytes(), ins.Mnemonic(), ins.OpStr()), " ")
}
