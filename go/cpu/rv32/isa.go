package rv32

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

type inst uint32

func (i inst) opcode() uint32 { return uint32(i) & 0x7f }
func (i inst) rd() uint32     { return uint32(i) >> 7 & 0x1f }
func (i inst) funct3() uint32 { return uint32(i) >> 12 & 0x7 }
func (i inst) rs1() uint32    { return uint32(i) >> 15 & 0x1f }
func (i inst) rs2() uint32    { return uint32(i) >> 20 & 0x1f }
func (i inst) funct7() uint32 { return uint32(i) >> 25 }

func (i inst) immI() int32 { return signExtend(uint32(i)>>20, 12) }

func (i inst) immS() int32 {
	lo := uint32(i) >> 7 & 0x1f
	hi := uint32(i) >> 25 & 0x7f
	return signExtend(hi<<5|lo, 12)
}

// [12|10:5|4:1|11] << 1
func (i inst) immB() int32 {
	v := uint32(i)
	imm := (v>>31&1)<<12 |
		(v>>25&0x3f)<<5 |
		(v>>8&0xf)<<1 |
		(v>>7&1)<<11
	return signExtend(imm, 13)
}

func (i inst) immU() int32 { return int32(uint32(i) & 0xfffff000) }

// [20|10:1|11|19:12] << 1
func (i inst) immJ() int32 {
	v := uint32(i)
	imm := (v>>31&1)<<20 |
		(v>>21&0x3ff)<<1 |
		(v>>20&1)<<11 |
		(v>>12&0xff)<<12
	return signExtend(imm, 21)
}
