package cpu

// execute dispatches a decoded instruction. The switch is exhaustive over
// the ISA; Decode never produces an Op outside it.
func (c *Core) execute(in Instruction) {
	switch in.Op {
	case XXX:
		c.XXX(in)
	case ADD:
		c.ADD(in)
	case AND:
		c.AND(in)
	case OR:
		c.OR(in)
	case XOR:
		c.XOR(in)
	case MOV:
		c.MOV(in)
	case BUN:
		c.BUN(in)
	case BIZ:
		c.BIZ(in)
	case BIN:
		c.BIN(in)
	case LDA:
		c.LDA(in)
	case STA:
		c.STA(in)
	case LDR:
		c.LDR(in)
	case STR:
		c.STR(in)
	case EQL:
		c.EQL(in)
	case GRT:
		c.GRT(in)
	case SHL:
		c.SHL(in)
	case SHR:
		c.SHR(in)
	case ROL:
		c.ROL(in)
	case ROR:
		c.ROR(in)
	case INT:
		c.INT(in)
	case HLT:
		c.HLT(in)
	}
}

// branchTarget reads the low sp-width bits of a register as a cache index.
func (c *Core) branchTarget(i byte) uint32 {
	return uint32(c.reg(i).Uint64()) & c.spMask
}

// XXX marks a decode failure and behaves as HLT.
func (c *Core) XXX(in Instruction) {
	c.HLT(in)
}

// ADD - dest := src1 + src2, overflow from the carry out of bit 127.
func (c *Core) ADD(in Instruction) {
	sum, carry := c.reg(in.Src1).Add(*c.reg(in.Src2))
	*c.reg(in.Dest) = sum
	c.Flags.Clear(FlagOverflow)
	if carry {
		c.Flags.Set(FlagOverflow)
	}
	c.setZeroSign(sum)
}

// AND - dest := src1 & src2.
func (c *Core) AND(in Instruction) {
	r := c.reg(in.Src1).And(*c.reg(in.Src2))
	*c.reg(in.Dest) = r
	c.setZeroSign(r)
}

// OR - dest := src1 | src2.
func (c *Core) OR(in Instruction) {
	r := c.reg(in.Src1).Or(*c.reg(in.Src2))
	*c.reg(in.Dest) = r
	c.setZeroSign(r)
}

// XOR - dest := src1 ^ src2.
func (c *Core) XOR(in Instruction) {
	r := c.reg(in.Src1).Xor(*c.reg(in.Src2))
	*c.reg(in.Dest) = r
	c.setZeroSign(r)
}

// MOV - dest := src1.
func (c *Core) MOV(in Instruction) {
	r := *c.reg(in.Src1)
	*c.reg(in.Dest) = r
	c.setZeroSign(r)
}

// BUN - branch unconditionally: sp := dest register.
func (c *Core) BUN(in Instruction) {
	c.SP = c.branchTarget(in.Dest)
}

// BIZ - branch if the zero flag is set.
func (c *Core) BIZ(in Instruction) {
	if c.Flags.Has(FlagZero) {
		c.SP = c.branchTarget(in.Dest)
	}
}

// BIN - branch if the sign flag is set.
func (c *Core) BIN(in Instruction) {
	if c.Flags.Has(FlagSign) {
		c.SP = c.branchTarget(in.Dest)
	}
}

// LDA - load dest from memory: the dest operand names the channel and the
// src1 register holds the index.
func (c *Core) LDA(in Instruction) {
	index := int(c.reg(in.Src1).Uint64())
	*c.reg(in.Dest) = c.bus.Read(true, c.ID, int(in.Dest), index)
}

// STA - store src1 to memory: the src2 operand names the channel and the
// dest operand byte is the index.
func (c *Core) STA(in Instruction) {
	c.bus.Write(true, c.ID, int(in.Src2), int(in.Dest), *c.reg(in.Src1))
}

// LDR - load dest from the cache at the index held in src1.
func (c *Core) LDR(in Instruction) {
	*c.reg(in.Dest) = c.CacheRead(int(c.reg(in.Src1).Uint64()))
}

// STR - store src1 into the cache at the index held in dest.
func (c *Core) STR(in Instruction) {
	c.CacheWrite(int(c.reg(in.Dest).Uint64()), *c.reg(in.Src1))
}

// EQL - set the zero flag if src1 == src2.
func (c *Core) EQL(in Instruction) {
	if c.reg(in.Src1).Equal(*c.reg(in.Src2)) {
		c.Flags.Set(FlagZero)
	}
}

// GRT - set the sign flag if src1 < src2, unsigned. The mnemonic is
// historical; the comparison really is less-than.
func (c *Core) GRT(in Instruction) {
	if c.reg(in.Src1).Less(*c.reg(in.Src2)) {
		c.Flags.Set(FlagSign)
	}
}

// SHL - shift src1 left by one, in place.
func (c *Core) SHL(in Instruction) {
	r := c.reg(in.Src1)
	*r = r.Shl(1)
	c.setZeroSign(*r)
}

// SHR - shift src1 right by one, in place.
func (c *Core) SHR(in Instruction) {
	r := c.reg(in.Src1)
	*r = r.Shr(1)
	c.setZeroSign(*r)
}

// ROL - rotate src1 left by one, in place.
func (c *Core) ROL(in Instruction) {
	r := c.reg(in.Src1)
	*r = r.Rol()
}

// ROR - rotate src1 right by one, in place.
func (c *Core) ROR(in Instruction) {
	r := c.reg(in.Src1)
	*r = r.Ror()
}

// INT - bootstrap the worker cores: for every worker c, copy a cache-sized
// region of memory bank 0, starting at len(cache)*c, into c's cache over
// the bus. Whether the workers are then released is the machine's call; the
// wake hook is nil when they should stay halted. Only core 0 holds the bus
// permission this needs.
func (c *Core) INT(in Instruction) {
	if c.ID != 0 {
		return
	}
	size := len(c.Cache)
	for target := 1; target < c.bus.CoreCount(); target++ {
		base := size * target
		for i := 0; i < size; i++ {
			c.bus.Write(false, c.ID, target, i, c.bus.Read(true, c.ID, 0, base+i))
		}
		if c.wake != nil {
			c.wake(target)
		}
	}
}

// HLT - set the halt flag. Halt is sticky; only an external reset clears it.
func (c *Core) HLT(Instruction) {
	c.Flags.Set(FlagHalt)
}
