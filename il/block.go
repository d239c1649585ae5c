package il

// BasicBlock is a labeled, straight-line instruction sequence with typed
// parameters (replacing phi-nodes: incoming values are supplied explicitly
// by each predecessor's branch-argument vector) and exactly one terminator
// as its final instruction.
type BasicBlock struct {
	Label  string
	Params []Param
	Instrs []Instr
}

// Terminated reports whether the block's last instruction is a terminator.
// An empty block is never terminated.
func (b *BasicBlock) Terminated() bool {
	if len(b.Instrs) == 0 {
		return false
	}
	return b.Instrs[len(b.Instrs)-1].Op.IsTerminator()
}

// ParamTypes returns the block's parameter types in declared order.
func (b *BasicBlock) ParamTypes() []Type {
	types := make([]Type, len(b.Params))
	for i, p := range b.Params {
		types[i] = p.Type
	}
	return types
}
