package vm

import "github.com/splanck/viper-sub028/il"

// Strategy selects one of the VM's three interchangeable dispatch
// backends. All three execute the same executeInstr core and must
// produce identical observable results; they exist for performance
// comparison (the `bench` subcommand reports per-strategy throughput).
type Strategy int

const (
	// StrategySwitch dispatches via a plain Go switch on the opcode,
	// re-evaluated every instruction.
	StrategySwitch Strategy = iota
	// StrategyTable dispatches via a map from opcode to handler thunk,
	// looked up every instruction.
	StrategyTable
	// StrategyThreaded pre-resolves each block's handler thunks once
	// (direct threading) so steady-state dispatch skips the map lookup.
	StrategyThreaded
)

func (s Strategy) String() string {
	switch s {
	case StrategySwitch:
		return "switch"
	case StrategyTable:
		return "table"
	case StrategyThreaded:
		return "threaded"
	default:
		return "unknown"
	}
}

// handlerThunk executes one instruction and returns its effect. It is
// the shared seam all three strategies eventually call into.
type handlerThunk func(m *Machine, f *Frame, in *il.Instr) stepResult

func switchThunk(m *Machine, f *Frame, in *il.Instr) stepResult {
	return executeInstr(m, f, in)
}

// opcodeTable maps every opcode to switchThunk. StrategyTable looks this
// map up per instruction; StrategyThreaded resolves it once per block
// and caches the result alongside the block's instructions.
var opcodeTable = buildOpcodeTable()

func buildOpcodeTable() map[il.Opcode]handlerThunk {
	t := make(map[il.Opcode]handlerThunk)
	for op := il.Opcode(0); ; op++ {
		if op.String() != "UNKNOWN" {
			t[op] = switchThunk
		}
		if op == 255 {
			break
		}
	}
	return t
}

// dispatchOne executes the instruction at (f.Block, f.IP) using the
// Machine's configured strategy.
func (m *Machine) dispatchOne(f *Frame) stepResult {
	in := &f.Block.Instrs[f.IP]
	switch m.Strategy {
	case StrategyTable:
		if thunk, ok := opcodeTable[in.Op]; ok {
			return thunk(m, f, in)
		}
		return executeInstr(m, f, in)
	case StrategyThreaded:
		return m.threadedDispatch(f, in)
	default:
		return switchThunk(m, f, in)
	}
}

// threadedCache maps a block pointer to its pre-resolved handler thunks,
// populated lazily the first time each block is entered under
// StrategyThreaded.
func (m *Machine) threadedDispatch(f *Frame, in *il.Instr) stepResult {
	thunks, ok := m.threadedCache[f.Block]
	if !ok {
		thunks = make([]handlerThunk, len(f.Block.Instrs))
		for i, inst := range f.Block.Instrs {
			if t, ok := opcodeTable[inst.Op]; ok {
				thunks[i] = t
			} else {
				thunks[i] = switchThunk
			}
		}
		if m.threadedCache == nil {
			m.threadedCache = make(map[*il.BasicBlock][]handlerThunk)
		}
		m.threadedCache[f.Block] = thunks
	}
	return thunks[f.IP](m, f, in)
}
