package ilio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/splanck/viper-sub028/il"
)

// Serialize produces the canonical textual form of m: fixed field order,
// two-space indentation inside function bodies, %tN-spelled results, and
// per-opcode operand order matching the parser. parse(Serialize(m)) is
// required to reproduce m modulo block-internal instruction ordering
// already pinned down by the module's own invariants.
func Serialize(m *il.Module) string {
	var sb strings.Builder
	sb.WriteString("il 0.1\n")

	for _, e := range m.Externs {
		sb.WriteString("\n")
		sb.WriteString(serializeExtern(e))
	}
	for _, g := range m.Globals {
		sb.WriteString("\n")
		sb.WriteString(serializeGlobal(g))
	}
	for _, f := range m.Functions {
		sb.WriteString("\n")
		sb.WriteString(serializeFunction(f))
	}
	return sb.String()
}

func serializeExtern(e il.Extern) string {
	parts := make([]string, len(e.ParamTypes))
	for i, t := range e.ParamTypes {
		parts[i] = t.String()
	}
	return fmt.Sprintf("extern @%s(%s) -> %s\n", e.Name, strings.Join(parts, ", "), e.ReturnType)
}

func serializeGlobal(g il.Global) string {
	constKw := ""
	if g.Const {
		constKw = "const "
	}
	return fmt.Sprintf("global %s%s @%s = %s\n", constKw, g.Type, g.Name, quoteString(g.Init))
}

func serializeFunction(f *il.Function) string {
	var sb strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %%t%d", p.Type, p.Temp)
	}
	sb.WriteString(fmt.Sprintf("func @%s(%s) -> %s {\n", f.Name, strings.Join(params, ", "), f.ReturnType))
	for _, b := range f.Blocks {
		sb.WriteString(serializeBlock(b))
	}
	sb.WriteString("}\n")
	return sb.String()
}

func serializeBlock(b *il.BasicBlock) string {
	var sb strings.Builder
	if len(b.Params) > 0 {
		params := make([]string, len(b.Params))
		for i, p := range b.Params {
			params[i] = fmt.Sprintf("%s %%t%d", p.Type, p.Temp)
		}
		sb.WriteString(fmt.Sprintf("%s:(%s)\n", b.Label, strings.Join(params, ", ")))
	} else {
		sb.WriteString(fmt.Sprintf("%s:\n", b.Label))
	}
	for _, in := range b.Instrs {
		sb.WriteString("  ")
		sb.WriteString(serializeInstr(in))
		sb.WriteString("\n")
	}
	return sb.String()
}

func serializeValue(v il.Value) string {
	return v.String()
}

func serializeArgs(args []il.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = serializeValue(a)
	}
	return strings.Join(parts, ", ")
}

func serializeLabelWithArgs(label string, args []il.Value) string {
	if len(args) == 0 {
		return label + "()"
	}
	return fmt.Sprintf("%s(%s)", label, serializeArgs(args))
}

func serializeInstr(in il.Instr) string {
	var sb strings.Builder
	if in.HasResult {
		sb.WriteString(fmt.Sprintf("%%t%d = ", in.Result))
	}
	sb.WriteString(in.Op.String())

	switch in.Op {
	case il.OpCall:
		sb.WriteString(fmt.Sprintf(" @%s(%s)", in.Callee, serializeArgs(in.Operands)))

	case il.OpBr:
		sb.WriteString(" " + serializeLabelWithArgs(in.Successors[0], in.SuccessorArgs[0]))

	case il.OpCondBr:
		sb.WriteString(fmt.Sprintf(" %s, %s, %s",
			serializeValue(in.Operands[0]),
			serializeLabelWithArgs(in.Successors[0], in.SuccessorArgs[0]),
			serializeLabelWithArgs(in.Successors[1], in.SuccessorArgs[1])))

	case il.OpResumeLabel:
		sb.WriteString(fmt.Sprintf(" %s, %s", serializeValue(in.Operands[0]), serializeLabelWithArgs(in.Successors[0], in.SuccessorArgs[0])))

	case il.OpEhPush:
		sb.WriteString(" " + in.HandlerLabel)

	case il.OpEhPop, il.OpEhEntry, il.OpTrap:
		// No operands.

	default:
		if len(in.Operands) > 0 {
			sb.WriteString(" " + serializeArgs(in.Operands))
		}
	}
	return sb.String()
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 || c > 0x7e {
				o := strconv.FormatInt(int64(c), 8)
				sb.WriteString(`\` + strings.Repeat("0", 3-len(o)) + o)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
