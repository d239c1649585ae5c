package ilio

import (
	"github.com/splanck/viper-sub028/il"
	"github.com/splanck/viper-sub028/support"
)

// Parser streams IL text into an il.Module, interning temp names to dense
// ids per function as it encounters their first definition.
type Parser struct {
	lex      *lexer
	lookahd  *token
	path     string
	diags    []support.Diag
	tempIDs  map[string]il.TempID
	nextTemp il.TempID

	// tempTypes records each temp's type at the point it is defined
	// (function parameter, block parameter, or instruction result) so
	// later uses of that temp as an operand carry its real type instead
	// of an assumed one.
	tempTypes map[il.TempID]il.Type

	mod   *il.Module
	curFn *il.Function
}

// Parse parses src (the contents of one IL source file named path) into a
// Module. Diagnostics accumulate rather than stopping at the first error;
// callers should check the returned Expected before using the module.
func Parse(path, src string) support.Expected[*il.Module] {
	p := &Parser{lex: newLexer(src), path: path}
	mod := p.parseModule()
	if len(p.diags) > 0 {
		return support.Err[*il.Module](p.diags...)
	}
	return support.Ok(mod)
}

func (p *Parser) errf(line, col int, format string, args ...any) {
	p.diags = append(p.diags, support.Errorf(support.Location{Path: p.path, Line: line, Column: col}, format, args...))
}

func (p *Parser) peek() token {
	if p.lookahd == nil {
		t := p.lex.next()
		p.lookahd = &t
	}
	return *p.lookahd
}

func (p *Parser) take() token {
	t := p.peek()
	p.lookahd = nil
	return t
}

func (p *Parser) expectPunct(s string) bool {
	t := p.take()
	if t.kind != tokPunct || t.text != s {
		p.errf(t.line, t.col, "expected %q, got %q", s, t.text)
		return false
	}
	return true
}

func (p *Parser) expectIdent() (string, bool) {
	t := p.take()
	if t.kind != tokIdent {
		p.errf(t.line, t.col, "expected identifier, got %q", t.text)
		return "", false
	}
	return t.text, true
}

func (p *Parser) internTemp(name string) il.TempID {
	if p.tempIDs == nil {
		p.tempIDs = make(map[string]il.TempID)
	}
	if id, ok := p.tempIDs[name]; ok {
		return id
	}
	id := p.nextTemp
	p.nextTemp++
	p.tempIDs[name] = id
	return id
}

func (p *Parser) resetFunctionScope() {
	p.tempIDs = make(map[string]il.TempID)
	p.tempTypes = make(map[il.TempID]il.Type)
	p.nextTemp = 0
}

// defineTemp records id's type at its point of definition, so a later
// use of that temp as an operand resolves to its real type.
func (p *Parser) defineTemp(id il.TempID, ty il.Type) {
	if p.tempTypes == nil {
		p.tempTypes = make(map[il.TempID]il.Type)
	}
	p.tempTypes[id] = ty
}

func (p *Parser) parseModule() *il.Module {
	mod := il.NewModule()
	p.mod = mod

	// Optional "il" version header.
	if p.peek().kind == tokIdent && p.peek().text == "il" {
		p.take()
		p.take() // version token (e.g. "0.1"), lexed as float or ident
	}

	for p.peek().kind != tokEOF {
		kw := p.peek()
		switch {
		case kw.kind == tokIdent && kw.text == "extern":
			p.parseExtern(mod)
		case kw.kind == tokIdent && kw.text == "global":
			p.parseGlobal(mod)
		case kw.kind == tokIdent && kw.text == "func":
			p.parseFunction(mod)
		default:
			p.errf(kw.line, kw.col, "expected extern, global, or func declaration, got %q", kw.text)
			p.take()
		}
	}
	return mod
}

func (p *Parser) parseType() (il.Type, bool) {
	t := p.take()
	if t.kind != tokIdent {
		p.errf(t.line, t.col, "expected a type, got %q", t.text)
		return il.Void, false
	}
	ty, ok := il.ParseType(t.text)
	if !ok {
		p.errf(t.line, t.col, "unknown type %q", t.text)
		return il.Void, false
	}
	return ty, true
}

func (p *Parser) parseExtern(mod *il.Module) {
	p.take() // "extern"
	if p.peek().kind != tokGlobal {
		t := p.take()
		p.errf(t.line, t.col, "expected @name after extern")
		return
	}
	name := p.take().text
	p.expectPunct("(")
	var params []il.Type
	for p.peek().kind != tokPunct || p.peek().text != ")" {
		ty, ok := p.parseType()
		if !ok {
			return
		}
		params = append(params, ty)
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.take()
		}
	}
	p.expectPunct(")")
	p.expectPunct("->")
	ret, _ := p.parseType()
	mod.Externs = append(mod.Externs, il.Extern{Name: name, ParamTypes: params, ReturnType: ret})
}

func (p *Parser) parseGlobal(mod *il.Module) {
	p.take() // "global"
	isConst := false
	if p.peek().kind == tokIdent && p.peek().text == "const" {
		p.take()
		isConst = true
	}
	ty, _ := p.parseType()
	if p.peek().kind != tokGlobal {
		t := p.take()
		p.errf(t.line, t.col, "expected @name in global declaration")
		return
	}
	name := p.take().text
	p.expectPunct("=")
	init := ""
	if p.peek().kind == tokString {
		init = p.take().text
	}
	mod.Globals = append(mod.Globals, il.Global{Name: name, Type: ty, Const: isConst, Init: init})
}

func (p *Parser) parseFunction(mod *il.Module) {
	p.resetFunctionScope()
	p.take() // "func"
	if p.peek().kind != tokGlobal {
		t := p.take()
		p.errf(t.line, t.col, "expected @name after func")
		return
	}
	name := p.take().text
	p.expectPunct("(")
	var params []il.Param
	for p.peek().kind != tokPunct || p.peek().text != ")" {
		ty, ok := p.parseType()
		if !ok {
			return
		}
		tempTok := p.take()
		if tempTok.kind != tokTemp {
			p.errf(tempTok.line, tempTok.col, "expected %%name after parameter type")
			return
		}
		id := p.internTemp(tempTok.text)
		p.defineTemp(id, ty)
		params = append(params, il.Param{Temp: id, Type: ty})
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.take()
		}
	}
	p.expectPunct(")")
	p.expectPunct("->")
	ret, _ := p.parseType()
	p.expectPunct("{")

	fn := &il.Function{Name: name, Params: params, ReturnType: ret}
	p.curFn = fn
	for !(p.peek().kind == tokPunct && p.peek().text == "}") && p.peek().kind != tokEOF {
		fn.Blocks = append(fn.Blocks, p.parseBlock())
	}
	p.expectPunct("}")
	mod.Functions = append(mod.Functions, fn)
}

func (p *Parser) parseBlock() *il.BasicBlock {
	label, _ := p.expectIdent()
	p.expectPunct(":")
	b := &il.BasicBlock{Label: label}

	if p.peek().kind == tokPunct && p.peek().text == "(" {
		p.take()
		for p.peek().kind != tokPunct || p.peek().text != ")" {
			ty, _ := p.parseType()
			tempTok := p.take()
			id := p.internTemp(tempTok.text)
			p.defineTemp(id, ty)
			b.Params = append(b.Params, il.Param{Temp: id, Type: ty})
			if p.peek().kind == tokPunct && p.peek().text == "," {
				p.take()
			}
		}
		p.expectPunct(")")
	}

	for {
		pk := p.peek()
		if pk.kind == tokEOF {
			break
		}
		if pk.kind == tokIdent {
			// A bare identifier followed by ":" starts the next block;
			// anything else at this position is an instruction opcode.
			save := *p.lex
			saveLook := p.lookahd
			p.take()
			isLabel := p.peek().kind == tokPunct && p.peek().text == ":"
			*p.lex = save
			p.lookahd = saveLook
			if isLabel {
				break
			}
		}
		if pk.kind == tokPunct && pk.text == "}" {
			break
		}
		b.Instrs = append(b.Instrs, p.parseInstr())
	}
	return b
}

// parseOperandValue parses one operand. expected is the type the caller
// already knows this operand position demands (from the opcode's fixed
// signature, a callee's declared parameter, or il.Void when no such hint
// is available, e.g. a branch target not yet parsed). A temp operand
// always resolves to its own recorded type (from tempTypes, populated at
// the temp's definition) regardless of expected, since a temp's type is
// intrinsic to where it was defined, not where it is used; expected only
// fills in for payload kinds — int/null constants — that carry no type
// of their own in the text, and turns an @global in a str position into
// a str constant rather than a ptr address.
func (p *Parser) parseOperandValue(expected il.Type) il.Value {
	t := p.take()
	switch t.kind {
	case tokTemp:
		id := p.internTemp(t.text)
		ty, ok := p.tempTypes[id]
		if !ok {
			ty = expected
			if ty == il.Void {
				ty = il.I64
			}
		}
		return il.TempValue(id, ty)
	case tokInt:
		ty := expected
		if ty == il.Void {
			ty = il.I64
		}
		return il.ConstInt(t.ival, ty)
	case tokFloat:
		return il.ConstFloat(t.fval)
	case tokGlobal:
		if expected == il.Str {
			return il.ConstStr(t.text)
		}
		return il.GlobalAddr(t.text)
	case tokIdent:
		if t.text == "null" {
			ty := expected
			if ty == il.Void {
				ty = il.Ptr
			}
			return il.NullPtr(ty)
		}
	}
	p.errf(t.line, t.col, "unexpected operand %q", t.text)
	return il.Value{}
}

func (p *Parser) parseLabelWithArgs() (string, []il.Value) {
	label, _ := p.expectIdent()
	var args []il.Value
	if p.peek().kind == tokPunct && p.peek().text == "(" {
		p.take()
		for p.peek().kind != tokPunct || p.peek().text != ")" {
			// The target block's parameter types aren't necessarily known
			// yet (forward branches); a temp argument still resolves
			// correctly since it carries its own recorded type.
			args = append(args, p.parseOperandValue(il.Void))
			if p.peek().kind == tokPunct && p.peek().text == "," {
				p.take()
			}
		}
		p.expectPunct(")")
	}
	return label, args
}

func (p *Parser) parseInstr() il.Instr {
	line := p.peek().line
	in := il.Instr{Line: line}

	var resultName string
	if p.peek().kind == tokTemp {
		save := *p.lex
		saveLook := p.lookahd
		resultTok := p.take()
		if p.peek().kind == tokPunct && p.peek().text == "=" {
			p.take()
			resultName = resultTok.text
		} else {
			*p.lex = save
			p.lookahd = saveLook
		}
	}

	opTok, ok := p.expectIdent()
	if !ok {
		return in
	}
	op, known := opcodeByName[opTok]
	if !known {
		p.errf(line, 1, "unknown opcode %q", opTok)
		for !p.atInstrBoundary() {
			p.take()
		}
		return in
	}
	in.Op = op

	if resultName != "" {
		in.HasResult = true
		in.Result = p.internTemp(resultName)
		if sig, ok := op.Signature(); ok {
			in.ResultTy = sig.Result
		}
	}

	switch op {
	case il.OpCall:
		if p.peek().kind != tokGlobal {
			t := p.take()
			p.errf(t.line, t.col, "expected @callee after call")
			return in
		}
		in.Callee = p.take().text
		calleeParams, calleeRet, calleeKnown := p.calleeSignature(in.Callee)
		p.expectPunct("(")
		for p.peek().kind != tokPunct || p.peek().text != ")" {
			idx := len(in.Operands)
			expected := il.Void
			if calleeKnown && idx < len(calleeParams) {
				expected = calleeParams[idx]
			}
			in.Operands = append(in.Operands, p.parseOperandValue(expected))
			if p.peek().kind == tokPunct && p.peek().text == "," {
				p.take()
			}
		}
		p.expectPunct(")")
		if in.HasResult && calleeKnown {
			in.ResultTy = calleeRet
		}

	case il.OpBr:
		label, args := p.parseLabelWithArgs()
		in.Successors = []string{label}
		in.SuccessorArgs = [][]il.Value{args}

	case il.OpCondBr:
		in.Operands = append(in.Operands, p.parseOperandValue(il.I1))
		p.expectPunct(",")
		l1, a1 := p.parseLabelWithArgs()
		p.expectPunct(",")
		l2, a2 := p.parseLabelWithArgs()
		in.Successors = []string{l1, l2}
		in.SuccessorArgs = [][]il.Value{a1, a2}

	case il.OpResumeLabel:
		in.Operands = append(in.Operands, p.parseOperandValue(il.ResumeTok))
		p.expectPunct(",")
		label, args := p.parseLabelWithArgs()
		in.Successors = []string{label}
		in.SuccessorArgs = [][]il.Value{args}

	case il.OpEhPush:
		label, _ := p.expectIdent()
		in.HandlerLabel = label

	case il.OpRet:
		if !p.atInstrBoundary() {
			expected := il.Void
			if p.curFn != nil {
				expected = p.curFn.ReturnType
			}
			in.Operands = append(in.Operands, p.parseOperandValue(expected))
		}

	case il.OpEhPop, il.OpEhEntry, il.OpTrap:
		// No operands.

	default:
		sig, hasSig := op.Signature()
		for !p.atInstrBoundary() {
			expected := il.Void
			if hasSig && len(in.Operands) < len(sig.Operands) {
				expected = sig.Operands[len(in.Operands)]
			}
			in.Operands = append(in.Operands, p.parseOperandValue(expected))
			if p.peek().kind == tokPunct && p.peek().text == "," {
				p.take()
			} else {
				break
			}
		}
	}

	if in.HasResult {
		p.defineTemp(in.Result, in.ResultTy)
	}
	return in
}

// calleeSignature resolves name's parameter/return types from an already
// parsed extern or intra-module function declaration. Only declarations
// that precede this call in the text are visible; a forward call to a
// function declared later in the same module falls back to ok=false
// (expected types default to il.Void at each operand position).
func (p *Parser) calleeSignature(name string) ([]il.Type, il.Type, bool) {
	if p.mod == nil {
		return nil, il.Void, false
	}
	if ext, ok := p.mod.FindExtern(name); ok {
		return ext.ParamTypes, ext.ReturnType, true
	}
	if fn, ok := p.mod.FindFunction(name); ok {
		params := make([]il.Type, len(fn.Params))
		for i, pm := range fn.Params {
			params[i] = pm.Type
		}
		return params, fn.ReturnType, true
	}
	if p.curFn != nil && p.curFn.Name == name {
		params := make([]il.Type, len(p.curFn.Params))
		for i, pm := range p.curFn.Params {
			params[i] = pm.Type
		}
		return params, p.curFn.ReturnType, true
	}
	return nil, il.Void, false
}

// atInstrBoundary reports whether the next token cannot begin an operand,
// i.e. the current instruction's operand list has ended.
func (p *Parser) atInstrBoundary() bool {
	t := p.peek()
	if t.kind == tokEOF {
		return true
	}
	if t.kind == tokPunct && t.text == "}" {
		return true
	}
	if t.kind == tokIdent && t.text != "null" {
		// Could be the next instruction's opcode or a block label.
		return true
	}
	return false
}

var opcodeByName map[string]il.Opcode

func init() {
	opcodeByName = make(map[string]il.Opcode)
	for op := il.Opcode(0); ; op++ {
		name := op.String()
		if name != "UNKNOWN" {
			opcodeByName[name] = op
		}
		if op == 255 {
			break
		}
	}
}
