package il

// Extern declares a native helper the VM can call by symbol, with its
// parameter and return types.
type Extern struct {
	Name       string
	ParamTypes []Type
	ReturnType Type
}

// Global is a module-level declaration. For Str-initialized globals,
// Init holds the initializer byte string; Const marks it immutable.
type Global struct {
	Name  string
	Type  Type
	Const bool
	Init  string
}

// Module owns every top-level declaration: externs, globals, and
// functions, each in declaration order.
type Module struct {
	Externs   []Extern
	Globals   []Global
	Functions []*Function
}

// NewModule returns an empty module ready for incremental construction.
func NewModule() *Module {
	return &Module{}
}

// FindExtern looks up an extern by symbol name.
func (m *Module) FindExtern(name string) (Extern, bool) {
	for _, e := range m.Externs {
		if e.Name == name {
			return e, true
		}
	}
	return Extern{}, false
}

// FindGlobal looks up a global by name.
func (m *Module) FindGlobal(name string) (Global, bool) {
	for _, g := range m.Globals {
		if g.Name == name {
			return g, true
		}
	}
	return Global{}, false
}

// FindFunction looks up a function by name.
func (m *Module) FindFunction(name string) (*Function, bool) {
	for _, f := range m.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
