package expr

// SymbolTable is the per-query, single-writer table of user
// variables the evaluator resolves VarNode references against.
// Functions are resolved through plugin.Table, not here.
type SymbolTable struct {
	vars map[string]Value
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{vars: make(map[string]Value)}
}

// Set binds name to v, overwriting any prior binding.
func (s *SymbolTable) Set(name string, v Value) {
	s.vars[name] = v
}

// Get resolves name, reporting whether it was bound.
func (s *SymbolTable) Get(name string) (Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// GetVariables returns every distinct variable name referenced in
// ast, so the query layer can bind them before evaluation.
func GetVariables(ast Node) []string {
	seen := map[string]bool{}
	var names []string
	Walk(ast, func(n Node) {
		if v, ok := n.(*VarNode); ok && !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
	})
	return names
}
