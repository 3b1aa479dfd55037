package plugin

import "github.com/sonia-oph/fragreshape/internal/ophierr"

// NewBuiltinTable constructs the process-wide built-in function
// table. It is initialized once before the first query and is
// read-only afterward.
//
// oph_id_to_index and oph_id are grounded on the original server's
// core_id_to_index helper (original_source/src/query_engine).
func NewBuiltinTable() *Table {
	t := NewTable()

	t.Register(Record{
		Name:    "oph_id_to_index",
		FunType: Fixed,
		Arity:   2,
		Call: func(first bool, args Args) (float64, error) {
			id := int64(args[0])
			dimSize := int64(args[1])
			if dimSize <= 0 {
				return 0, ophierr.New(ophierr.PluginError, "oph_id_to_index: dimsize must be positive")
			}
			return float64(id % dimSize), nil
		},
	})

	t.Register(Record{
		Name:    "oph_id",
		FunType: Fixed,
		Arity:   2,
		Call: func(first bool, args Args) (float64, error) {
			id := int64(args[0])
			index := int64(args[1])
			return float64(id + index), nil
		},
	})

	return t
}
