package openapi

import (
	"github.com/vitalvas/oaspec/mux"
)

// pathParameters renders the path parameters of a route pattern in order
// of first occurrence. A placeholder inside an optional group is not
// required; a constrained placeholder carries its pattern.
//
// See: https://spec.openapis.org/oas/v3.0.2#parameter-object
func pathParameters(p *mux.Pattern) []any {
	vars := p.Vars()
	if len(vars) == 0 {
		return nil
	}

	params := make([]any, 0, len(vars))
	for _, v := range vars {
		param := NewTree()
		param.Set("name", v.Name)
		param.Set("in", "path")
		param.Set("required", !v.Optional)
		if v.Pattern != "" {
			schema := NewTree()
			schema.Set("pattern", v.Pattern)
			schema.Set("type", TypeString)
			param.Set("schema", schema)
		}
		params = append(params, param)
	}

	return params
}
