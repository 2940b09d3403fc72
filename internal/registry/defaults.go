package registry

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/patterngridgo/internal/config"
)

// DefaultParams builds the parameter set a freshly created node of the
// given modifier type starts with: the modifier name under the reserved
// key, plus every declared parameter's default. Parameters without a
// default appear as typed nulls so editors can render the full schema.
func (r *Registry) DefaultParams(name string) (map[string]cty.Value, bool) {
	def, ok := r.DefinitionRegistry[name]
	if !ok {
		return nil, false
	}

	params := make(map[string]cty.Value, len(def.Params)+1)
	params[config.ModifierKey] = cty.StringVal(def.Type)
	for pname, pd := range def.Params {
		if pd.Default != nil {
			params[pname] = *pd.Default
		} else {
			params[pname] = cty.NullVal(pd.Type)
		}
	}
	return params, true
}
