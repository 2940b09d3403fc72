package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/vk/patterngridgo/internal/ctxlog"
	"github.com/vk/patterngridgo/internal/graphdoc"
)

// modifierInfo is one catalogue entry: enough schema for an editor to draw
// a palette entry and a parameter form.
type modifierInfo struct {
	Type        string                     `json:"type"`
	Description string                     `json:"description,omitempty"`
	Positional  *positionalInfo            `json:"positional,omitempty"`
	Inputs      []inputInfo                `json:"inputs,omitempty"`
	Params      []paramInfo                `json:"params,omitempty"`
	Defaults    map[string]json.RawMessage `json:"defaults,omitempty"`
}

type positionalInfo struct {
	MinCount int    `json:"min_count"`
	Label    string `json:"label,omitempty"`
}

type inputInfo struct {
	Key      string `json:"key"`
	Label    string `json:"label,omitempty"`
	Required bool   `json:"required"`
}

type paramInfo struct {
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Label       string          `json:"label,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Description string          `json:"description,omitempty"`
	Nullable    bool            `json:"nullable,omitempty"`
	Default     json.RawMessage `json:"default,omitempty"`
	Min         json.RawMessage `json:"min,omitempty"`
	Max         json.RawMessage `json:"max,omitempty"`
	Step        json.RawMessage `json:"step,omitempty"`
}

func (s *Server) handleModifiers(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(r.Context())

	catalogue := make([]modifierInfo, 0, len(s.registry.DefinitionRegistry))
	for _, name := range s.registry.DefinitionNames() {
		def, _ := s.registry.Definition(name)

		info := modifierInfo{
			Type:        def.Type,
			Description: def.Description,
		}
		if def.Positional != nil {
			info.Positional = &positionalInfo{
				MinCount: def.Positional.MinCount,
				Label:    def.Positional.Label,
			}
		}

		for _, in := range def.Inputs {
			info.Inputs = append(info.Inputs, inputInfo{
				Key:      in.Key,
				Label:    in.Label,
				Required: in.Required,
			})
		}
		sort.Slice(info.Inputs, func(i, j int) bool { return info.Inputs[i].Key < info.Inputs[j].Key })

		for _, pd := range def.Params {
			pi := paramInfo{
				Name:        pd.Name,
				Kind:        string(pd.Kind),
				Label:       pd.Label,
				Unit:        pd.Unit,
				Description: pd.Description,
				Nullable:    pd.Nullable,
			}
			if pd.Default != nil {
				pi.Default, _ = graphdoc.EncodeValue(*pd.Default)
			}
			if pd.Min != nil {
				pi.Min, _ = graphdoc.EncodeValue(*pd.Min)
			}
			if pd.Max != nil {
				pi.Max, _ = graphdoc.EncodeValue(*pd.Max)
			}
			if pd.Step != nil {
				pi.Step, _ = graphdoc.EncodeValue(*pd.Step)
			}
			info.Params = append(info.Params, pi)
		}
		sort.Slice(info.Params, func(i, j int) bool { return info.Params[i].Name < info.Params[j].Name })

		if defaults, ok := s.registry.DefaultParams(name); ok {
			encoded, err := graphdoc.EncodeParams(defaults)
			if err != nil {
				logger.Warn("Skipping defaults for modifier with unencodable values.",
					"modifier", name, "error", err)
			} else {
				info.Defaults = encoded
			}
		}

		catalogue = append(catalogue, info)
	}

	writeJSON(w, http.StatusOK, catalogue)
}
