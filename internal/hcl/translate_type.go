// This file contains the logic for parsing manifest type keywords (e.g.
// `int`, `rational`) into their corresponding parameter kinds.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/ctxlog"
)

// typeExprToKind converts an HCL type expression into its ParamKind
// equivalent. Only bare keywords are accepted; parameters have no
// collection types.
func typeExprToKind(ctx context.Context, expr hcl.Expression) (config.ParamKind, error) {
	logger := ctxlog.FromContext(ctx)

	if expr == nil {
		return "", fmt.Errorf("type is required")
	}

	switch v := expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return "", fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		rootName := v.Traversal.RootName()
		logger.Debug("Parsing type expression as a keyword.", "keyword", rootName)
		return config.ParseKind(rootName)

	default:
		return "", fmt.Errorf("unsupported expression for type definition: %T", v)
	}
}
