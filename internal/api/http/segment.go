package http

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/segmetric/segmetric/internal/audience"
	"github.com/segmetric/segmetric/internal/catalog"
	segerrors "github.com/segmetric/segmetric/internal/errors"
	"github.com/segmetric/segmetric/pkg/types"
)

// resolveSegment narrows tbl to the requested segment. A named audience
// is looked up first among the built-in definitions, then among saved
// ones; ad-hoc rules apply on top of the audience's own rules.
func resolveSegment(ctx context.Context, cat catalog.Catalog, tbl *types.Table, audienceName string, rules []audience.Rule) (*types.Table, error) {
	if audienceName != "" {
		def, ok := audience.ByName(audienceName)
		if !ok {
			saved, err := cat.GetAudience(ctx, audienceName)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, segerrors.NewValidationError(segerrors.CodeInvalidRule,
						fmt.Sprintf("unknown audience: %s", audienceName))
				}
				return nil, err
			}
			def = *saved
		}

		var err error
		tbl, err = audience.Apply(tbl, def.Rules)
		if err != nil {
			return nil, err
		}
	}

	if len(rules) > 0 {
		var err error
		tbl, err = audience.Apply(tbl, rules)
		if err != nil {
			return nil, err
		}
	}

	return tbl, nil
}
