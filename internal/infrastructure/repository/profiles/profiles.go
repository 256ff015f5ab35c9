// Package profiles resolves public business IDs for the entity kinds that
// own media. Each kind maps to one lookup registered at startup; the tables
// themselves belong to the platform, this package only reads their public
// identifier column.
package profiles

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/propside/media-service/internal/domain/entity"
)

var kindTables = map[entity.Kind]string{
	entity.KindUser:      "users",
	entity.KindBuilder:   "builders",
	entity.KindCommunity: "communities",
	entity.KindProperty:  "properties",
}

// NewResolver builds an entity resolver with one database-backed lookup per
// known kind.
func NewResolver(db *gorm.DB) *entity.Resolver {
	resolver := entity.NewResolver()
	for kind, table := range kindTables {
		resolver.Register(kind, lookup(db, table))
	}
	return resolver
}

func lookup(db *gorm.DB, table string) entity.ProfileLookup {
	return func(ctx context.Context, id int64) (string, error) {
		var publicID string
		err := db.WithContext(ctx).
			Table(table).
			Select("public_id").
			Where("id = ?", id).
			Scan(&publicID).Error
		if err != nil {
			return "", fmt.Errorf("lookup %s profile: %w", table, err)
		}
		if publicID == "" {
			return "", fmt.Errorf("%s row %d not found", table, id)
		}
		return publicID, nil
	}
}
