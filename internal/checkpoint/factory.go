package checkpoint

import (
	"fmt"
	"path/filepath"
)

// DefaultSQLiteFile is used when the sqlite backend has no explicit path.
const DefaultSQLiteFile = "campaign.db"

// NewStore creates the backend named by kind. Call Init before use.
func NewStore(kind, resultDir, sqlitePath string) (Store, error) {
	switch kind {
	case "", "file":
		return NewFileStore(resultDir), nil
	case "sqlite":
		if sqlitePath == "" {
			sqlitePath = filepath.Join(resultDir, DefaultSQLiteFile)
		}
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, kind)
	}
}
