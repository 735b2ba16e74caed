package graphs

import (
	"database/sql"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// offlineDB builds queries without ever opening a connection.
func offlineDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open("pgx", "postgres://localhost:1/unused")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStyleRefUpdate(t *testing.T) {
	db := offlineDB(t)

	t.Run("clearing sets NULL", func(t *testing.T) {
		for _, model := range []any{(*Node)(nil), (*Subgraph)(nil)} {
			query := styleRefUpdate(db, model, 7, "hot", nil).String()
			assert.Contains(t, query, "style_ref = NULL")
			assert.Contains(t, query, "graph_id = 7")
			assert.Contains(t, query, "style_ref = 'hot'")
		}
	})

	t.Run("renaming sets the new name", func(t *testing.T) {
		warm := "warm"
		query := styleRefUpdate(db, (*Node)(nil), 7, "hot", &warm).String()
		assert.Contains(t, query, "nodes")
		assert.Contains(t, query, "style_ref = 'warm'")
		assert.Contains(t, query, "style_ref = 'hot'")
	})
}
