package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEveryCollectionHasValidatorAndIndexes(t *testing.T) {
	names := CollectionNames()
	require.Len(t, names, len(collections))

	for _, name := range names {
		def, ok := collections[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, def.Indexes, name)

		schema, ok := def.Validator["$jsonSchema"].(bson.M)
		require.True(t, ok, name)
		assert.Contains(t, schema["required"], "created_at", name)
	}
}

func TestUniqueIndexes(t *testing.T) {
	email := UsersIndexes[0]
	require.NotNil(t, email.Options)
	require.NotNil(t, email.Options.Unique)
	assert.True(t, *email.Options.Unique)

	name := CategoriesIndexes[0]
	require.NotNil(t, name.Options)
	require.NotNil(t, name.Options.Unique)
	assert.True(t, *name.Options.Unique)
	require.NotNil(t, name.Options.Collation)
	assert.Equal(t, 2, name.Options.Collation.Strength)
}
