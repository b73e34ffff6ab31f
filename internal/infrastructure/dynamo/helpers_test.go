package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrKey(t *testing.T) {
	key := strKey("email", "a@x.com")
	require.Len(t, key, 1)
	s, ok := key["email"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", s.Value)
}

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"enable": false})
	require.NoError(t, err)

	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "enable"}, ue.Names)
	b, ok := ue.Values[":v0"].(*types.AttributeValueMemberBOOL)
	require.True(t, ok)
	assert.False(t, b.Value)
}

func TestBuildUpdateExpr_SortedAndDeterministic(t *testing.T) {
	updates := map[string]interface{}{
		"refresh_token": "tok",
		"enable":        true,
		"updated_at":    "2026-01-01T00:00:00Z",
	}

	first, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	second, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", first.Expr)
	assert.Equal(t, "enable", first.Names["#f0"])
	assert.Equal(t, "refresh_token", first.Names["#f1"])
	assert.Equal(t, "updated_at", first.Names["#f2"])
	assert.Equal(t, first, second)
}

func TestBuildUpdateExpr_MarshalsValues(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"failed_attempts": 3})
	require.NoError(t, err)

	n, ok := ue.Values[":v0"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "3", n.Value)
}

func TestBuildUpdateExpr_EmptyInput(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.Error(t, err)
}
