package utils

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	item := map[string]types.AttributeValue{
		"owner":   &types.AttributeValueMemberS{Value: "abc"},
		"expires": &types.AttributeValueMemberN{Value: "1760875200"},
		"ratio":   &types.AttributeValueMemberN{Value: "0.5"},
	}
	assert.Equal(t, "abc", ExtractString(item, "owner"))
	assert.Equal(t, "", ExtractString(item, "expires"))
	assert.Equal(t, "", ExtractString(nil, "owner"))
	assert.Equal(t, int64(1760875200), ExtractInt(item, "expires"))
	assert.Equal(t, int64(0), ExtractInt(item, "ratio"))
	assert.Equal(t, int64(0), ExtractInt(item, "owner"))
}
