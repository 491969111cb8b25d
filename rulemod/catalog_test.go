package rulemod

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupField(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	spec, err := LookupField(CategoryContentAnalysis, "spam_score")
	require.NoError(err)
	assert.Equal(FieldNumber, spec.Type)
	assert.Equal("content_analysis.spam_score", spec.FQN())
	assert.True(spec.UnknownWhenMissing)
	require.NotNil(spec.Max)
	assert.Equal(100.0, *spec.Max)

	spec, err = LookupField(CategoryUserReputation, "level")
	require.NoError(err)
	assert.Equal(FieldString, spec.Type)
	assert.Contains(spec.Enum, "trusted")
	assert.Equal("new", spec.DefaultStr)

	_, err = LookupField(CategoryContentAnalysis, "sentiment_score")
	require.Error(err)
	var ufe *UnknownFieldError
	assert.True(errors.As(err, &ufe))
	assert.Equal("sentiment_score", ufe.Field)

	// name valid in another category does not leak across categories
	_, err = LookupField(CategoryUserHistory, "spam_score")
	assert.Error(err)
}

func TestCatalogCoversAllCategories(t *testing.T) {
	assert := assert.New(t)

	byCategory := make(map[FieldCategory]int)
	for _, spec := range CatalogFields() {
		byCategory[spec.Category]++
	}
	for _, cat := range FieldCategories {
		assert.Greater(byCategory[cat], 0, "category %s has no fields", cat)
	}
}
