package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken(t *testing.T) {
	first, err := GenerateAccessToken()
	require.NoError(t, err)
	second, err := GenerateAccessToken()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "=")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "tech-summit-2026", Slugify("Tech Summit 2026"))
	assert.Equal(t, "sao-paulo-expo", Slugify("São Paulo Expo"))
	assert.Equal(t, "feira-de-negocios", Slugify("  Feira de Negócios!  "))
	assert.Equal(t, "", Slugify("!!!"))
}
