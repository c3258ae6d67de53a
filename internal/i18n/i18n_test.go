// internal/i18n/i18n_test.go
package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslations(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, "Artwork not found", T("en", KeyListingNotFound))
	assert.Equal(t, "找不到作品", T("zh_TW", KeyListingNotFound))
	assert.Equal(t, "Invalid input", T("en", KeyValidationInvalid, "input"))

	// unknown language falls back to English, unknown key echoes the key
	assert.Equal(t, "Bid accepted", T("fr", KeyOfferAccepted))
	assert.Equal(t, "no.such.key", T("en", "no.such.key"))

	assert.True(t, IsSupported("zh_TW"))
	assert.False(t, IsSupported("fr"))
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	require.NoError(t, Initialize())

	instance.mu.RLock()
	defer instance.mu.RUnlock()

	en := instance.translations["en"]
	zh := instance.translations["zh_TW"]
	require.NotEmpty(t, en)
	for key := range en {
		_, ok := zh[key]
		assert.True(t, ok, "zh_TW is missing %s", key)
	}
}
