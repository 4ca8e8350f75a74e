package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	txt, err := r.Render("item_reserved", map[string]string{"item_name": "Lego"}, "en")
	require.NoError(t, err)
	assert.Equal(t, "Item reserved", txt.Title)
	assert.Equal(t, "Someone reserved Lego from your wishlist.", txt.Message)

	txt, err = r.Render("reservation_expired", map[string]string{"item_name": "Lego"}, "es-MX")
	require.NoError(t, err)
	assert.Equal(t, "Tu reserva de Lego ha vencido.", txt.Message)
}

func TestRenderer_FallsBackToDefaultLocale(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	txt, err := r.Render("event_reminder", map[string]string{"event_title": "Birthday", "event_date": "2026-05-01"}, "fr")
	require.NoError(t, err)
	assert.Equal(t, "Birthday is on 2026-05-01.", txt.Message)
}

func TestRenderer_Errors(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render("no_such_key", nil, "en")
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = r.Render("item_reserved", map[string]string{}, "en")
	assert.Error(t, err)
}

func TestCatalogsDefineSameKeys(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	require.Contains(t, r.catalogs, "es")
	for key := range r.catalogs[DefaultLocale] {
		assert.Contains(t, r.catalogs["es"], key)
	}
}
