package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalog(t *testing.T) {
	t.Parallel()

	b, err := Default()
	require.NoError(t, err)
	require.Equal(t, []string{"en-US", "es-ES"}, b.Locales())

	t.Run("base locale", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "Incorrect email or password.", b.Text("en-US", "errors.LOGIN_BAD_CREDENTIALS"))
		require.Equal(t, "Your account was updated.", b.Text("en-US", "account.update.success"))
	})

	t.Run("translated locale with arguments", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "Espera 30 segundos antes de volver a intentarlo.", b.Text("es-ES", "auth.cooldown", 30))
		require.Equal(t, "Salsa está completa. Eres el número 2 en la lista de espera.", b.Text("es", "enrollment.waitlisted", "Salsa", 2))
	})

	t.Run("missing translation falls back to base", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "Cookie preferences saved.", b.Text("es-ES", "consent.accepted"))
		require.Equal(t, "The password does not meet the requirements.", b.Text("es-ES", "errors.UPDATE_USER_INVALID_PASSWORD"))
	})

	t.Run("unknown locale uses base", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "en-US", b.Match("fr-FR").String())
		require.Equal(t, "en-US", b.Match("").String())
		require.Equal(t, "es-ES", b.Match("es-AR,es;q=0.9").String())
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()
		require.False(t, b.Has("errors.NOPE"))
		require.Equal(t, "errors.NOPE", b.Text("en-US", "errors.NOPE"))
	})
}

func TestLoadFromFSValidation(t *testing.T) {
	t.Parallel()

	file := func(body string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(body)} }

	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"empty", fstest.MapFS{}},
		{"missing base", fstest.MapFS{
			"locales/es-ES/errors.yaml": file("locale: es-ES\nnamespace: errors\nmessages:\n  errors.X: \"x\"\n"),
		}},
		{"locale mismatch", fstest.MapFS{
			"locales/en-US/errors.yaml": file("locale: en-GB\nnamespace: errors\nmessages:\n  errors.X: \"x\"\n"),
		}},
		{"namespace mismatch", fstest.MapFS{
			"locales/en-US/errors.yaml": file("locale: en-US\nnamespace: other\nmessages:\n  errors.X: \"x\"\n"),
		}},
		{"duplicate key", fstest.MapFS{
			"locales/en-US/a.yaml": file("locale: en-US\nnamespace: a\nmessages:\n  k: \"x\"\n"),
			"locales/en-US/b.yaml": file("locale: en-US\nnamespace: b\nmessages:\n  k: \"y\"\n"),
		}},
		{"bad yaml", fstest.MapFS{
			"locales/en-US/a.yaml": file("locale: [\n"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadFromFS(tt.fsys)
			require.Error(t, err)
		})
	}
}
