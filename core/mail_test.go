package core

import (
	"io/fs"
	"net/mail"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appfs "github.com/atuch/dojang/fs"
)

func Test_parseTemplates(t *testing.T) {
	ParseEmailTemplates(&Config{AppName: "ATUCH", TestMode: true}, nil)

	for _, base := range []string{"_base.txt", "_base.gohtml"} {
		_, err := fs.Stat(appfs.FS, path.Join(emailTemplatesDir, base))
		assert.NoError(t, err, base)
	}

	for _, name := range []string{"password_reset", "pago_recibo"} {
		t.Run(name, func(t *testing.T) {
			entry, ok := templates[name]
			require.True(t, ok)
			assert.Contains(t, entry, ".txt")
			assert.Contains(t, entry, ".gohtml")
		})
	}
}

func TestEmailMessage_Render(t *testing.T) {
	ParseEmailTemplates(&Config{AppName: "ATUCH", FrontendBaseURL: "http://localhost:3000", TestMode: true}, nil)

	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{To: []mail.Address{{Address: "ana@atuch.cl"}}, BodyStr: "hola"}
		require.NoError(t, msg.Render())
		assert.Equal(t, "hola", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
		assert.True(t, msg.HasRecipients())
		assert.True(t, msg.HasContent())
	})

	t.Run("template", func(t *testing.T) {
		msg := &EmailMessage{
			TemplateName: "password_reset",
			TemplateData: map[string]string{"Email": "ana@atuch.cl", "UID": "dWlk", "Token": "abc-def"},
		}
		require.NoError(t, msg.Render())
		assert.Contains(t, msg.TextContent, "Hola ana@atuch.cl")
		assert.Contains(t, msg.TextContent, "http://localhost:3000/password-reset/dWlk/abc-def")
		assert.Contains(t, msg.HTMLContent, "ana@atuch.cl")
		assert.Contains(t, msg.TextContent, "Asociación de Taekwon-Do Unificado de Chile")
		assert.Contains(t, msg.HTMLContent, "<!DOCTYPE html>")
		assert.False(t, msg.HasRecipients())
	})

	t.Run("missing key", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "pago_recibo", TemplateData: map[string]string{"Nombre": "Ana"}}
		assert.Error(t, msg.Render())
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "nope"}
		assert.Error(t, msg.Render())
	})
}
