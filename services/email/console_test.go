package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atuch/dojang/core"
)

func TestConsoleService_format(t *testing.T) {
	conf := &core.Config{AppName: "ATUCH", DefaultFromEmail: mail.Address{Name: "ATUCH", Address: "noreply@atuch.cl"}}
	svc := NewServiceMock(conf)

	msg := core.EmailMessage{
		To:          []mail.Address{{Name: "Ana", Address: "ana@atuch.cl"}, {Address: "beto@atuch.cl"}},
		Cc:          []mail.Address{{Address: "sede@atuch.cl"}},
		Subject:     "Hola",
		TextContent: "texto",
		HTMLContent: "<p>html</p>",
	}
	body, err := svc.format(msg)
	require.NoError(t, err)

	assert.Contains(t, body, "From: \"ATUCH\" <noreply@atuch.cl>\r\n")
	assert.Contains(t, body, "Subject: [ATUCH] Hola\r\n")
	assert.Contains(t, body, "To: \"Ana\" <ana@atuch.cl>, <beto@atuch.cl>\r\n")
	assert.Contains(t, body, "CC: <sede@atuch.cl>\r\n")
	assert.NotContains(t, body, "BCC:")
	assert.Contains(t, body, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, body, "text/plain; charset=utf-8")
	assert.Contains(t, body, "<p>html</p>")
	assert.Less(t, strings.Index(body, "texto"), strings.Index(body, "<p>html</p>"))
}

func TestServiceMock(t *testing.T) {
	svc := NewServiceMock(&core.Config{AppName: "ATUCH"})

	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "ana@atuch.cl"}}, BodyStr: "hola"},
		&core.EmailMessage{BodyStr: "sin destinatario"},
	)
	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "hola", sent[0].TextContent)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}
