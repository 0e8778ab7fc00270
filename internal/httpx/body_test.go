package httpx_test

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/huxley-dev/account-be/internal/httpx"
	"github.com/stretchr/testify/require"
)

func TestParseBodyJSON(t *testing.T) {
	t.Parallel()

	raw := `{"firstName":"Ada","active":true,"age":36,"address":{"city":"London","postalCode":"E1"}}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	body, err := httpx.ParseBody(req)
	require.NoError(t, err)

	v, ok := body.Get("firstName")
	require.True(t, ok)
	require.Equal(t, "Ada", v)

	v, ok = body.Get("address.city")
	require.True(t, ok)
	require.Equal(t, "London", v)

	v, _ = body.Get("active")
	require.Equal(t, "true", v)

	v, _ = body.Get("age")
	require.Equal(t, "36", v)

	_, ok = body.Get("missing")
	require.False(t, ok)
}

func TestParseBodyEmptyAndMalformed(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/json")
	body, err := httpx.ParseBody(req)
	require.NoError(t, err)
	_, ok := body.Get("anything")
	require.False(t, ok)

	req = httptest.NewRequest("POST", "/", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	_, err = httpx.ParseBody(req)
	require.ErrorIs(t, err, httpx.ErrMalformedBody)
}

func TestParseBodyMultipart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("firstName", "Ada"))
	require.NoError(t, w.WriteField("address.country", "UK"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, err := httpx.ParseBody(req)
	require.NoError(t, err)

	v, ok := body.Get("address.country")
	require.True(t, ok)
	require.Equal(t, "UK", v)
}

func TestParseBodyURLEncoded(t *testing.T) {
	t.Parallel()

	form := url.Values{"email": {"ada@example.com"}}
	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := httpx.ParseBody(req)
	require.NoError(t, err)

	v, ok := body.Get("email")
	require.True(t, ok)
	require.Equal(t, "ada@example.com", v)
}
