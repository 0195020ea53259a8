package validators

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

type signupBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"secret1","confirmPassword":"secret1"}`))
	var body signupBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "a@b.co", body.Email)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","password":"123"}`))
	err := DecodeJSONBody(req, &signupBody{})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"email": "must be a valid email", "password": "must be at least 6"}, typed.Details())

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.True(t, pkgerrors.Is(DecodeJSONBody(req, &signupBody{}), pkgerrors.CodeValidation))
}

func TestParsePaginationClamps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=0&limit=500", nil)
	p, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.Limit)

	req = httptest.NewRequest(http.MethodGet, "/?page=two", nil)
	_, err = ParsePagination(req)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestURLParamUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	_, err := URLParamUUID(req, "id")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestMultipartFiles(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("data", `{"email":"a@b.co","password":"secret1"}`))
	for _, name := range []string{"a.png", "b.png"} {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="images"; filename="`+name+`"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write([]byte("png"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.True(t, IsMultipart(req))

	form, err := ParseMultipart(httptest.NewRecorder(), req, 10, 0)
	require.NoError(t, err)
	defer form.Close()

	var body signupBody
	require.NoError(t, DecodeJSONString(form.Value("data"), &body))
	assert.Equal(t, "a@b.co", body.Email)

	uploads, err := form.Files("images", 10)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "image/png", uploads[0].ContentType)
	content, err := io.ReadAll(uploads[1].Body)
	require.NoError(t, err)
	assert.Equal(t, "png", string(content))

	_, err = form.Files("images", 1)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
