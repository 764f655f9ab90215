package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, body string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestParseInt64Param(t *testing.T) {
	c := newTestContext(t, "")
	c.SetParamNames("product_id")
	c.SetParamValues("42")

	value, err := ParseInt64Param(c, "product_id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)
}

func TestParseInt64Param_Invalid(t *testing.T) {
	c := newTestContext(t, "")
	c.SetParamNames("product_id")
	c.SetParamValues("banana")

	_, err := ParseInt64Param(c, "product_id")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestParseInt64Param_Missing(t *testing.T) {
	c := newTestContext(t, "")

	_, err := ParseInt64Param(c, "product_id")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestBindAndValidate(t *testing.T) {
	c := newTestContext(t, `{"customer_id":"c1","product_id":42,"quantity":2}`)

	var req CreatePurchaseRequest
	require.NoError(t, BindAndValidate(c, &req))
	assert.Equal(t, "c1", req.CustomerID)
	assert.Equal(t, int64(42), req.ProductID)
	assert.Equal(t, int64(2), req.Quantity)
}

func TestBindAndValidate_RejectsMissingFields(t *testing.T) {
	c := newTestContext(t, `{"product_id":42}`)

	var req CreatePurchaseRequest
	err := BindAndValidate(c, &req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestBindAndValidate_RejectsNonPositiveQuantity(t *testing.T) {
	c := newTestContext(t, `{"customer_id":"c1","product_id":42,"quantity":0}`)

	var req CreatePurchaseRequest
	err := BindAndValidate(c, &req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestBindAndValidate_RejectsBadEmail(t *testing.T) {
	c := newTestContext(t, `{"customer_id":"c1","name":"Alice","phone":"555","email":"not-an-email"}`)

	var req CreateCustomerRequest
	err := BindAndValidate(c, &req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}
