package billing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/sharelink"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	signer := sharelink.NewHMACSigner("test-key", time.Hour)
	h := NewHandler(f.svc, signer, signer)
	return h, f, echo.New()
}

func TestCreateInvoiceHandler(t *testing.T) {
	h, f, e := newTestHandler()

	body := `{"patient_id":"` + f.patient.String() + `","items":[{"service_id":"` + f.consult.String() + `","qty":2}],"discount":50,"tax":36}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var got Invoice
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != StatusUnpaid {
		t.Errorf("status = %s, want UNPAID", got.Status)
	}
	if !got.Total.Equal(dec("986")) {
		t.Errorf("total = %s, want 986", got.Total)
	}
}

func TestCreateInvoiceHandlerRejectsEmptyItems(t *testing.T) {
	h, f, e := newTestHandler()

	body := `{"patient_id":"` + f.patient.String() + `","items":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Create(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("err = %v, want 400 HTTPError", err)
	}
}

func TestShareLinkAndPublicView(t *testing.T) {
	h, f, e := newTestHandler()
	inv := issueTestInvoice(t, f)

	// Issue the link.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(inv.ID.String())
	if err := h.ShareLink(c); err != nil {
		t.Fatalf("ShareLink: %v", err)
	}
	var link struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &link); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if link.Token == "" {
		t.Fatal("empty token")
	}

	// View through the link without tenant headers.
	req = httptest.NewRequest(http.MethodGet, "/public/invoices/view?token="+link.Token, nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := h.PublicView(c); err != nil {
		t.Fatalf("PublicView: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got Invoice
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != inv.ID {
		t.Errorf("returned invoice %s, want %s", got.ID, inv.ID)
	}
}

func TestPublicViewRejectsBadToken(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/public/invoices/view?token=garbage", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.PublicView(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("err = %v, want 401 HTTPError", err)
	}
}

func TestRecordPaymentHandler(t *testing.T) {
	h, f, e := newTestHandler()
	inv := issueTestInvoice(t, f)

	body := `{"amount":500,"mode":"CASH"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(inv.ID.String())

	if err := h.RecordPayment(c); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var p Payment
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Mode != ModeCash {
		t.Errorf("mode = %s, want CASH", p.Mode)
	}
}
