package doctor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type mockRepo struct {
	items map[uuid.UUID]*Doctor
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockRepo) List(_ context.Context, limit int) ([]*Doctor, error) {
	var out []*Doctor
	for _, d := range m.items {
		out = append(out, d)
	}
	return out, nil
}

func TestGetDoctor(t *testing.T) {
	id := uuid.New()
	spec := "Cardiology"
	h := NewHandler(&mockRepo{items: map[uuid.UUID]*Doctor{
		id: {ID: id, TenantID: "clinic_a", FirstName: "Meera", Specialization: &spec},
	}})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got Doctor
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.FirstName != "Meera" {
		t.Errorf("first_name = %q, want Meera", got.FirstName)
	}
}

func TestGetDoctorNotFound(t *testing.T) {
	h := NewHandler(&mockRepo{items: map[uuid.UUID]*Doctor{}})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.Get(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("err = %v, want 404 HTTPError", err)
	}
}

func TestGetDoctorBadID(t *testing.T) {
	h := NewHandler(&mockRepo{items: map[uuid.UUID]*Doctor{}})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.Get(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("err = %v, want 400 HTTPError", err)
	}
}
