package billing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/sharelink"
	"github.com/hms/hms/pkg/money"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc    *Service
	links  sharelink.Signer
	verify sharelink.Verifier
}

func NewHandler(svc *Service, links sharelink.Signer, verify sharelink.Verifier) *Handler {
	return &Handler{svc: svc, links: links, verify: verify}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/invoices", h.Create)
	api.GET("/invoices", h.List)
	api.GET("/invoices/:id", h.Get)
	api.GET("/invoices/:id/link", h.ShareLink)
	api.POST("/invoices/:id/payments", h.RecordPayment)
	api.GET("/invoices/:id/payments", h.ListPayments)
	api.GET("/invoices/:id/entries", h.ListEntries)
}

// RegisterPublicRoutes mounts the token-authenticated invoice view outside
// the tenant-scoped API group.
func (h *Handler) RegisterPublicRoutes(e *echo.Echo) {
	e.GET("/public/invoices/view", h.PublicView)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInvoiceInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inv, err := h.svc.CreateInvoice(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListInvoices(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// ShareLink issues a signed token granting read access to one invoice.
func (h *Handler) ShareLink(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	inv, err := h.svc.GetInvoice(ctx, id)
	if err != nil {
		return mapError(err)
	}
	token, err := h.links.SignInvoiceLink(inv.ID.String(), inv.TenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

// PublicView serves an invoice to the bearer of a valid share token. The
// tenant scope comes from the token claims, not from request headers.
func (h *Handler) PublicView(c echo.Context) error {
	claims, err := h.verify.VerifyInvoiceLink(c.QueryParam("token"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired link")
	}
	id, err := uuid.Parse(claims.InvoiceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired link")
	}
	ctx := db.WithTenant(c.Request().Context(), claims.TenantID)
	inv, err := h.svc.GetInvoice(ctx, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in RecordPaymentInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.RecordPayment(c.Request().Context(), id, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPayments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	payments, err := h.svc.ListPayments(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"payments": payments})
}

func (h *Handler) ListEntries(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	entries, err := h.svc.ListEntries(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"entries": entries})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, money.ErrInvalidAmount):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	case errors.Is(err, db.ErrTenantRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
