package resource

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ftf-gateway/internal/auth"
	"ftf-gateway/internal/logger"
	"ftf-gateway/internal/response"
	"ftf-gateway/internal/vendor"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

const maxBodySize = 1 << 20

// Handler is the terminal handler behind the interceptor chain. By the
// time a mutating request gets here it has been authenticated and its
// target authorized.
type Handler struct {
	resources Store
	vendors   vendor.Store
}

func NewHandler(resources Store, vendors vendor.Store) *Handler {
	return &Handler{resources: resources, vendors: vendors}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/vendors", h.listVendors)
	r.GET("/vendors/:id", h.getVendor)
	r.PATCH("/vendors/:id", h.updateVendor)
	r.GET("/vendors/:id/:kind", h.listVendorResources)
	r.POST("/vendors/:id/:kind", h.create)

	for _, kind := range Kinds {
		base := "/" + string(kind)
		r.GET(base, h.list(kind))
		r.GET(base+"/:id", h.get(kind))
		r.PATCH(base+"/:id", h.update(kind))
		r.DELETE(base+"/:id", h.remove(kind))
	}
}

func (h *Handler) listVendors(c *gin.Context) {
	vendors, err := h.vendors.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if vendors == nil {
		vendors = []vendor.Vendor{}
	}
	c.JSON(http.StatusOK, vendors)
}

func (h *Handler) getVendor(c *gin.Context) {
	v, err := h.vendors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type vendorPatch struct {
	DisplayName *string `json:"display_name" binding:"required"`
}

func (h *Handler) updateVendor(c *gin.Context) {
	var patch vendorPatch
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c.Writer, http.StatusBadRequest, response.CodeInvalidRequest, "display_name is required")
		return
	}

	v, err := h.vendors.UpdateDisplayName(c.Request.Context(), c.Param("id"), *patch.DisplayName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) listVendorResources(c *gin.Context) {
	kind, ok := ParseKind(c.Param("kind"))
	if !ok {
		response.Error(c.Writer, http.StatusNotFound, response.CodeNotFound, "unknown resource kind")
		return
	}

	records, err := h.resources.ListByVendor(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) create(c *gin.Context) {
	kind, ok := ParseKind(c.Param("kind"))
	if !ok {
		response.Error(c.Writer, http.StatusNotFound, response.CodeNotFound, "unknown resource kind")
		return
	}
	data, ok := readObject(c)
	if !ok {
		return
	}

	now := time.Now().UTC()
	r := Record{
		ID:        uuid.NewString(),
		Kind:      kind,
		VendorID:  c.Param("id"),
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.resources.Create(c.Request.Context(), r); err != nil {
		h.fail(c, err)
		return
	}

	logger.Info("resource created", map[string]any{
		"kind":      string(kind),
		"id":        r.ID,
		"vendor_id": r.VendorID,
	})
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) list(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := h.resources.List(c.Request.Context(), kind)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

func (h *Handler) get(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := h.resources.Get(c.Request.Context(), kind, c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

func (h *Handler) update(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		vendorID, _ := auth.VendorIDFromContext(c.Request.Context())
		data, ok := readObject(c)
		if !ok {
			return
		}

		r, err := h.resources.Update(c.Request.Context(), kind, c.Param("id"), vendorID, data)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

func (h *Handler) remove(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.resources.Delete(c.Request.Context(), kind, c.Param("id")); err != nil {
			h.fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// readObject binds the request body, which must be a JSON object, and
// returns it as sent.
func readObject(c *gin.Context) (json.RawMessage, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

	var obj map[string]any
	if err := c.ShouldBindBodyWith(&obj, binding.JSON); err != nil || obj == nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c.Writer, http.StatusRequestEntityTooLarge, response.CodeInvalidRequest, "request body too large")
			return nil, false
		}
		response.Error(c.Writer, http.StatusBadRequest, response.CodeInvalidRequest, "body must be a JSON object")
		return nil, false
	}

	raw := c.MustGet(gin.BodyBytesKey).([]byte)
	return json.RawMessage(raw), true
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, vendor.ErrNotFound) {
		response.Error(c.Writer, http.StatusNotFound, response.CodeNotFound, err.Error())
		return
	}

	logger.Error("resource store failed", map[string]any{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"error":  err,
	})
	response.FromError(c.Writer, err)
}
