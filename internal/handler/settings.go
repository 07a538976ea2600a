package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classattend/internal/model"
	"classattend/internal/notify"
)

// Setting keys the clients care about.
const (
	SettingRepName       = "representative_name"
	SettingLicenseExpiry = "license_expiry"
)

// ListSettings returns every persisted setting.
func (h *Handler) ListSettings(c *gin.Context) {
	settings, err := h.store.AllSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if settings == nil {
		settings = []model.Setting{}
	}
	c.JSON(http.StatusOK, settings)
}

type putSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// PutSetting upserts one key-value pair.
func (h *Handler) PutSetting(c *gin.Context) {
	var req putSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.SetSetting(c.Request.Context(), req.Key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.hub.Broadcast(notify.EventSettingsChanged)
	c.JSON(http.StatusOK, model.Setting{Key: req.Key, Value: req.Value})
}

// Info returns what the landing views render: the representative's display
// name, license expiry, the hotspot address, and the fixed role URLs that
// the QR codes encode.
func (h *Handler) Info(c *gin.Context) {
	ctx := c.Request.Context()
	repName, err := h.store.GetSetting(ctx, SettingRepName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	expiry, err := h.store.GetSetting(ctx, SettingLicenseExpiry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"representative_name": repName,
		"license_expiry":      expiry,
		"address":             h.baseURL,
		"links": gin.H{
			"student":        h.baseURL + rolePaths["student"],
			"lecturer":       h.baseURL + rolePaths["lecturer"],
			"representative": h.baseURL + rolePaths["representative"],
		},
	})
}
