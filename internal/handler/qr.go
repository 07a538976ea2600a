package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

// rolePaths are the fixed frontend entry points the QR codes encode.
var rolePaths = map[string]string{
	"student":        "/student",
	"lecturer":       "/lecturer",
	"representative": "/rep",
}

// RoleQR renders a PNG QR code pointing a phone at the role's view.
func (h *Handler) RoleQR(c *gin.Context) {
	path, ok := rolePaths[c.Param("role")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown role"})
		return
	}

	png, err := qrcode.Encode(h.baseURL+path, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr encode failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
