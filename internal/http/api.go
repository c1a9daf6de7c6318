package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"raidbot/internal/bot"
	"raidbot/internal/domain"
	"raidbot/internal/service"
)

// Handler exposes the owner/admin surface over HTTP: login, raid summaries,
// and the tab-separated export report.
type Handler struct {
	raids         service.RaidService
	adminPassword string
	jwtSecret     string
	tokenTTL      time.Duration
}

func NewHandler(raids service.RaidService, adminPassword, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{
		raids:         raids,
		adminPassword: strings.TrimSpace(adminPassword),
		jwtSecret:     jwtSecret,
		tokenTTL:      tokenTTL,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/auth/login", h.login)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		authed := api.Group("", h.authMiddleware())
		authed.GET("/raids", h.listRaids)
		authed.GET("/raids/export", h.exportRaids)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.adminPassword == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access is not configured"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(req.Password)), []byte(h.adminPassword)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
		return
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "owner",
		"iat": now.Unix(),
		"exp": now.Add(h.tokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": signed, "expires_at": now.Add(h.tokenTTL).Format(time.RFC3339)})
}

func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == "" || raw == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Next()
	}
}

type raidSummaryResponse struct {
	ID           int64  `json:"id"`
	Boss         string `json:"boss"`
	StartTime    string `json:"start_time"`
	Capacity     int    `json:"capacity"`
	Participants int    `json:"participants"`
}

func (h *Handler) listRaids(c *gin.Context) {
	summaries, err := h.raids.ExportSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load raids"})
		return
	}

	resp := make([]raidSummaryResponse, len(summaries))
	for i := range summaries {
		resp[i] = summaryToResponse(summaries[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) exportRaids(c *gin.Context) {
	summaries, err := h.raids.ExportSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load raids"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="raids.tsv"`)
	c.String(http.StatusOK, "%s", bot.RenderExport(summaries))
}

func summaryToResponse(s domain.RaidSummary) raidSummaryResponse {
	return raidSummaryResponse{
		ID:           s.ID,
		Boss:         s.Boss,
		StartTime:    s.StartTime.UTC().Format(time.RFC3339),
		Capacity:     s.Capacity,
		Participants: s.Participants,
	}
}
