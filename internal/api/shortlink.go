package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/shortlink"
)

// ShortLinkHandler redirects short URLs to the recipe page they stand for.
type ShortLinkHandler struct {
	resolver *shortlink.Resolver
	baseURL  string
}

func NewShortLinkHandler(resolver *shortlink.Resolver, baseURL string) *ShortLinkHandler {
	return &ShortLinkHandler{resolver: resolver, baseURL: baseURL}
}

func (h *ShortLinkHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/s/:token", h.Redirect)
}

func (h *ShortLinkHandler) Redirect(c *gin.Context) {
	id, err := h.resolver.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.Error(err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/recipes/%d", h.baseURL, id))
}
