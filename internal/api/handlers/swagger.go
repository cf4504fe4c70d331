package handlers

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed swagger/swagger.json
var swaggerJSON []byte

//go:embed swagger/swagger.yaml
var swaggerYAML []byte

// SwaggerHandler serves the API contract documents
type SwaggerHandler struct{}

// NewSwaggerHandler creates a new swagger handler
func NewSwaggerHandler() *SwaggerHandler {
	return &SwaggerHandler{}
}

// JSON streams the swagger contract as JSON. The contract specifies 202 for
// these document endpoints.
func (h *SwaggerHandler) JSON(c *gin.Context) {
	c.Data(http.StatusAccepted, "application/json", swaggerJSON)
}

// YAML streams the swagger contract as YAML
func (h *SwaggerHandler) YAML(c *gin.Context) {
	c.Data(http.StatusAccepted, "application/x-yaml", swaggerYAML)
}
