package http

import (
	"net/http"

	"github.com/dmitrijs2005/credauth/internal/logging"
	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the router dispatches to. Health, Observer
// and MetricsHandler are optional.
type Deps struct {
	Auth           Authenticator
	Locations      LocationLister
	Verifier       TokenVerifier
	Health         Pinger
	Observer       Observer
	MetricsHandler http.Handler
	Logger         logging.Logger
}

// roleAreas maps each role to the path prefix of its gated area.
var roleAreas = []struct {
	prefix string
	role   models.Role
}{
	{"/admin", models.RoleAdmins},
	{"/user", models.RoleUsers},
	{"/employee", models.RoleEmployees},
	{"/manager", models.RoleManagers},
}

// NewRouter constructs the gin engine with routes wired.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = logging.Nop{}
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(d.Logger, d.Observer))

	h := &handlers{auth: d.Auth, locations: d.Locations, health: d.Health, logger: d.Logger}

	r.GET("/healthz", h.healthz)
	if d.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(d.MetricsHandler))
	}

	r.POST("/login", h.login)
	r.POST("/registration", h.registration)
	r.GET("/locations", h.listLocations)

	for _, area := range roleAreas {
		g := r.Group(area.prefix, RequireRole(d.Verifier, area.role))
		g.GET("/me", h.me)
	}

	return r
}
