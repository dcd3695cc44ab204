package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/credauth/internal/common"
	"github.com/dmitrijs2005/credauth/internal/logging"
	"github.com/dmitrijs2005/credauth/internal/server/auth"
	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/dmitrijs2005/credauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Authenticator is the login/registration core.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Register(ctx context.Context, req services.RegisterRequest) error
}

type LocationLister interface {
	List(ctx context.Context) ([]models.Location, error)
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Pinger reports storage liveness; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type handlers struct {
	auth      Authenticator
	locations LocationLister
	health    Pinger
	logger    logging.Logger
}

// bind decodes the request body into req. An empty body decodes as an empty
// request so field validation decides the outcome.
func bind(c *gin.Context, req any) error {
	if err := c.ShouldBind(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, codeMalformed, msgMalformed)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		var ipe *services.IncorrectPasswordError
		switch {
		case errors.Is(err, common.ErrUsernameMissing):
			respondError(c, http.StatusBadRequest, codeLoginUsernameEmpty, "Username not provided")
		case errors.Is(err, common.ErrPasswordMissing):
			respondError(c, http.StatusBadRequest, codeLoginPasswordEmpty, "Password not provided")
		case errors.Is(err, common.ErrUsernameNotFound):
			respondError(c, http.StatusNotFound, codeUsernameNotFound, "Username not found")
		case errors.Is(err, common.ErrAccountLocked):
			respondError(c, http.StatusForbidden, codeAccountLocked, "Account is locked please ask an admin to let you in")
		case errors.As(err, &ipe):
			respond(c, http.StatusUnauthorized, codeIncorrectPassword, ipe.Error(), gin.H{
				"attempts": ipe.Attempts,
				"locked":   ipe.Locked,
			})
		default:
			respondError(c, http.StatusInternalServerError, codeInternal, msgInternal)
		}
		return
	}

	respond(c, http.StatusOK, codeOK, "Success!", gin.H{
		"role":      res.Role.String(),
		"jwt":       res.Token,
		"firstname": res.FirstName,
		"lastname":  res.LastName,
	})
}

type registrationRequest struct {
	Role      string `json:"role" form:"role"`
	Username  string `json:"username" form:"username"`
	Password  string `json:"password" form:"password"`
	Contact   string `json:"contact" form:"contact"`
	FirstName string `json:"firstname" form:"firstname"`
	LastName  string `json:"lastname" form:"lastname"`
}

func (h *handlers) registration(c *gin.Context) {
	var req registrationRequest
	if err := bind(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, codeMalformed, msgMalformed)
		return
	}

	err := h.auth.Register(c.Request.Context(), services.RegisterRequest{
		Role:      req.Role,
		Username:  req.Username,
		Password:  req.Password,
		Contact:   req.Contact,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	switch {
	case err == nil:
		respond(c, http.StatusCreated, codeOK, "Registered", nil)
	case errors.Is(err, common.ErrInvalidRole):
		respondError(c, http.StatusBadRequest, codeInvalidRole, "Provide a valid role")
	case errors.Is(err, common.ErrUsernameMissing):
		respondError(c, http.StatusBadRequest, codeRegUsernameEmpty, "Username not provided")
	case errors.Is(err, common.ErrPasswordMissing):
		respondError(c, http.StatusBadRequest, codeRegPasswordEmpty, "Password not provided")
	case errors.Is(err, common.ErrUsernameTaken):
		respondError(c, http.StatusConflict, codeUsernameTaken, "Username taken please choose another")
	default:
		respondError(c, http.StatusInternalServerError, codeInternal, msgInternal)
	}
}

func (h *handlers) listLocations(c *gin.Context) {
	locs, err := h.locations.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, codeInternal, msgInternal)
		return
	}
	respond(c, http.StatusOK, codeOK, "OK", gin.H{"locations": locs})
}

// me echoes the verified claims of the caller.
func (h *handlers) me(c *gin.Context) {
	claims := claimsFrom(c)
	respond(c, http.StatusOK, codeOK, "OK", gin.H{"role": claims.Role, "user": claims.User})
}

func (h *handlers) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health.PingContext(c.Request.Context()); err != nil {
			h.logger.Error(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
