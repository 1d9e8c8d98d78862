package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// addEmailAccount handles POST /email/add. The password is encrypted by
// the account service before it is stored.
func (s *Server) addEmailAccount(c *gin.Context) {
	if s.ports.Email == nil {
		abortWithError(c, errServiceUnavailable)
		return
	}
	var req EmailAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	useTLS := true
	if req.UseTLS != nil {
		useTLS = *req.UseTLS
	}

	cred, err := s.ports.Email.Add(c.Request.Context(), domain.EmailAccountInput{
		Address:  req.Address,
		Server:   req.Server,
		Port:     req.Port,
		Username: req.Username,
		Password: req.Password,
		Mailbox:  req.Mailbox,
		UseTLS:   useTLS,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toEmailAccountResponse(cred))
}

func (s *Server) listEmailAccounts(c *gin.Context) {
	if s.ports.Email == nil {
		abortWithError(c, errServiceUnavailable)
		return
	}
	creds, err := s.ports.Email.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]EmailAccountResponse, len(creds))
	for i := range creds {
		out[i] = toEmailAccountResponse(&creds[i])
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out})
}
