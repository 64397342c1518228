package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/victornm/asking/internal/errors"
	"github.com/victornm/asking/internal/quiz"
)

func (a *API) registerHTTP(r gin.IRouter) {
	v1 := r.Group("/v1")

	v1.POST("/auth/guest", a.signInGuest)
	v1.GET("/profile", a.getProfile)
	v1.PUT("/profile", a.updateProfile)

	v1.POST("/sessions", a.startSession)
	v1.GET("/sessions/:id", a.getSession)
	v1.DELETE("/sessions/:id", a.abandonSession)
	v1.POST("/sessions/:id/answers", a.submitAnswer)

	v1.GET("/leaderboard", a.listLeaderboard)
	v1.GET("/leaderboard/summary", a.leaderboardSummary)
	v1.GET("/leaderboard/ws", a.serveLeaderboardWS)
}

type (
	GuestRequest struct {
		Name string `json:"name"`
	}

	GuestResponse struct {
		Token       string `json:"token"`
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
	}

	Profile struct {
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
	}

	UpdateProfileRequest struct {
		DisplayName string `json:"displayName"`
	}

	AnswerRequest struct {
		Option string `json:"option"`
	}
)

func (a *API) signInGuest(c *gin.Context) {
	var req GuestRequest
	if !bindJSON(c, &req) {
		return
	}

	tok, user, err := a.is.IssueGuest(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, GuestResponse{
		Token:       tok,
		UserID:      user.UserID,
		DisplayName: user.DisplayName,
	})
}

func (a *API) getProfile(c *gin.Context) {
	user, err := a.is.Authenticate(c.Request.Context(), bearerToken(c.GetHeader("Authorization")))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Profile{UserID: user.UserID, DisplayName: user.DisplayName})
}

func (a *API) updateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.is.UpdateDisplayName(c.Request.Context(), bearerToken(c.GetHeader("Authorization")), req.DisplayName)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Profile{UserID: user.UserID, DisplayName: user.DisplayName})
}

func (a *API) startSession(c *gin.Context) {
	ctx := c.Request.Context()

	ss, err := a.qs.StartSession(ctx, quiz.StartSessionRequest{
		UserName: a.is.ResolveDisplayName(ctx, bearerToken(c.GetHeader("Authorization"))),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ss)
}

func (a *API) getSession(c *gin.Context) {
	ss, err := a.qs.GetSession(c.Request.Context(), quiz.GetSessionRequest{SessionID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ss)
}

func (a *API) abandonSession(c *gin.Context) {
	if err := a.qs.AbandonSession(c.Request.Context(), quiz.AbandonSessionRequest{SessionID: c.Param("id")}); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *API) submitAnswer(c *gin.Context) {
	var req AnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := a.qs.SubmitAnswer(c.Request.Context(), quiz.SubmitAnswerRequest{
		SessionID: c.Param("id"),
		Option:    req.Option,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, answerResultOf(resp))
}

func (a *API) listLeaderboard(c *gin.Context) {
	c.JSON(http.StatusOK, leaderboardOf(a.ls.ListRanked(c.Request.Context())))
}

func (a *API) leaderboardSummary(c *gin.Context) {
	sum, err := a.ls.Summary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sum)
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("malformed request body"),
			errors.WithCause(err),
		))
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "http: request failed", "path", c.FullPath(), "error", err)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{"error": e})
}

func bearerToken(header string) string {
	tok, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(tok)
}
