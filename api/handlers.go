package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"matrix-api/domain"
	"matrix-api/session"
)

const postDocumentMaxSize = 10 << 20

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth Authenticator, boot Bootstrapper, ai Assistant, staticDir string, logger *log.Logger) {
	e.GET("/api/data/:id", getDocument(store, logger))
	e.POST("/api/data/:id", postDocument(store, logger))
	e.GET("/api/health", health())

	e.POST("/api/session", postSession(boot, auth))
	e.DELETE("/api/session", deleteSession(boot, auth))

	e.POST("/api/assist/optimize", postOptimize(ai))
	e.POST("/api/assist/synergy", postSynergy(ai, store))

	e.GET("/*", spaHandler(staticDir))
}

type saveResponse struct {
	Success bool `json:"success"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func health() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthResponse{
			Status:    "online",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func getDocument(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics := newDocumentRequestMetrics("GET /api/data/:id", logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		key := c.Param("id")

		fetchStart := time.Now()
		doc, fetchErr := store.FetchDocument(ctx, key)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			// Fetch trouble is translated to the empty default; the client
			// never sees a read error.
			metrics.SetErrorStage("storage")
			logger.WithError(fetchErr).Warnf("fetch failed for key %s, serving default", key)
			doc = domain.EmptyDocument()
		}
		metrics.SetCounts(len(doc.Tasks), len(doc.Team))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, doc)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func postDocument(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics := newDocumentRequestMetrics("POST /api/data/:id", logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		key := c.Param("id")

		lr := io.LimitReader(c.Request().Body, postDocumentMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)

		var doc domain.Document
		if decErr := dec.Decode(&doc); decErr != nil {
			metrics.SetErrorStage("decode_body")
			err = c.String(http.StatusBadRequest, "invalid body")
			return err
		}

		// Soft-deleted tasks are dropped here, so the write that follows a
		// deletion removes them from the stored document permanently.
		doc = doc.WithoutDeleted()
		for i := range doc.Tasks {
			if doc.Tasks[i].ID == "" {
				doc.Tasks[i].ID = uuid.NewString()
			}
		}
		metrics.SetCounts(len(doc.Tasks), len(doc.Team))

		persistStart := time.Now()
		persistErr := store.ReplaceDocument(ctx, key, doc)
		metrics.ObservePersist(time.Since(persistStart))
		if persistErr != nil {
			metrics.SetErrorStage("storage")
			logger.WithError(persistErr).Errorf("replace failed for key %s", key)
			err = c.String(http.StatusInternalServerError, "failed to persist document")
			return err
		}

		err = c.JSON(http.StatusOK, saveResponse{Success: true})
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

type sessionRequest struct {
	Role       domain.Role `json:"role"`
	InviteCode string      `json:"inviteCode"`
}

type sessionResponse struct {
	Role        domain.Role     `json:"role"`
	DocumentKey string          `json:"documentKey,omitempty"`
	User        sessionUser     `json:"user"`
	Tasks       []domain.Task   `json:"tasks"`
	Team        []domain.Member `json:"team"`
	Degraded    bool            `json:"degraded,omitempty"`
}

type sessionUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func postSession(boot Bootstrapper, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := auth.IdentityFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var req sessionRequest
		lr := io.LimitReader(c.Request().Body, postDocumentMaxSize)
		if decErr := sonic.ConfigStd.NewDecoder(lr).Decode(&req); decErr != nil && decErr != io.EOF {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		state, err := boot.Bootstrap(c.Request().Context(), identity, session.Choice{
			Role:       req.Role,
			InviteCode: req.InviteCode,
		})
		if err != nil {
			if errors.Is(err, session.ErrEmptyInviteCode) {
				return c.String(http.StatusBadRequest, err.Error())
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "bootstrap failed")
		}

		return c.JSON(http.StatusOK, sessionResponse{
			Role:        state.Role,
			DocumentKey: state.DocumentKey,
			User:        sessionUser{ID: identity.ID, Name: identity.Name, Avatar: identity.AvatarURL},
			Tasks:       state.Document.Tasks,
			Team:        state.Document.Team,
			Degraded:    state.Degraded,
		})
	}
}

func deleteSession(boot Bootstrapper, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := auth.IdentityFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if err := boot.Clear(c.Request().Context(), identity.ID); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to clear session")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type optimizeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type synergyRequest struct {
	DocumentKey string `json:"documentKey"`
}

type synergyResponse struct {
	Summary string `json:"summary"`
}

func postOptimize(ai Assistant) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ai == nil {
			return c.String(http.StatusServiceUnavailable, "assistant not configured")
		}

		var req optimizeRequest
		lr := io.LimitReader(c.Request().Body, postDocumentMaxSize)
		if err := sonic.ConfigStd.NewDecoder(lr).Decode(&req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		out, err := ai.OptimizeTask(c.Request().Context(), req.Title, req.Description)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusBadGateway, "assistant unavailable")
		}
		return c.JSON(http.StatusOK, out)
	}
}

func postSynergy(ai Assistant, store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ai == nil {
			return c.String(http.StatusServiceUnavailable, "assistant not configured")
		}

		var req synergyRequest
		lr := io.LimitReader(c.Request().Body, postDocumentMaxSize)
		if err := sonic.ConfigStd.NewDecoder(lr).Decode(&req); err != nil || req.DocumentKey == "" {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		ctx := c.Request().Context()
		doc, err := store.FetchDocument(ctx, req.DocumentKey)
		if err != nil {
			doc = domain.EmptyDocument()
		}

		summary, err := ai.SuggestTeamSynergy(ctx, len(doc.Tasks), len(doc.Team))
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusBadGateway, "assistant unavailable")
		}
		return c.JSON(http.StatusOK, synergyResponse{Summary: summary})
	}
}
