package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/dispatch"
	"github.com/Skotchmaster/blog_api/internal/logging"
	authmw "github.com/Skotchmaster/blog_api/internal/middleware/auth"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/service/auth"
	"github.com/Skotchmaster/blog_api/internal/service/posts"
	"github.com/Skotchmaster/blog_api/internal/service/search"
)

// writeResult maps an envelope onto the wire: the status classification
// picks the code, and the body is either the value or the error message.
func writeResult[T any](c echo.Context, res dispatch.Result[T]) error {
	if !res.OK {
		return c.JSON(res.Status.HTTPStatus(), echo.Map{"message": res.ErrMessage})
	}
	return c.JSON(res.Status.HTTPStatus(), res.Value)
}

// internalError hides infrastructure failures behind a generic 500; the
// cause is logged, never reported to the caller.
func internalError(c echo.Context, err error) error {
	logging.FromContext(c.Request().Context()).Error("handler error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

type AuthHandler struct {
	Dispatcher *dispatch.Dispatcher
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	cmd := auth.RegisterUserCommand{Username: req.Username, Password: req.Password, Role: req.Role}
	res, err := dispatch.Send[auth.RegisterUserCommand, auth.AuthResponse](c.Request().Context(), h.Dispatcher, cmd)
	if err != nil {
		return internalError(c, err)
	}
	return writeResult(c, res)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cmd := auth.LoginUserCommand{Username: req.Username, Password: req.Password}
	res, err := dispatch.Send[auth.LoginUserCommand, auth.AuthResponse](c.Request().Context(), h.Dispatcher, cmd)
	if err != nil {
		return internalError(c, err)
	}
	return writeResult(c, res)
}

// Logout takes the raw token string from the query or the body, not from the
// bearer header.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		var req struct {
			Token string `json:"token"`
		}
		if err := c.Bind(&req); err == nil {
			token = req.Token
		}
	}
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	res, err := dispatch.Send[auth.LogoutUserCommand, string](c.Request().Context(), h.Dispatcher, auth.LogoutUserCommand{Token: token})
	if err != nil {
		return internalError(c, err)
	}
	if !res.OK {
		return writeResult(c, res)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": res.Value})
}

type PostHandler struct {
	Dispatcher *dispatch.Dispatcher
}

func (h *PostHandler) Create(c echo.Context) error {
	var req struct {
		Title       string `json:"title"`
		FriendlyURL string `json:"friendly_url"`
		Content     string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" || req.FriendlyURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and friendly_url are required")
	}

	cmd := posts.CreatePostCommand{
		Title:       req.Title,
		FriendlyURL: req.FriendlyURL,
		Content:     req.Content,
		CreatedBy:   identity(c),
	}
	res, err := dispatch.Send[posts.CreatePostCommand, models.Post](c.Request().Context(), h.Dispatcher, cmd)
	if err != nil {
		return internalError(c, err)
	}
	return writeResult(c, res)
}

func (h *PostHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		Title       string `json:"title"`
		FriendlyURL string `json:"friendly_url"`
		Content     string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cmd := posts.UpdatePostCommand{ID: id, Title: req.Title, FriendlyURL: req.FriendlyURL, Content: req.Content}
	res, err := dispatch.Send[posts.UpdatePostCommand, models.Post](c.Request().Context(), h.Dispatcher, cmd)
	if err != nil {
		return internalError(c, err)
	}
	return writeResult(c, res)
}

func (h *PostHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	res, err := dispatch.Send[posts.DeletePostCommand, struct{}](c.Request().Context(), h.Dispatcher, posts.DeletePostCommand{ID: id})
	if err != nil {
		return internalError(c, err)
	}
	if !res.OK {
		return writeResult(c, res)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PostHandler) GetByID(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	res, err := dispatch.Send[posts.GetPostByIDQuery, models.Post](c.Request().Context(), h.Dispatcher, posts.GetPostByIDQuery{ID: id})
	if err != nil {
		return internalError(c, err)
	}
	return writeResult(c, res)
}

func (h *PostHandler) List(c echo.Context) error {
	q := posts.ListPostsQuery{
		Page: parseIntDefault(c.QueryParam("page"), 1),
		Size: parseIntDefault(c.QueryParam("size"), 0),
	}
	res, err := dispatch.Send[posts.ListPostsQuery, posts.PostPage](c.Request().Context(), h.Dispatcher, q)
	if err != nil {
		return internalError(c, err)
	}
	return writeResult(c, res)
}

func (h *PostHandler) Import(c echo.Context) error {
	csvURL := c.QueryParam("csvUrl")
	if csvURL == "" {
		var req struct {
			CSVURL string `json:"csv_url"`
		}
		if err := c.Bind(&req); err == nil {
			csvURL = req.CSVURL
		}
	}

	cmd := posts.ImportPostsCommand{CSVURL: csvURL, RequestedBy: identity(c)}
	res, err := dispatch.Send[posts.ImportPostsCommand, posts.ImportReport](c.Request().Context(), h.Dispatcher, cmd)
	if err != nil {
		return internalError(c, err)
	}
	return writeResult(c, res)
}

type SearchHandler struct {
	Dispatcher *dispatch.Dispatcher
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := search.SearchPostsQuery{
		Query: c.QueryParam("q"),
		Page:  parseIntDefault(c.QueryParam("page"), 1),
		Size:  parseIntDefault(c.QueryParam("size"), 0),
	}
	res, err := dispatch.Send[search.SearchPostsQuery, search.SearchResult](c.Request().Context(), h.Dispatcher, q)
	if err != nil {
		return internalError(c, err)
	}
	return writeResult(c, res)
}

// identity reads the username the gate placed into the echo context. Routes
// behind RequireAuth always have it set.
func identity(c echo.Context) string {
	username, _ := c.Get(authmw.ContextUsername).(string)
	return username
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
