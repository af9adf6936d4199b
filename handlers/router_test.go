package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"knowledge-base/graph"
	"knowledge-base/helper"
	"knowledge-base/models"
	"knowledge-base/repositories/memstore"
	"knowledge-base/services"
)

type RouterSuite struct {
	suite.Suite
	store  *memstore.Store
	router *gin.Engine
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	secret := []byte("test-secret")
	s.store = memstore.New()

	articles := services.NewArticleService(s.store, services.NewVersioningEngine(5, logger), services.ArticleServiceOptions{}, logger)
	comments := services.NewCommentService(s.store, logger)
	users := services.NewUserService(s.store.Users(), logger)
	schema, err := graph.NewSchema(graph.NewResolver(articles, comments, users, helper.NewValidator()))
	s.Require().NoError(err)

	s.router = NewRouter(RouterDeps{
		Identity: services.NewIdentityService(s.store.Users(), secret, nil, 0, logger),
		Auth:     NewAuthHandler(services.NewAuthService(s.store.Users(), secret, time.Hour), users),
		GraphQL:  NewGraphQLHandler(schema, 5*time.Second),
		Logger:   logger,
	})
}

func (s *RouterSuite) do(method, target string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code        int             `json:"code"`
	CodeType    string          `json:"code_type"`
	CodeMessage string          `json:"code_message"`
	Data        json.RawMessage `json:"data"`
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, out interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (s *RouterSuite) register(email string) models.AuthResponse {
	w := s.do(http.MethodPost, "/api/v1/auth/register", gin.H{"email": email, "password": "secret123"}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var env envelope
	s.decode(w, &env)
	var resp models.AuthResponse
	s.Require().NoError(json.Unmarshal(env.Data, &resp))
	return resp
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string                 `json:"message"`
		Extensions map[string]interface{} `json:"extensions"`
	} `json:"errors"`
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"healthy"}`, w.Body.String())
}

func (s *RouterSuite) TestMetricsEndpoint() {
	s.do(http.MethodGet, "/health", nil, "")

	w := s.do(http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "kb_http_requests_total")
}

func (s *RouterSuite) TestRegisterLoginAndQuery() {
	registered := s.register("writer@example.com")
	s.NotEmpty(registered.Token)
	s.Equal(models.RoleViewer, registered.User.Role)

	w := s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "writer@example.com", "password": "secret123"}, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var env envelope
	s.decode(w, &env)
	s.Equal("success", env.CodeType)
	var login models.AuthResponse
	s.Require().NoError(json.Unmarshal(env.Data, &login))

	create := gin.H{"query": `mutation { createArticle(title: "Hello", content: "World") { id title } }`}

	// Viewers may not author articles.
	w = s.do(http.MethodPost, "/api/graphql", create, login.Token)
	s.Require().Equal(http.StatusOK, w.Code)
	var denied gqlResponse
	s.decode(w, &denied)
	s.Require().NotEmpty(denied.Errors)
	s.Equal("AUTHORIZATION_DENIED", denied.Errors[0].Extensions["code"])

	s.Require().NoError(s.store.Users().UpdateRole(context.Background(), login.User.ID, models.RoleEditor))

	w = s.do(http.MethodPost, "/api/graphql", create, login.Token)
	var created gqlResponse
	s.decode(w, &created)
	s.Require().Empty(created.Errors)
	s.Contains(string(created.Data["createArticle"]), `"title":"Hello"`)

	query := url.Values{"query": {`{ me { email role } articles { title } }`}}
	w = s.do(http.MethodGet, "/api/graphql?"+query.Encode(), nil, login.Token)
	s.Require().Equal(http.StatusOK, w.Code)
	var listed gqlResponse
	s.decode(w, &listed)
	s.Require().Empty(listed.Errors)
	s.JSONEq(`{"email":"writer@example.com","role":"editor"}`, string(listed.Data["me"]))
	s.JSONEq(`[{"title":"Hello"}]`, string(listed.Data["articles"]))
}

func (s *RouterSuite) TestInvalidTokenIsAnonymous() {
	w := s.do(http.MethodPost, "/api/graphql", gin.H{"query": `{ me { id } }`}, "not-a-token")
	s.Require().Equal(http.StatusOK, w.Code)

	var resp gqlResponse
	s.decode(w, &resp)
	s.Empty(resp.Errors)
	s.Equal("null", string(resp.Data["me"]))
}

func (s *RouterSuite) TestGraphQLVariables() {
	registered := s.register("editor@example.com")
	s.Require().NoError(s.store.Users().UpdateRole(context.Background(), registered.User.ID, models.RoleEditor))

	w := s.do(http.MethodPost, "/api/graphql", gin.H{
		"query":     `mutation($t: String!, $c: String!) { createArticle(title: $t, content: $c) { title } }`,
		"variables": gin.H{"t": "Vars", "c": "Work"},
	}, registered.Token)
	var resp gqlResponse
	s.decode(w, &resp)
	s.Require().Empty(resp.Errors)

	query := url.Values{
		"query":     {`query($s: String) { articles(status: $s) { title } }`},
		"variables": {`{"s":"published"}`},
	}
	w = s.do(http.MethodGet, "/api/graphql?"+query.Encode(), nil, "")
	resp = gqlResponse{}
	s.decode(w, &resp)
	s.Require().Empty(resp.Errors)
	s.JSONEq(`[{"title":"Vars"}]`, string(resp.Data["articles"]))
}

func (s *RouterSuite) TestGraphQLGetRunsQueriesOnly() {
	registered := s.register("getter@example.com")
	s.Require().NoError(s.store.Users().UpdateRole(context.Background(), registered.User.ID, models.RoleEditor))

	mutation := url.Values{"query": {`mutation { createArticle(title: "Sneaky", content: "Body") { id } }`}}
	w := s.do(http.MethodGet, "/api/graphql?"+mutation.Encode(), nil, registered.Token)
	s.Equal(http.StatusMethodNotAllowed, w.Code)
	s.Equal(http.MethodPost, w.Header().Get("Allow"))

	named := url.Values{
		"query":         {`query List { articles { title } } mutation Make { createArticle(title: "Sneaky", content: "Body") { id } }`},
		"operationName": {"Make"},
	}
	w = s.do(http.MethodGet, "/api/graphql?"+named.Encode(), nil, registered.Token)
	s.Equal(http.StatusMethodNotAllowed, w.Code)

	named.Set("operationName", "List")
	w = s.do(http.MethodGet, "/api/graphql?"+named.Encode(), nil, registered.Token)
	var resp gqlResponse
	s.decode(w, &resp)
	s.Require().Empty(resp.Errors)
	s.JSONEq(`[]`, string(resp.Data["articles"]))
}

func (s *RouterSuite) TestGraphQLBadRequests() {
	w := s.do(http.MethodPost, "/api/graphql", gin.H{"query": ""}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/graphql", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)

	w = s.do(http.MethodGet, "/api/graphql?query=%7B+me+%7B+id+%7D+%7D&variables=oops", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestRegisterErrors() {
	w := s.do(http.MethodPost, "/api/v1/auth/register", gin.H{"email": "not-an-email", "password": "secret123"}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/register", gin.H{"email": "a@example.com", "password": "123"}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	s.register("taken@example.com")
	w = s.do(http.MethodPost, "/api/v1/auth/register", gin.H{"email": "taken@example.com", "password": "secret123"}, "")
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	var env envelope
	s.decode(w, &env)
	s.Equal("VALIDATION_FAILED", env.CodeType)
}

func (s *RouterSuite) TestLoginRejectsWrongPassword() {
	s.register("someone@example.com")

	w := s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "someone@example.com", "password": "wrong-password"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	var env envelope
	s.decode(w, &env)
	s.Equal("AUTHENTICATION_REQUIRED", env.CodeType)
}

func (s *RouterSuite) TestProfile() {
	w := s.do(http.MethodGet, "/api/v1/auth/profile", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	registered := s.register("profile@example.com")
	w = s.do(http.MethodGet, "/api/v1/auth/profile", nil, registered.Token)
	s.Require().Equal(http.StatusOK, w.Code)

	var env envelope
	s.decode(w, &env)
	var user models.User
	s.Require().NoError(json.Unmarshal(env.Data, &user))
	s.Equal("profile@example.com", user.Email)
	s.NotContains(string(env.Data), "password")
}
