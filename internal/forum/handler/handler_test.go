package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ghostpost/internal/forum/handler/mocks"
	"ghostpost/internal/forum/models"
	"ghostpost/pkg/domain"
	dErrors "ghostpost/pkg/domain-errors"
	"ghostpost/pkg/platform/middleware/admin"
	"ghostpost/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/forum-mocks.go -package=mocks Service

const adminToken = "moderator-secret"

func newRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), adminToken).Register(r)
	return r, svc
}

func serve(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := testutil.NewRequestWithBody(method, path, body)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return testutil.DoRequest(r, req)
}

func TestHandleRegister(t *testing.T) {
	t.Run("creates the account", func(t *testing.T) {
		r, svc := newRouter(t)
		userID := uuid.New()
		svc.EXPECT().Register(gomock.Any(), "alice", "pw").Return(&models.User{ID: domain.UserID(userID), Username: "alice"}, nil)

		w := serve(r, http.MethodPost, "/forum/register", `{"username":"alice","password":"pw"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		resp := testutil.UnmarshalResponse[models.RegisterResponse](t, w)
		assert.Equal(t, userID.String(), resp.UserID)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		r, _ := newRouter(t)
		w := serve(r, http.MethodPost, "/forum/register", `{"username":"alice","password":"pw","admin":true}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("taken username conflicts", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeConflict, "username already exists"))
		w := serve(r, http.MethodPost, "/forum/register", `{"username":"alice","password":"pw"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	t.Run("returns a bearer token", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().Login(gomock.Any(), "alice", "pw").Return("jwt-token", nil)
		svc.EXPECT().TokenTTL().Return(15 * time.Minute)

		w := serve(r, http.MethodPost, "/forum/login", `{"username":"alice","password":"pw"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"access_token":"jwt-token","token_type":"Bearer","expires_in":900}`, w.Body.String())
	})

	t.Run("bad credentials are a 401", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return("", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
		w := serve(r, http.MethodPost, "/forum/login", `{"username":"alice","password":"nope"}`)
		testutil.AssertStatusAndError(t, w, http.StatusUnauthorized, "unauthorized")
	})
}

func TestHandleCreatePost(t *testing.T) {
	t.Run("parses the full ticket range", func(t *testing.T) {
		r, svc := newRouter(t)
		big, err := domain.ParseTicket("340282366920938463463374607431768211455")
		require.NoError(t, err)
		postID := uuid.New()
		svc.EXPECT().CreatePost(gomock.Any(), "hi", big).Return(&models.Post{
			ID: domain.PostID(postID), Content: "hi", Ticket: big, CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}, nil)

		w := serve(r, http.MethodPost, "/forum/posts", `{"content":"hi","ticket":"340282366920938463463374607431768211455"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		resp := testutil.UnmarshalResponse[models.PostResponse](t, w)
		assert.Equal(t, postID.String(), resp.ID)
		assert.Equal(t, "340282366920938463463374607431768211455", resp.Ticket)
	})

	t.Run("non numeric ticket is invalid input", func(t *testing.T) {
		r, _ := newRouter(t)
		w := serve(r, http.MethodPost, "/forum/posts", `{"content":"hi","ticket":"12abc"}`)
		testutil.AssertStatusAndError(t, w, http.StatusBadRequest, "invalid_input")
	})

	t.Run("missing ticket is a validation error", func(t *testing.T) {
		r, _ := newRouter(t)
		w := serve(r, http.MethodPost, "/forum/posts", `{"content":"hi"}`)
		testutil.AssertStatusAndError(t, w, http.StatusBadRequest, "validation_error")
	})

	t.Run("unissued ticket is forbidden", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().CreatePost(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeForbidden, "ticket was not issued by an accepted proof"))
		w := serve(r, http.MethodPost, "/forum/posts", `{"content":"hi","ticket":"5"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestHandleListPosts(t *testing.T) {
	r, svc := newRouter(t)
	svc.EXPECT().ListPosts(gomock.Any()).Return(nil, nil)

	w := serve(r, http.MethodGet, "/forum/posts", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHandleModerate(t *testing.T) {
	postID := uuid.New()
	path := "/forum/posts/" + postID.String()

	t.Run("requires the admin token", func(t *testing.T) {
		r, _ := newRouter(t)
		w := serve(r, http.MethodDelete, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = serve(r, http.MethodDelete, path, "", admin.HeaderAdminToken, "wrong")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deletes and records the callback", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().Moderate(gomock.Any(), domain.PostID(postID)).Return(&models.Post{ID: domain.PostID(postID), Ticket: domain.TicketFrom64(9)}, nil)

		w := serve(r, http.MethodDelete, path, "", admin.HeaderAdminToken, adminToken)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Post deleted & callback recorded."}`, w.Body.String())
	})

	t.Run("unknown post is a 404", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().Moderate(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeNotFound, "post not found"))
		w := serve(r, http.MethodDelete, path, "", admin.HeaderAdminToken, adminToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id is rejected", func(t *testing.T) {
		r, _ := newRouter(t)
		w := serve(r, http.MethodDelete, "/forum/posts/not-a-uuid", "", admin.HeaderAdminToken, adminToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
