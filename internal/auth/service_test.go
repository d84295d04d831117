package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/auth"
	"github.com/chronotracker/chronotracker-api/internal/transport"
	"github.com/chronotracker/chronotracker-api/internal/user"
)

type mockUserLookup struct {
	users map[int64]*user.User
	err   error
}

func (m *mockUserLookup) GetByID(_ context.Context, userID int64) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

var _ = Describe("JWTTokenGenerator", func() {
	var generator *auth.JWTTokenGenerator

	BeforeEach(func() {
		generator = auth.NewJWTTokenGenerator("test-secret", time.Hour)
	})

	It("round-trips the user id through subject and claims", func() {
		token, expiresAt, err := generator.GenerateAccessToken(7)
		Expect(err).NotTo(HaveOccurred())
		Expect(expiresAt).To(BeTemporally("~", time.Now().Add(time.Hour), 5*time.Second))

		claims, err := generator.ValidateToken(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.UserID).To(Equal(int64(7)))
		Expect(claims.Subject).To(Equal("7"))
	})

	It("rejects an expired token", func() {
		expired := auth.NewJWTTokenGenerator("test-secret", -time.Minute)
		token, _, err := expired.GenerateAccessToken(7)
		Expect(err).NotTo(HaveOccurred())

		_, err = generator.ValidateToken(token)
		Expect(err).To(MatchError(auth.ErrTokenExpired))
	})

	It("rejects a token signed with another secret", func() {
		other := auth.NewJWTTokenGenerator("other-secret", time.Hour)
		token, _, err := other.GenerateAccessToken(7)
		Expect(err).NotTo(HaveOccurred())

		_, err = generator.ValidateToken(token)
		Expect(err).To(MatchError(auth.ErrInvalidToken))
	})

	It("rejects a token whose subject disagrees with its claims", func() {
		claims := &auth.Claims{
			UserID: 7,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "8",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		Expect(err).NotTo(HaveOccurred())

		_, err = generator.ValidateToken(token)
		Expect(err).To(MatchError(auth.ErrInvalidToken))
	})

	It("rejects a token without expiry", func() {
		claims := &auth.Claims{UserID: 7, RegisteredClaims: jwt.RegisteredClaims{Subject: "7"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		Expect(err).NotTo(HaveOccurred())

		_, err = generator.ValidateToken(token)
		Expect(err).To(MatchError(auth.ErrInvalidToken))
	})

	It("rejects garbage", func() {
		_, err := generator.ValidateToken("not.a.token")
		Expect(err).To(MatchError(auth.ErrInvalidToken))
	})
})

var _ = Describe("Auth Service", func() {
	var (
		generator *auth.JWTTokenGenerator
		users     *mockUserLookup
		service   *auth.Service
		ctx       context.Context
	)

	BeforeEach(func() {
		generator = auth.NewJWTTokenGenerator("test-secret", time.Hour)
		users = &mockUserLookup{users: map[int64]*user.User{
			1: {ID: 1, Email: "colab@example.com", Role: internal.RoleCollaborator, IsActive: true},
			2: {ID: 2, Email: "manager@example.com", Role: internal.RoleManager, IsActive: true},
			3: {ID: 3, Email: "gone@example.com", Role: internal.RoleCollaborator, IsActive: false},
			4: {ID: 4, Email: "odd@example.com", Role: internal.Role("owner"), IsActive: true},
		}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = auth.NewService(generator, users, logger)
		ctx = context.Background()
	})

	issue := func(userID int64) string {
		token, _, err := generator.GenerateAccessToken(userID)
		Expect(err).NotTo(HaveOccurred())
		return token
	}

	Describe("Authenticate", func() {
		It("resolves the role from the account", func() {
			actor, err := service.Authenticate(ctx, issue(2))
			Expect(err).NotTo(HaveOccurred())
			Expect(actor).To(Equal(internal.Actor{ID: 2, Role: internal.RoleManager}))
		})

		It("requires a token", func() {
			_, err := service.Authenticate(ctx, "")
			Expect(err).To(MatchError(internal.ErrMissingToken))
		})

		It("maps expiry to its own error", func() {
			expired := auth.NewJWTTokenGenerator("test-secret", -time.Minute)
			token, _, err := expired.GenerateAccessToken(1)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Authenticate(ctx, token)
			Expect(err).To(MatchError(internal.ErrTokenExpired))
		})

		It("rejects tokens for unknown accounts", func() {
			_, err := service.Authenticate(ctx, issue(99))
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("rejects inactive accounts", func() {
			_, err := service.Authenticate(ctx, issue(3))
			Expect(err).To(MatchError(internal.ErrUserInactive))
		})

		It("rejects accounts with an unknown role", func() {
			_, err := service.Authenticate(ctx, issue(4))
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("surfaces storage failures", func() {
			users.err = errors.New("connection refused")
			_, err := service.Authenticate(ctx, issue(1))
			Expect(err).To(MatchError("connection refused"))
		})
	})

	Describe("IssueToken", func() {
		It("signs a token that authenticates back to the same actor", func() {
			resp, err := service.IssueToken(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.UserID).To(Equal(int64(1)))
			Expect(resp.Role).To(Equal(internal.RoleCollaborator))

			actor, err := service.Authenticate(ctx, resp.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(actor.ID).To(Equal(int64(1)))
		})

		It("refuses inactive accounts", func() {
			_, err := service.IssueToken(ctx, 3)
			Expect(err).To(MatchError(internal.ErrUserInactive))
		})
	})
})

var _ = Describe("RBACAuthorization", func() {
	var (
		rbac    *auth.RBACAuthorization
		reached bool
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		rbac = auth.NewRBACAuthorization(&transport.BaseHandler{Logger: logger})
		reached = false
	})

	serve := func(mw func(http.Handler) http.Handler, actor *internal.Actor) *httptest.ResponseRecorder {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusNoContent)
		})
		req := httptest.NewRequest(http.MethodGet, "/approvals/pending", nil)
		if actor != nil {
			req = req.WithContext(internal.ContextWithActor(req.Context(), *actor))
		}
		rec := httptest.NewRecorder()
		mw(next).ServeHTTP(rec, req)
		return rec
	}

	It("lets managers through", func() {
		rec := serve(rbac.RequireManager(), &internal.Actor{ID: 2, Role: internal.RoleManager})
		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(reached).To(BeTrue())
	})

	It("turns collaborators away with a manager-required error", func() {
		rec := serve(rbac.RequireManager(), &internal.Actor{ID: 1, Role: internal.RoleCollaborator})
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeManagerRequired)))
		Expect(reached).To(BeFalse())
	})

	It("keeps managers out of admin routes", func() {
		rec := serve(rbac.RequireAdmin(), &internal.Actor{ID: 2, Role: internal.RoleManager})
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeAdminRequired)))
	})

	It("answers 401 when no actor is present", func() {
		rec := serve(rbac.RequireAdmin(), nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(reached).To(BeFalse())
	})
})
