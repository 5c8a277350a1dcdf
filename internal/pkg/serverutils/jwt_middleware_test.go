package serverutils

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestJwtMiddleware(t *testing.T) {
	const secret = "test-secret"
	os.Setenv("JWT_SECRET", secret)

	app := fiber.New()
	app.Get("/protected", JwtMiddleware, func(ctx *fiber.Ctx) error {
		return ctx.SendString(ctx.Locals("user_id").(string))
	})

	validUserId := "4f8e7a2c-1b3d-4c5e-9f6a-7b8c9d0e1f2a"

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid token with uuid claim",
			authHeader: "Bearer " + signToken(t, secret, jwt.MapClaims{"user_id": validUserId}),
			wantStatus: http.StatusOK,
			wantBody:   validUserId,
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed token",
			authHeader: "Bearer not-a-jwt",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong signing secret",
			authHeader: "Bearer " + signToken(t, "other-secret", jwt.MapClaims{"user_id": validUserId}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing user_id claim",
			authHeader: "Bearer " + signToken(t, secret, jwt.MapClaims{"sub": "someone"}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "numeric user_id claim",
			authHeader: "Bearer " + signToken(t, secret, jwt.MapClaims{"user_id": 42}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "user_id claim is not a uuid",
			authHeader: "Bearer " + signToken(t, secret, jwt.MapClaims{"user_id": "alice"}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			if tc.wantBody != "" {
				body, err := io.ReadAll(resp.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				if got := string(body); got != tc.wantBody {
					t.Fatalf("body = %q, want %q", got, tc.wantBody)
				}
			}
		})
	}
}
