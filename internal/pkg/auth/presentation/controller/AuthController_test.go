package controller_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/apardew63/wetarseel-server/internal/identity"
	"github.com/apardew63/wetarseel-server/internal/pkg/auth/presentation/controller"
)

type fakeProvider struct {
	signups int
	signins int
	fail    bool
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password, firstName, lastName string) (*identity.User, error) {
	f.signups++
	if f.fail {
		return nil, errors.New("provider unreachable")
	}
	return &identity.User{ID: "u1", Email: email}, nil
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (*identity.User, *identity.Session, error) {
	f.signins++
	if f.fail {
		return nil, nil, errors.New("invalid login credentials")
	}
	return &identity.User{ID: "u1", Email: email}, &identity.Session{AccessToken: "tok"}, nil
}

func newAuthRouter(p *fakeProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctl := controller.NewAuthController(p)
	e := gin.New()
	e.POST("/auth/signup", ctl.Signup())
	e.POST("/auth/signin", ctl.Signin())
	return e
}

func post(e *gin.Engine, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	e.ServeHTTP(rec, req)
	return rec
}

func TestSignupCreatesUser(t *testing.T) {
	p := &fakeProvider{}
	e := newAuthRouter(p)

	rec := post(e, "/auth/signup", `{"email":"a@b.co","password":"secret1","firstName":"Ada","lastName":"L"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if p.signups != 1 {
		t.Errorf("provider called %d times, want 1", p.signups)
	}
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing email", body: `{"password":"secret1"}`},
		{name: "missing password", body: `{"email":"a@b.co"}`},
		{name: "malformed email", body: `{"email":"not-an-email","password":"secret1"}`},
		{name: "short password", body: `{"email":"a@b.co","password":"12345"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{}
			e := newAuthRouter(p)
			rec := post(e, "/auth/signup", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if p.signups != 0 {
				t.Errorf("provider called on invalid input")
			}
		})
	}
}

func TestSigninReturnsSession(t *testing.T) {
	e := newAuthRouter(&fakeProvider{})

	rec := post(e, "/auth/signin", `{"email":"a@b.co","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("access_token")) {
		t.Errorf("response missing session: %s", rec.Body.String())
	}
}

func TestSigninRejectsBadCredentials(t *testing.T) {
	e := newAuthRouter(&fakeProvider{fail: true})

	if rec := post(e, "/auth/signin", `{"email":"a@b.co","password":"wrong!"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
