package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"knowledge-base/models"
)

type AuthServiceSuite struct {
	serviceSuite
	auth AuthService
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.auth = NewAuthService(s.store.Users(), []byte("test-secret"), time.Hour)
}

func (s *AuthServiceSuite) TestRegisterAndLogin() {
	name := "New Person"
	resp, err := s.auth.Register(s.ctx, models.RegisterRequest{
		Email:    "  New.Person@Example.com ",
		Password: "secret123",
		FullName: &name,
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.Token)
	s.Equal("new.person@example.com", resp.User.Email)
	s.Equal(models.RoleViewer, resp.User.Role)
	s.NotEqual("secret123", resp.User.Password)

	login, err := s.auth.Login(s.ctx, models.LoginRequest{Email: "NEW.PERSON@example.com", Password: "secret123"})
	s.Require().NoError(err)
	s.Equal(resp.User.ID, login.User.ID)

	identity := NewIdentityService(s.store.Users(), []byte("test-secret"), nil, 0, testLogger)
	caller, err := identity.Resolve(s.ctx, login.Token)
	s.Require().NoError(err)
	s.Require().NotNil(caller)
	s.Equal(resp.User.ID, caller.UserID)
}

func (s *AuthServiceSuite) TestRegisterDuplicateEmail() {
	_, err := s.auth.Register(s.ctx, models.RegisterRequest{Email: "editor@example.com", Password: "secret123"})
	s.assertKind(err, models.KindValidationFailed)
	s.Contains(err.(*models.Error).Fields, "email")
}

func (s *AuthServiceSuite) TestLoginRejectsBadCredentials() {
	_, err := s.auth.Register(s.ctx, models.RegisterRequest{Email: "someone@example.com", Password: "secret123"})
	s.Require().NoError(err)

	_, err = s.auth.Login(s.ctx, models.LoginRequest{Email: "someone@example.com", Password: "wrong"})
	s.assertKind(err, models.KindAuthenticationRequired)

	_, err = s.auth.Login(s.ctx, models.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	s.assertKind(err, models.KindAuthenticationRequired)
}
