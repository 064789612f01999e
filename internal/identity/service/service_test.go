package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AccountStore,Hasher,AuditRecorder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sigil/internal/audit"
	"sigil/internal/identity"
	"sigil/internal/identity/service/mocks"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/sentinel"
)

type IdentityServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockAccounts *mocks.MockAccountStore
	mockHasher   *mocks.MockHasher
	mockAudit    *mocks.MockAuditRecorder
	service      *Service
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockAccounts = mocks.NewMockAccountStore(s.ctrl)
	s.mockHasher = mocks.NewMockHasher(s.ctrl)
	s.mockAudit = mocks.NewMockAuditRecorder(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.mockAccounts, s.mockHasher, s.mockAudit, WithLogger(logger))
}

func (s *IdentityServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *IdentityServiceSuite) TestCreateAccount() {
	ctx := context.Background()

	s.Run("hashes the password before storing", func() {
		s.mockHasher.EXPECT().Hash("secret").Return("hashed-secret", nil)
		s.mockAccounts.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, account identity.Account) (identity.Account, error) {
				s.Equal("hashed-secret", account.PasswordHash)
				s.Equal(identity.DefaultRole, account.Role)
				s.True(account.Active)
				account.ID = 1
				return account, nil
			})
		s.mockAudit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

		account, err := s.service.CreateAccount(ctx, identity.CreateAccount{
			Email:    "a@b.com",
			Password: "secret",
		})
		s.NoError(err)
		s.Equal(int64(1), account.ID)
	})

	s.Run("duplicate email is audited and returns conflict", func() {
		s.mockHasher.EXPECT().Hash("secret").Return("hashed-secret", nil)
		s.mockAccounts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(identity.Account{}, sentinel.ErrConflict)
		s.mockAudit.EXPECT().Record(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry audit.Entry) error {
				s.Equal(audit.ActionAccountCreateFailed, entry.Action)
				return nil
			})

		_, err := s.service.CreateAccount(ctx, identity.CreateAccount{
			Email:    "a@b.com",
			Password: "secret",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("audit append failure fails the operation", func() {
		s.mockHasher.EXPECT().Hash("secret").Return("hashed-secret", nil)
		s.mockAccounts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(identity.Account{ID: 1}, nil)
		s.mockAudit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("trail down"))

		_, err := s.service.CreateAccount(ctx, identity.CreateAccount{
			Email:    "a@b.com",
			Password: "secret",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("empty email is rejected before hashing", func() {
		_, err := s.service.CreateAccount(ctx, identity.CreateAccount{Password: "secret"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *IdentityServiceSuite) TestGetAccount() {
	ctx := context.Background()

	s.Run("miss is not audited", func() {
		s.mockAccounts.EXPECT().Get(gomock.Any(), int64(9)).Return(identity.Account{}, sentinel.ErrNotFound)

		_, err := s.service.GetAccount(ctx, 9)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("hit is audited with the subject", func() {
		s.mockAccounts.EXPECT().Get(gomock.Any(), int64(3)).
			Return(identity.Account{ID: 3, Email: "a@b.com"}, nil)
		s.mockAudit.EXPECT().Record(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry audit.Entry) error {
				s.Equal(audit.ActionAccountFetched, entry.Action)
				s.Require().NotNil(entry.SubjectID)
				s.Equal(int64(3), *entry.SubjectID)
				return nil
			})

		account, err := s.service.GetAccount(ctx, 3)
		s.NoError(err)
		s.Equal(int64(3), account.ID)
	})
}

func (s *IdentityServiceSuite) TestUpdateAccount() {
	ctx := context.Background()

	s.Run("password change is hashed", func() {
		password := "new-secret"
		s.mockHasher.EXPECT().Hash("new-secret").Return("new-hash", nil)
		s.mockAccounts.EXPECT().Update(gomock.Any(), int64(1), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ int64, changes identity.AccountChanges) (int64, error) {
				s.Require().NotNil(changes.PasswordHash)
				s.Equal("new-hash", *changes.PasswordHash)
				return 1, nil
			})
		s.mockAudit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

		err := s.service.UpdateAccount(ctx, 1, identity.UpdateAccount{Password: &password})
		s.NoError(err)
	})

	s.Run("zero rows affected maps to not found without audit", func() {
		s.mockAccounts.EXPECT().Update(gomock.Any(), int64(9), gomock.Any()).Return(int64(0), nil)

		err := s.service.UpdateAccount(ctx, 9, identity.UpdateAccount{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("email conflict maps to conflict", func() {
		email := "taken@b.com"
		s.mockAccounts.EXPECT().Update(gomock.Any(), int64(1), gomock.Any()).
			Return(int64(0), sentinel.ErrConflict)

		err := s.service.UpdateAccount(ctx, 1, identity.UpdateAccount{Email: &email})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *IdentityServiceSuite) TestDeleteAccount() {
	ctx := context.Background()

	s.Run("delete is audited", func() {
		s.mockAccounts.EXPECT().Delete(gomock.Any(), int64(2)).Return(int64(1), nil)
		s.mockAudit.EXPECT().Record(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry audit.Entry) error {
				s.Equal(audit.ActionAccountDeleted, entry.Action)
				return nil
			})

		s.NoError(s.service.DeleteAccount(ctx, 2))
	})

	s.Run("audit append failure fails the delete", func() {
		s.mockAccounts.EXPECT().Delete(gomock.Any(), int64(2)).Return(int64(1), nil)
		s.mockAudit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("trail down"))

		err := s.service.DeleteAccount(ctx, 2)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("missing account maps to not found", func() {
		s.mockAccounts.EXPECT().Delete(gomock.Any(), int64(9)).Return(int64(0), nil)

		err := s.service.DeleteAccount(ctx, 9)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *IdentityServiceSuite) TestAuthenticate() {
	ctx := context.Background()

	s.Run("unknown email fails without subject", func() {
		s.mockAccounts.EXPECT().GetByEmail(gomock.Any(), "ghost@b.com").Return(identity.Account{}, sentinel.ErrNotFound)
		s.mockAudit.EXPECT().Record(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry audit.Entry) error {
				s.Equal(audit.ActionLoginFailed, entry.Action)
				s.Nil(entry.SubjectID)
				s.Equal("email not found", entry.Detail)
				return nil
			})

		account, err := s.service.Authenticate(ctx, "ghost@b.com", "whatever")
		s.NoError(err)
		s.Nil(account)
	})

	s.Run("inactive account fails without checking the password", func() {
		s.mockAccounts.EXPECT().GetByEmail(gomock.Any(), "a@b.com").
			Return(identity.Account{ID: 1, Email: "a@b.com", Active: false}, nil)
		s.mockAudit.EXPECT().Record(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry audit.Entry) error {
				s.Equal("account inactive", entry.Detail)
				return nil
			})

		account, err := s.service.Authenticate(ctx, "a@b.com", "secret")
		s.NoError(err)
		s.Nil(account)
	})

	s.Run("password mismatch fails with the subject", func() {
		s.mockAccounts.EXPECT().GetByEmail(gomock.Any(), "a@b.com").
			Return(identity.Account{ID: 1, Email: "a@b.com", PasswordHash: "hash", Active: true}, nil)
		s.mockHasher.EXPECT().Verify("wrong", "hash").Return(false)
		s.mockAudit.EXPECT().Record(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry audit.Entry) error {
				s.Equal("password mismatch", entry.Detail)
				s.Require().NotNil(entry.SubjectID)
				s.Equal(int64(1), *entry.SubjectID)
				return nil
			})

		account, err := s.service.Authenticate(ctx, "a@b.com", "wrong")
		s.NoError(err)
		s.Nil(account)
	})

	s.Run("valid credentials succeed", func() {
		s.mockAccounts.EXPECT().GetByEmail(gomock.Any(), "a@b.com").
			Return(identity.Account{ID: 1, Email: "a@b.com", PasswordHash: "hash", Active: true}, nil)
		s.mockHasher.EXPECT().Verify("secret", "hash").Return(true)
		s.mockAudit.EXPECT().Record(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry audit.Entry) error {
				s.Equal(audit.ActionLoginSucceeded, entry.Action)
				return nil
			})

		account, err := s.service.Authenticate(ctx, "a@b.com", "secret")
		s.NoError(err)
		s.Require().NotNil(account)
		s.Equal(int64(1), account.ID)
	})

	s.Run("audit append failure turns a failed login into an error", func() {
		s.mockAccounts.EXPECT().GetByEmail(gomock.Any(), "ghost@b.com").Return(identity.Account{}, sentinel.ErrNotFound)
		s.mockAudit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("trail down"))

		_, err := s.service.Authenticate(ctx, "ghost@b.com", "whatever")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
