package user_test

import (
	"net/mail"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

func testValidator(t *testing.T) (*validator.Validate, user.Service) {
	t.Helper()

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	db, err := dummydb.Open()
	require.NoError(t, err)
	conf := &core.Config{
		TestMode:         true,
		AppName:          "Darasa",
		DefaultFromEmail: mail.Address{Name: "Darasa", Address: "noreply@localhost"},
	}
	svc := user.NewService(dummydb.NewUserRepository(db), emailsvc.NewConsoleServiceMock(conf), conf)
	return validate, svc
}

func TestNewUser_Validate_passwordPolicy(t *testing.T) {
	validate, svc := testValidator(t)

	newUser := func(pwd string) user.NewUser {
		return user.NewUser{
			ID:              uuid.New().String(),
			Name:            "John Doe",
			Email:           "john@darasa.dev",
			Password:        pwd,
			PasswordConfirm: pwd,
		}
	}

	tests := []struct {
		name    string
		pwd     string
		wantErr bool
	}{
		{name: "too short", pwd: "short1", wantErr: true},
		{name: "contains whitespace", pwd: "pass word1", wantErr: true},
		{name: "entirely numeric", pwd: "12345678", wantErr: true},
		{name: "too similar to name", pwd: "John Doe1", wantErr: true},
		{name: "too similar to email", pwd: "john@darasa.dev", wantErr: true},
		{name: "ok", pwd: "V3ry$ecret!", wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := newUser(tt.pwd)
			err := nu.Validate(validate, svc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewUser_Validate_roles(t *testing.T) {
	validate, svc := testValidator(t)

	nu := user.NewUser{
		ID:              uuid.New().String(),
		Name:            "John Doe",
		Email:           "john@darasa.dev",
		Password:        "V3ry$ecret!",
		PasswordConfirm: "V3ry$ecret!",
		Role:            "Admin",
	}
	assert.Error(t, nu.Validate(validate, svc))

	nu.Role = ""
	require.NoError(t, nu.Validate(validate, svc))
	assert.Equal(t, user.RoleStudent, nu.Role)

	nu.Role = user.RoleInstructor
	nu.Email = "jane@darasa.dev"
	assert.NoError(t, nu.Validate(validate, svc))
}
