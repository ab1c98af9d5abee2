package svc

import (
	"context"
	"encoding/base64"
	"errors"
	"net/mail"
	"time"

	"github.com/dekarrin/koto/server/dao"
	"github.com/dekarrin/koto/server/serr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt cost used for new and updated passwords.
const PasswordHashCost = 14

// Login verifies the provided username and password against the existing
// user in persistence and returns that user if they match.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the credentials do not
// match a user or if the password is incorrect, it will match
// serr.ErrBadCredentials. If the error occured due to an unexpected problem
// with the DB, it will match serr.ErrDB.
func (svc Service) Login(ctx context.Context, username string, password string) (dao.User, error) {
	user, err := svc.DB.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	bcryptHash, err := base64.StdEncoding.DecodeString(user.Password)
	if err != nil {
		return dao.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(bcryptHash, []byte(password)); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	return user, nil
}

// Logout marks the user with the given ID as having logged out, folding a
// fresh LastLogoutTime into future JWT validation so any previously-issued
// token stops verifying (server/token). Returns the user entity that was
// logged out.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the user doesn't exist,
// it will match serr.ErrNotFound. If the error occured due to an unexpected
// problem with the DB, it will match serr.ErrDB.
func (svc Service) Logout(ctx context.Context, who uuid.UUID) (dao.User, error) {
	existing, err := svc.DB.Users().GetByID(ctx, who)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.WrapDB("could not retrieve user", err)
	}

	existing.LastLogoutTime = time.Now()

	updated, err := svc.DB.Users().Update(ctx, existing.ID, existing)
	if err != nil {
		return dao.User{}, serr.WrapDB("could not update user", err)
	}

	return updated, nil
}

// Register creates a new, Unverified-role account. It is the self-service
// analogue of CreateUser, which is reserved for admin-initiated account
// creation at any role.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If a user with that
// username is already present, it will match serr.ErrAlreadyExists. If one
// of the arguments is invalid, it will match serr.ErrBadArgument.
func (svc Service) Register(ctx context.Context, username, password, email string) (dao.User, error) {
	return svc.CreateUser(ctx, username, password, email, dao.Unverified)
}

// CreateUser creates a new user with the given username, password, email,
// and role. Returns the newly-created user as it exists after creation.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If a user with that
// username is already present, it will match serr.ErrAlreadyExists. If the
// error occured due to an unexpected problem with the DB, it will match
// serr.ErrDB. Finally, if one of the arguments is invalid, it will match
// serr.ErrBadArgument.
func (svc Service) CreateUser(ctx context.Context, username, password, email string, role dao.Role) (dao.User, error) {
	if username == "" {
		return dao.User{}, serr.New("username cannot be blank", serr.ErrBadArgument)
	}
	if password == "" {
		return dao.User{}, serr.New("password cannot be blank", serr.ErrBadArgument)
	}

	var storedEmail *mail.Address
	if email != "" {
		var err error
		storedEmail, err = mail.ParseAddress(email)
		if err != nil {
			return dao.User{}, serr.New("email is not valid", err, serr.ErrBadArgument)
		}
	}

	_, err := svc.DB.Users().GetByUsername(ctx, username)
	if err == nil {
		return dao.User{}, serr.New("a user with that username already exists", serr.ErrAlreadyExists)
	} else if !errors.Is(err, dao.ErrNotFound) {
		return dao.User{}, serr.WrapDB("", err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return dao.User{}, serr.New("password is too long", err, serr.ErrBadArgument)
		}
		return dao.User{}, serr.New("password could not be encrypted", err)
	}

	newUser := dao.User{
		Username: username,
		Password: base64.StdEncoding.EncodeToString(passHash),
		Email:    storedEmail,
		Role:     role,
	}

	user, err := svc.DB.Users().Create(ctx, newUser)
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.User{}, serr.ErrAlreadyExists
		}
		return dao.User{}, serr.WrapDB("could not create user", err)
	}

	return user, nil
}

// GetUser returns the user with the given ID.
func (svc Service) GetUser(ctx context.Context, id uuid.UUID) (dao.User, error) {
	user, err := svc.DB.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.WrapDB("could not get user", err)
	}
	return user, nil
}

// UpdatePassword sets the password of the user with the given ID to the new
// password. Returns the updated user.
func (svc Service) UpdatePassword(ctx context.Context, id uuid.UUID, password string) (dao.User, error) {
	if password == "" {
		return dao.User{}, serr.New("password cannot be empty", serr.ErrBadArgument)
	}

	existing, err := svc.DB.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.New("no user with that ID exists", serr.ErrNotFound)
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return dao.User{}, serr.New("password is too long", err, serr.ErrBadArgument)
		}
		return dao.User{}, serr.New("password could not be encrypted", err)
	}

	existing.Password = base64.StdEncoding.EncodeToString(passHash)

	updated, err := svc.DB.Users().Update(ctx, id, existing)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.New("no user with that ID exists", serr.ErrNotFound)
		}
		return dao.User{}, serr.WrapDB("could not update user", err)
	}

	return updated, nil
}
