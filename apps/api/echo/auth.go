package echoapi

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/member"
	"github.com/sigenerus/sigenerus/core/user"
)

// Principal kinds
const (
	KindUser    = "user"
	KindGenerus = "generus"
)

var (
	contextTokenKey = "userToken"
	contextUserKey  = "user"

	errUnknownKind    = errors.New("unknown principal kind")
	errInvalidSubject = errors.New("invalid subject")
)

type authConfig struct {
	jwt middleware.JWTConfig
}

func newAuthConfig(conf *core.Config) authConfig {
	return authConfig{
		jwt: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

// Claims represents the authorization claims transmitted via a JWT.
// Subject holds the user id for KindUser and the generus id for KindGenerus.
type Claims struct {
	jwt.StandardClaims
	Kind       string `json:"kind"`
	Username   string `json:"username,omitempty"`
	FullName   string `json:"fullName,omitempty"`
	Role       string `json:"role,omitempty"`
	DaerahID   string `json:"daerahId,omitempty"`
	DesaID     string `json:"desaId,omitempty"`
	KelompokID string `json:"kelompokId,omitempty"`
	JenjangID  string `json:"jenjangId,omitempty"`
}

func (c Claims) Valid() error {
	if err := c.StandardClaims.Valid(); err != nil {
		return err
	}
	if c.Kind != KindUser && c.Kind != KindGenerus {
		return errUnknownKind
	}
	if _, err := c.ID(); err != nil {
		return err
	}
	return nil
}

// ID is the numeric id of the principal.
func (c Claims) ID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidSubject
	}
	return id, nil
}

func (c Claims) Actor() core.Actor {
	return core.Actor{ID: c.Subject, Kind: c.Kind, Username: c.Username}
}

func NewUserClaims(usr user.User, issuer string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(usr.ID, 10),
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Kind:       KindUser,
		Username:   usr.Username,
		FullName:   usr.FullName,
		Role:       usr.Role,
		DaerahID:   usr.DaerahID.String,
		DesaID:     usr.DesaID.String,
		KelompokID: usr.KelompokID.String,
	}
}

func NewGenerusClaims(m member.Member, issuer string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(m.ID, 10),
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Kind:       KindGenerus,
		FullName:   m.Nama,
		DaerahID:   m.DaerahID,
		DesaID:     m.DesaID,
		KelompokID: m.KelompokID,
		JenjangID:  m.JenjangID,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc *user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	if claims.Kind != KindUser {
		return user.User{}, errHttpForbidden
	}
	id, err := claims.ID()
	if err != nil {
		return user.User{}, errUnauthorized
	}

	usr, err := svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

// getContextGenerusID returns the member id of a generus principal.
func getContextGenerusID(ctx echo.Context) (int64, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return 0, err
	}
	if claims.Kind != KindGenerus {
		return 0, errHttpForbidden
	}
	id, err := claims.ID()
	if err != nil {
		return 0, errUnauthorized
	}
	return id, nil
}
