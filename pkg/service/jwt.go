package service

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	apperrors "property-billing/pkg/errors"
)

type JwtCustomClaim struct {
	UserID          uint64 `json:"user_id"`
	Username        string `json:"username"`
	RealName        string `json:"real_name"`
	CommunityNumber int    `json:"community_num"`
	Role            string `json:"role"`
	jwt.RegisteredClaims
}

// TokenSubject: данные пользователя, которые попадают в токен.
type TokenSubject struct {
	UserID          uint64
	Username        string
	RealName        string
	CommunityNumber int
	Role            string
}

type JWTService interface {
	GenerateToken(subject TokenSubject) (string, time.Time, error)
	ValidateToken(tokenString string) (*JwtCustomClaim, error)
}

type jwtService struct {
	secretKey []byte
	location  *time.Location
	now       func() time.Time
}

func NewJWTService(secretKey string, location *time.Location) JWTService {
	return newJWTService(secretKey, location, time.Now)
}

func newJWTService(secretKey string, location *time.Location, now func() time.Time) *jwtService {
	if location == nil {
		location = time.Local
	}
	return &jwtService{secretKey: []byte(secretKey), location: location, now: now}
}

// EndOfDay: 23:59:59 того же календарного дня в зоне loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc)
}

// GenerateToken выдаёт токен, действующий до конца текущих суток.
func (s *jwtService) GenerateToken(subject TokenSubject) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := EndOfDay(issuedAt, s.location)

	claims := &JwtCustomClaim{
		UserID:          subject.UserID,
		Username:        subject.Username,
		RealName:        subject.RealName,
		CommunityNumber: subject.CommunityNumber,
		Role:            subject.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *jwtService) ValidateToken(tokenString string) (*JwtCustomClaim, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaim{}, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			return s.secretKey, nil
		default:
			return nil, apperrors.ErrInvalidSigningMethod
		}
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, errors.Join(apperrors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JwtCustomClaim)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}
