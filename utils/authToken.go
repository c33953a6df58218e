package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/o1egl/paseto"
)

const (
	// Set expiration times for access and refresh tokens.
	AccessTokenExpiry  = 24 * time.Hour
	RefreshTokenExpiry = 7 * 24 * time.Hour
)

const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// TokenClaims struct represents the data in the token.
type TokenClaims struct {
	UserID    string    `json:"userId"`
	OrgID     string    `json:"orgId"`
	Role      string    `json:"role"`
	SessionID string    `json:"sessionId"`
	Kind      string    `json:"kind"`
	Expiry    time.Time `json:"expiry"`
}

// TokenMaker issues and checks PASETO v2 local tokens.
type TokenMaker struct {
	key []byte
	v2  *paseto.V2
	now func() time.Time
}

func NewTokenMaker(symmetricKey []byte) (*TokenMaker, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be 32 bytes long, got %d", len(symmetricKey))
	}
	return &TokenMaker{key: symmetricKey, v2: paseto.NewV2(), now: time.Now}, nil
}

// GenerateTokens generates both the access token and refresh token for a session.
func (m *TokenMaker) GenerateTokens(userID, orgID, role, sessionID string) (accessToken, refreshToken string, err error) {
	accessToken, err = m.GenerateAccessToken(userID, orgID, role, sessionID)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = m.generate(TokenClaims{
		UserID: userID, OrgID: orgID, Role: role, SessionID: sessionID, Kind: TokenKindRefresh,
	}, RefreshTokenExpiry)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// GenerateAccessToken generates only the access token for a user.
func (m *TokenMaker) GenerateAccessToken(userID, orgID, role, sessionID string) (string, error) {
	return m.generate(TokenClaims{
		UserID: userID, OrgID: orgID, Role: role, SessionID: sessionID, Kind: TokenKindAccess,
	}, AccessTokenExpiry)
}

func (m *TokenMaker) generate(claims TokenClaims, expiry time.Duration) (string, error) {
	claims.Expiry = m.now().Add(expiry)
	token, err := m.v2.Encrypt(m.key, claims, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// ValidateToken decrypts the token and checks its kind and expiry.
func (m *TokenMaker) ValidateToken(tokenString, kind string) (*TokenClaims, error) {
	var claims TokenClaims
	if err := m.v2.Decrypt(tokenString, m.key, &claims, nil); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, ErrWrongTokenKind
	}
	if m.now().After(claims.Expiry) {
		return nil, ErrTokenExpired
	}
	if claims.UserID == "" || claims.OrgID == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
