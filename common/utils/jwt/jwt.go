// ============================================================================
// JWT 工具
// ============================================================================

package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidConfig = errors.New("invalid auth config")
)

type AuthConfig struct {
	Secret string
	Expire int64 // 秒
}

// Claims 拼团服务只关心用户与所属社区
type Claims struct {
	UserId      uint64 `json:"userId"`
	CommunityId uint64 `json:"communityId"`
	jwt.RegisteredClaims
}

type TokenResult struct {
	Token    string
	ExpireAt int64
}

// GenerateToken 签发访问令牌
func GenerateToken(userId, communityId uint64, cfg AuthConfig) (TokenResult, error) {
	return generateToken(userId, communityId, cfg, time.Now())
}

func generateToken(userId, communityId uint64, cfg AuthConfig, now time.Time) (TokenResult, error) {
	if cfg.Secret == "" || cfg.Expire <= 0 {
		return TokenResult{}, ErrInvalidConfig
	}

	expireAt := now.Add(time.Duration(cfg.Expire) * time.Second)
	claims := Claims{
		UserId:      userId,
		CommunityId: communityId,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expireAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return TokenResult{}, err
	}

	return TokenResult{
		Token:    signed,
		ExpireAt: claims.ExpiresAt.Unix(),
	}, nil
}

// ParseToken 校验签名与有效期
func ParseToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserId > 0 {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// IsTokenExpired 是否因过期导致解析失败
func IsTokenExpired(err error) bool {
	var ve *jwt.ValidationError
	return errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0
}
