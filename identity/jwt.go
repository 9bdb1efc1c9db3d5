// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package identity

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zintix-labs/strikelab/errs"
)

// Claims 玩家 token。Subject 為玩家 ID。
type Claims struct {
	Address string `json:"addr,omitempty"`
	jwt.RegisteredClaims
}

// JWT 以 HS256 驗證 context 內的 bearer token。
type JWT struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

func NewJWT(secret []byte, issuer string) *JWT {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &JWT{secret: secret, issuer: issuer, parser: jwt.NewParser(opts...)}
}

func (j *JWT) Mode() Mode { return ModeAuthenticated }

func (j *JWT) Identify(ctx context.Context) (Player, error) {
	if err := ctx.Err(); err != nil {
		return Player{}, err
	}
	raw := CredentialFrom(ctx)
	if raw == "" {
		return Player{}, errs.Unauthorizedf("missing bearer token")
	}
	claims := &Claims{}
	_, err := j.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil {
		return Player{}, errs.WrapKind(err, errs.Warn, errs.KindUnauthorized, "invalid token")
	}
	if claims.Subject == "" {
		return Player{}, errs.Unauthorizedf("token has no subject")
	}
	return Player{ID: claims.Subject, Address: claims.Address}, nil
}

// Issue 簽發玩家 token（開發工具與測試用）。
func (j *JWT) Issue(playerID, address string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}
