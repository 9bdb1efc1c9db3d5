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

// Package identity 玩家身分策略：啟動時依是否設定驗證金鑰選定 Demo 或 JWT，之後不再分支。
package identity

import (
	"context"
	"strings"
)

// Mode 身分策略種類。
type Mode string

const (
	ModeDemo          Mode = "demo"
	ModeAuthenticated Mode = "authenticated"
)

// Player 已識別的玩家。Address 為錢包地址（Demo 模式為空）。
type Player struct {
	ID      string `json:"id"`
	Address string `json:"address,omitempty"`
	Demo    bool   `json:"demo"`
}

// Provider 身分策略。
type Provider interface {
	Mode() Mode
	Identify(ctx context.Context) (Player, error)
}

type credentialKey struct{}

// WithCredential 把呼叫端憑證（bearer token）放進 context。
func WithCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, credentialKey{}, token)
}

// CredentialFrom 取出憑證；沒有時回傳空字串。
func CredentialFrom(ctx context.Context) string {
	s, _ := ctx.Value(credentialKey{}).(string)
	return s
}

// BearerToken 解析 Authorization 標頭；格式不符回傳空字串。
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Select 依設定選擇策略：沒有金鑰就是 Demo。
func Select(secret string, issuer string) Provider {
	if secret == "" {
		return NewDemo(DemoPlayerID)
	}
	return NewJWT([]byte(secret), issuer)
}
