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

// Package corefmt 處理 PRNG 狀態快照與鏈上亂數的文字編碼。
//
// 快照本身是 []byte；JSON/HTTP 傳輸一律用 Base64URL（無 padding），日誌與交易雜湊用 hex。
package corefmt

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/zintix-labs/strikelab/errs"
)

func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.WrapKind(err, errs.Warn, errs.KindNone, "decode base64url failed")
	}
	return b, nil
}

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.WrapKind(err, errs.Warn, errs.KindNone, "decode hex failed")
	}
	return b, nil
}

// EncodeHex0x 以 0x 前綴輸出（交易雜湊、開刮亂數）。
func EncodeHex0x(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeHex0x 接受有無 0x 前綴的 hex 字串。
func DecodeHex0x(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return DecodeHex(s)
}

// Seed32 把 0x hex 解成 32 bytes 開刮亂數；長度不符回傳錯誤。
func Seed32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := DecodeHex0x(s)
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, errs.Warnf("seed must be 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
