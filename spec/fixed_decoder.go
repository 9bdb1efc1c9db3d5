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

package spec

import (
	"bytes"

	"github.com/zintix-labs/strikelab/errs"
	"gopkg.in/yaml.v3"
)

// decodeStrictYAML 以 KnownFields 解碼：多寫或拼錯欄位就報錯。
func decodeStrictYAML[T any](data []byte, out *T) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return errs.WrapKind(err, errs.Fatal, errs.KindConfiguration, "spec: decode yaml failed")
	}
	return nil
}

// EncodeYAML 將設定輸出成 YAML，供 GET /v1/labs/{lab}/config 檢視目前生效的設定。
func EncodeYAML(ls *LabSetting) ([]byte, error) {
	bs, err := yaml.Marshal(ls)
	if err != nil {
		return nil, errs.Wrap(err, "spec: marshal yaml failed")
	}
	return bs, nil
}
