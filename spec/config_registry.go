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
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/strikelab/errs"
)

// GetLabSettingByYAML 讀取 YAML 設定（嚴格模式：未知欄位即報錯），初始化並檢查後回傳。
func GetLabSettingByYAML(data []byte) (*LabSetting, error) {
	ls := &LabSetting{}
	if err := decodeStrictYAML(data, ls); err != nil {
		return nil, err
	}
	if err := ls.init(); err != nil {
		return nil, errs.Wrap(err, "lab setting initialized err")
	}
	return ls, nil
}

// GetLabSettingByJSON 讀取 JSON 設定，初始化並檢查後回傳。
func GetLabSettingByJSON(data []byte) (*LabSetting, error) {
	ls := &LabSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ls); err != nil {
		return nil, errs.WrapKind(err, errs.Fatal, errs.KindConfiguration, "can not unmarshall json byte")
	}
	if err := ls.init(); err != nil {
		return nil, errs.Wrap(err, "lab setting initialized err")
	}
	return ls, nil
}

// GetLabSettingFromFS 依副檔名從 fs.FS 讀取設定（.yaml/.yml/.json）。
func GetLabSettingFromFS(fsys fs.FS, name string) (*LabSetting, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.WrapKind(err, errs.Fatal, errs.KindConfiguration, "read config "+name)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return GetLabSettingByYAML(data)
	case ".json":
		return GetLabSettingByJSON(data)
	default:
		return nil, errs.Configurationf("unsupported config extension: %s", name)
	}
}
