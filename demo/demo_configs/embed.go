package demo_configs

import (
	"embed"
)

// FS provides the embedded default lab setting.
//
//go:embed *.yaml
var FS embed.FS

// Default 預設設定檔名稱。
const Default = "strike.yaml"
