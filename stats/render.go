package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zintix-labs/strikelab/errs"
	"gopkg.in/yaml.v3"
)

// StatReportRender 報表輸出格式。
type StatReportRender interface {
	Write(w io.Writer, r *StatReport) error
}

// RenderFor 依名稱取得輸出格式：table、json、yaml。
func RenderFor(format string, used time.Duration) (StatReportRender, error) {
	switch strings.ToLower(format) {
	case "", "table":
		return &TableStatReportRender{Used: used}, nil
	case "json":
		return &JsonStatReportRender{Indent: true}, nil
	case "yaml", "yml":
		return &YAMLStatReportRender{}, nil
	}
	return nil, errs.Configurationf("unknown report format %q", format)
}

// TableStatReportRender 終端機表格；Used 為模擬耗時，0 時不印速度。
type TableStatReportRender struct {
	Used time.Duration
}

func (tr *TableStatReportRender) Write(w io.Writer, r *StatReport) error {
	if tr.Used > 0 {
		writeDuration(w, tr.Used, r.Summary.Rounds)
	}
	sk, sm := r.fmtBasic()
	if _, err := fmt.Fprintln(w, fmtTable(r.Summary.LabName+" / "+string(r.Summary.Tier), sk, sm)); err != nil {
		return err
	}
	dk, dm := r.fmtDist()
	_, err := fmt.Fprintln(w, fmtTable("Distribution", dk, dm))
	return err
}

// JsonStatReportRender JSON 輸出；Indent 給人看，API 回應不縮排。
type JsonStatReportRender struct {
	Indent bool
}

func (jr *JsonStatReportRender) Write(w io.Writer, r *StatReport) error {
	enc := json.NewEncoder(w)
	if jr.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}

// YAMLStatReportRender YAML 輸出。
//
// 連線數直方圖這類純量陣列與信賴區間 {lo, hi} 以單行 flow style 呈現，其餘維持展開。
type YAMLStatReportRender struct{}

func (yr *YAMLStatReportRender) Write(w io.Writer, r *StatReport) error {
	var node yaml.Node
	if err := node.Encode(r); err != nil {
		return err
	}
	compactLeaves(&node)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(&node)
}

func compactLeaves(n *yaml.Node) {
	if n == nil {
		return
	}
	for _, c := range n.Content {
		compactLeaves(c)
	}
	switch n.Kind {
	case yaml.SequenceNode:
		if allScalar(n.Content) {
			n.Style = yaml.FlowStyle
		}
	case yaml.MappingNode:
		if isInterval(n) {
			n.Style = yaml.FlowStyle
		}
	}
}

func allScalar(ns []*yaml.Node) bool {
	for _, c := range ns {
		if c == nil || c.Kind != yaml.ScalarNode {
			return false
		}
	}
	return true
}

// isInterval 判斷是否為 CI 結構（只有 lo、hi 兩個鍵）。
func isInterval(n *yaml.Node) bool {
	if len(n.Content) != 4 {
		return false
	}
	return strings.EqualFold(n.Content[0].Value, "lo") && strings.EqualFold(n.Content[2].Value, "hi")
}
