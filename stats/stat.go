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

package stats

import (
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/strikelab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang language.Tag = language.English

// Confidence 報表所有信賴區間的信心水準。
const Confidence = 0.95

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// StatReport 單一票種的模擬統計報告
type StatReport struct {
	Summary *SummaryReport `json:"Summary"`
	Mult    *MultReport    `json:"Mult"`
	Dist    *DistReport    `json:"Dist"`
	isDone  bool
}

type SummaryReport struct {
	LabName        string    `json:"LabName"`
	Tier           spec.Tier `json:"Tier"`
	PriceUSD       string    `json:"PriceUSD"`
	WinProbability float64   `json:"WinProbability"` // 賠率表設定值
	Rounds         int       `json:"Rounds"`
	Winners        int       `json:"Winners"`
	WinRate        float64   `json:"WinRate"`
	WinRateCI      CI        `json:"WinRateCI"`
	ZScore         float64   `json:"ZScore"` // (觀測中獎率 - 設定值) / 標準誤
	Paid           int       `json:"Paid"`   // 實際派彩張數
	HitRate        float64   `json:"HitRate"`
	HitRateCI      CI        `json:"HitRateCI"`
	TotalCost      string    `json:"TotalCost"`
	TotalPrize     string    `json:"TotalPrize"`
	RTP            float64   `json:"RTP"`
	RtpCI          CI        `json:"RtpCI"`
	Std            float64   `json:"Std"`
}

// MultReport 獎金倍數（獎金 / 票價）累積量
type MultReport struct {
	PrizeMult      float64 `json:"PrizeMult"`
	PrizeMultSqSum float64 `json:"PrizeMultSqSum"` // 平方和
}

// DistReport 連線數、謎題種類與獎項分布
type DistReport struct {
	MatchCollect []int                   `json:"MatchCollect"` // index 即連線數
	MatchDist    []float64               `json:"MatchDist"`
	Kinds        map[spec.PuzzleKind]int `json:"Kinds"`
	KindPaid     map[spec.PuzzleKind]int `json:"KindPaid"`
	Prizes       map[string]int          `json:"Prizes"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	n := s.Summary.Rounds
	s.Summary.WinRate, s.Summary.WinRateCI = ProportionCI(s.Summary.Winners, n, Confidence)
	s.Summary.HitRate, s.Summary.HitRateCI = ProportionCI(s.Summary.Paid, n, Confidence)
	s.Summary.ZScore = ZScore(s.Summary.Winners, n, s.Summary.WinProbability)
	s.Summary.RTP = s.Rtp()
	s.Summary.Std = s.Std()
	s.Summary.RtpCI = s.Ci()

	s.Dist.MatchDist = make([]float64, len(s.Dist.MatchCollect))
	if n > 0 {
		for i, c := range s.Dist.MatchCollect {
			s.Dist.MatchDist[i] = float64(c) / float64(n)
		}
	}
	s.isDone = true
}

// Rtp 回傳整體 RTP（總獎金 / 總票價）
func (s *StatReport) Rtp() float64 {
	if s.Summary.Rounds == 0 {
		return 0
	}
	return s.Mult.PrizeMult / float64(s.Summary.Rounds)
}

// Std 回傳單張獎金倍數的標準差
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)
	variance := (s.Mult.PrizeMultSqSum - s.Mult.PrizeMult*s.Mult.PrizeMult/rounds) / (rounds - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Ci 回傳(95% Rtp)信賴區間
func (s *StatReport) Ci() CI {
	rtp := s.Rtp()
	se := float64(0)
	if s.Summary.Rounds > 1 {
		se = s.Std() / math.Sqrt(float64(s.Summary.Rounds))
	}
	return CI{
		Lo: max(rtp-1.96*se, 0.0),
		Hi: rtp + 1.96*se,
	}
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

func (s *StatReport) StdOut(ut time.Duration) {
	_ = s.WriteWith(os.Stdout, &TableStatReportRender{Used: ut})
}

// ProportionCI Clopper–Pearson 精確信賴區間（k 次成功 / n 次試驗）
func ProportionCI(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// ZScore 觀測比例相對期望機率 p 的標準化偏差。
func ZScore(k int, n int, p float64) float64 {
	if n == 0 || p <= 0 || p >= 1 {
		return 0
	}
	se := math.Sqrt(p * (1 - p) / float64(n))
	return (float64(k)/float64(n) - p) / se
}

// WithinSigma 觀測比例是否落在期望機率 p 的 sigma 倍標準誤之內。
func WithinSigma(k int, n int, p float64, sigma float64) bool {
	return math.Abs(ZScore(k, n, p)) <= sigma
}

// TwoSidedP 雙尾 p 值（常態近似）。
func TwoSidedP(z float64) float64 {
	return 2 * distuv.UnitNormal.Survival(math.Abs(z))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func writeDuration(w io.Writer, d time.Duration, plays int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	pps := int(float64(plays) / sec)
	if sec < 60.0 {
		p.Fprintf(w, "used: %.2f seconds\npps : %d plays/sec\n", sec, pps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Fprintf(w, "used: %dm %ds\npps : %d plays/sec\n", m, s, pps)
		return
	}
	p.Fprintf(w, "used: %dh:%dm:%ds\npps : %d plays/sec\n", h, m, s, pps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	sum := s.Summary
	basic := map[string]string{
		"Lab":             sum.LabName,
		"Tier":            string(sum.Tier),
		"Price":           sum.PriceUSD,
		"Total Plays":     p.Sprintf("%d", sum.Rounds),
		"Win Prob (cfg)":  p.Sprintf("%.2f %%", 100.0*sum.WinProbability),
		"Win Rate":        p.Sprintf("%.2f %%", 100.0*sum.WinRate),
		"Win Rate 95% CI": p.Sprintf("[%.2f%%,%.2f%%]", 100.0*sum.WinRateCI.Lo, 100.0*sum.WinRateCI.Hi),
		"Z Score":         p.Sprintf("%.3f", sum.ZScore),
		"Paid Tickets":    p.Sprintf("%d", sum.Paid),
		"Hit Rate":        p.Sprintf("%.2f %%", 100.0*sum.HitRate),
		"Total Cost":      sum.TotalCost,
		"Total Prize":     sum.TotalPrize,
		"Total RTP":       p.Sprintf("%.2f %%", 100.0*sum.RTP),
		"RTP 95% CI":      p.Sprintf("[%.2f%%,%.2f%%]", 100.0*sum.RtpCI.Lo, 100.0*sum.RtpCI.Hi),
		"STD":             p.Sprintf("%.3f", sum.Std),
	}
	keys := []string{"Lab", "Tier", "Price", "Total Plays", "Win Prob (cfg)", "Win Rate", "Win Rate 95% CI", "Z Score", "Paid Tickets", "Hit Rate", "Total Cost", "Total Prize", "Total RTP", "RTP 95% CI", "STD"}
	return keys, basic
}

func (s *StatReport) fmtDist() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, 16)
	msg := make(map[string]string, 16)
	for i, c := range s.Dist.MatchCollect {
		if c == 0 {
			continue
		}
		k := p.Sprintf("Match %d", i)
		keys = append(keys, k)
		msg[k] = p.Sprintf("%d (%.2f%%)", c, 100.0*s.Dist.MatchDist[i])
	}
	kinds := make([]string, 0, len(s.Dist.Kinds))
	for k := range s.Dist.Kinds {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		key := "Puzzle " + k
		keys = append(keys, key)
		msg[key] = p.Sprintf("%d / paid %d", s.Dist.Kinds[spec.PuzzleKind(k)], s.Dist.KindPaid[spec.PuzzleKind(k)])
	}
	prizes := make([]string, 0, len(s.Dist.Prizes))
	for k := range s.Dist.Prizes {
		prizes = append(prizes, k)
	}
	sort.Strings(prizes)
	for _, k := range prizes {
		key := "Prize " + k
		keys = append(keys, key)
		msg[key] = p.Sprintf("%d", s.Dist.Prizes[k])
	}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := max((totalInner-titleW)/2, 0)
	right := max(totalInner-titleW-left, 0)

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
