package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/checkpoint"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/metrics"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// maxRows caps each seed table
const maxRows = 10

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("214")).
			Padding(0, 1)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(18)
	alertStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// Summary is everything the report shows about one campaign
type Summary struct {
	CampaignID   string
	State        string
	CurrentRound int
	SeedIndex    int
	Population   []*models.Seed
	Executed     int
	Findings     *checkpoint.Findings
	Stats        *metrics.CampaignStats
}

// Render formats the summary for a terminal
func Render(s Summary) string {
	var b strings.Builder

	id := s.CampaignID
	if id == "" {
		id = "(not started)"
	}
	b.WriteString(titleStyle.Render("scenfuzz campaign " + id))
	b.WriteString("\n\n")

	findings := s.Findings
	if findings == nil {
		findings = &checkpoint.Findings{}
	}

	rows := [][2]string{
		{"state", orDash(s.State)},
		{"current round", humanize.Comma(int64(s.CurrentRound))},
		{"seed index", fmt.Sprintf("%s / %s", humanize.Comma(int64(s.SeedIndex)), humanize.Comma(int64(len(s.Population))))},
		{"initial sweep", humanize.Comma(int64(s.Executed)) + " executions"},
		{"collisions", humanize.Comma(int64(len(findings.Collision)))},
		{"other seeds", humanize.Comma(int64(len(findings.Other)))},
	}
	if st := s.Stats; st != nil && st.Executions > 0 {
		rows = append(rows,
			[2]string{"executions", humanize.Comma(st.Executions)},
			[2]string{"elapsed", elapsed(st.Elapsed)},
			[2]string{"rounds per hour", humanize.CommafWithDigits(st.RoundsPerHour, 1)},
			[2]string{"round time", fmt.Sprintf("mean %.1f ms, p95 %.1f ms", st.RoundMeanMs, st.RoundP95Ms)},
		)
		if st.BestLoss != nil {
			rows = append(rows, [2]string{"best loss", fmt.Sprintf("%.4f", *st.BestLoss)})
		}
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r[0])+r[1])
	}
	b.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n\n")

	if len(findings.Collision) > 0 {
		b.WriteString(alertStyle.Render(fmt.Sprintf("%d collision(s) found", len(findings.Collision))))
		b.WriteString("\n")
		b.WriteString(seedTable(findings.Collision))
		b.WriteString("\n")
	}

	closest := append([]*models.Seed(nil), findings.Other...)
	sort.SliceStable(closest, func(i, j int) bool {
		return closest[i].LossValue() < closest[j].LossValue()
	})
	if len(closest) > 0 {
		b.WriteString(headingStyle.Render("Closest calls"))
		b.WriteString("\n")
		b.WriteString(seedTable(closest))
		b.WriteString("\n")
	}
	return b.String()
}

func seedTable(seeds []*models.Seed) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%8s  %6s  %6s  %6s  %-9s  %9s  %s\n", "round", "p_ego", "p_npc", "v_npc", "result", "loss", "actions")
	for i, s := range seeds {
		if i == maxRows {
			fmt.Fprintf(&b, "  ... %s more\n", humanize.Comma(int64(len(seeds)-maxRows)))
			break
		}
		fmt.Fprintf(&b, "%8d  %6s  %6s  %6s  %-9s  %9s  %s\n",
			s.RoundID,
			param(s.PEgo), param(s.PNpc), param(s.VNpc),
			orDash(string(s.Result())),
			loss(s.LossValue()),
			actions(s.ActionChain))
	}
	return b.String()
}

func param(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func loss(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.4f", v)
}

func actions(chain models.ActionChain) string {
	if len(chain) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(chain))
	for _, a := range chain {
		parts = append(parts, fmt.Sprintf("%s@%d", a.Action, a.Tick))
	}
	return strings.Join(parts, " ")
}

func elapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	start := time.Time{}
	return strings.TrimSpace(humanize.RelTime(start, start.Add(d), "", ""))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
