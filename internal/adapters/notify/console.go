package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Console implementa ports.Notifier escribiendo a stdout.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
// table=true imprime tablas completas; false, una línea compacta por ciclo.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyBet imprime una línea por transición relevante de una apuesta.
func (c *Console) NotifyBet(_ context.Context, bet domain.Bet) error {
	now := time.Now().Format("15:04:05")
	name := domain.TruncateQuestion(bet.Question, bet.MarketID, 40)

	switch bet.State {
	case domain.BetStateOpen:
		fmt.Fprintf(c.out, "[%s] OPEN %s %s $%.2f @ %.2f (p=%.0f%% %s)\n",
			now, bet.Side, name, bet.Stake, bet.EntryPrice, bet.Probability*100, bet.Model)
	case domain.BetStateResolved:
		sign := "+"
		if bet.PnL < 0 {
			sign = "" // el propio número lleva el signo
		}
		fmt.Fprintf(c.out, "[%s] RESOLVED %s %s → %s  PnL %s$%.2f\n",
			now, bet.Side, name, bet.Outcome, sign, bet.PnL)
	case domain.BetStateVoided:
		fmt.Fprintf(c.out, "[%s] VOIDED %s ($%.2f returned): %s\n",
			now, name, bet.Stake, bet.FailReason)
	case domain.BetStateFailed:
		fmt.Fprintf(c.out, "[%s] FAILED %s: %s\n", now, name, bet.FailReason)
	}
	return nil
}

// NotifyCycle imprime el resumen del ciclo: candidatos rankeados y apuestas
// ejecutadas.
func (c *Console) NotifyCycle(_ context.Context, candidates []domain.EdgeCandidate, bets []domain.Bet) error {
	now := time.Now().Format("15:04:05")
	if len(candidates) == 0 {
		fmt.Fprintf(c.out, "[%s] no candidates above EV threshold\n", now)
		return nil
	}

	if c.table {
		c.printCycleTable(candidates, bets)
	} else {
		c.printCycleCompact(now, candidates, bets)
	}
	return nil
}

// printCycleCompact imprime lo esencial del ciclo en una línea.
func (c *Console) printCycleCompact(now string, candidates []domain.EdgeCandidate, bets []domain.Bet) {
	placed := placedCount(bets)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d candidates, %d placed", now, len(candidates), placed)

	shown := 0
	for _, cand := range candidates {
		if shown >= 4 {
			break
		}
		fmt.Fprintf(&sb, " | %s %s ev%+.3f p%.0f%%",
			cand.Side, domain.TruncateQuestion(cand.Question, cand.MarketID, 25), cand.Score, cand.Probability*100)
		shown++
	}
	fmt.Fprintln(c.out, sb.String())
}

// printCycleTable imprime la tabla completa de candidatos del ciclo.
func (c *Console) printCycleTable(candidates []domain.EdgeCandidate, bets []domain.Bet) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] %d candidates — %d placed\n", now, len(candidates), placedCount(bets))

	staked := map[string]float64{}
	for _, bet := range bets {
		if bet.State == domain.BetStateOpen {
			staked[bet.MarketID] = bet.Stake
		}
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Cat", "Market", "Side", "Price", "Prob", "EV", "Pen", "Score", "Conf", "Model", "Stake")

	for i, cand := range candidates {
		stake := "-"
		if s, ok := staked[cand.MarketID]; ok {
			stake = fmt.Sprintf("$%.2f", s)
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(cand.Category),
			domain.TruncateQuestion(cand.Question, cand.MarketID, 38),
			string(cand.Side),
			fmt.Sprintf("%.2f", cand.MarketPrice),
			fmt.Sprintf("%.0f%%", cand.Probability*100),
			fmt.Sprintf("%+.3f", cand.EV),
			fmt.Sprintf("%.3f", cand.Penalty),
			fmt.Sprintf("%+.3f", cand.Score),
			fmt.Sprintf("%.2f", cand.Confidence),
			cand.Model,
			stake,
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  EV = prob − price | Pen = near-resolution discount | Score = EV − Pen")
}

// NotifyReport imprime el reporte de calibración con una fila por decil.
func (c *Console) NotifyReport(_ context.Context, report domain.CalibrationReport) error {
	fmt.Fprintf(c.out, "\n=== CALIBRATION — %d resolved bets ===\n", report.SampleSize)
	fmt.Fprintf(c.out, "  win rate %.1f%% | PnL $%.2f | ROI %+.1f%%\n",
		report.WinRate*100, report.TotalPnL, report.OverallROI*100)

	table := tablewriter.NewWriter(c.out)
	table.Header("Bucket", "Predicted", "Realized", "N", "Gap")

	for bucket := 0; bucket < 10; bucket++ {
		stat, ok := report.Buckets[bucket]
		if !ok {
			continue
		}
		table.Append(
			fmt.Sprintf("%d0-%d9%%", bucket, bucket),
			fmt.Sprintf("%.1f%%", stat.PredictedMean*100),
			fmt.Sprintf("%.1f%%", stat.RealizedRate*100),
			fmt.Sprintf("%d", stat.Count),
			fmt.Sprintf("%+.1f%%", (stat.RealizedRate-stat.PredictedMean)*100),
		)
	}
	table.Render()

	if len(report.PerModel) > 0 {
		models := tablewriter.NewWriter(c.out)
		models.Header("Model", "N", "Predicted", "Realized", "CalErr")
		for name, stat := range report.PerModel {
			models.Append(
				name,
				fmt.Sprintf("%d", stat.Count),
				fmt.Sprintf("%.1f%%", stat.PredictedMean*100),
				fmt.Sprintf("%.1f%%", stat.RealizedRate*100),
				fmt.Sprintf("%.3f", stat.CalibrationError),
			)
		}
		models.Render()
	}
	return nil
}

func placedCount(bets []domain.Bet) int {
	n := 0
	for _, bet := range bets {
		if bet.State == domain.BetStateOpen {
			n++
		}
	}
	return n
}
