package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/workshift/shift-tracker/internal/core/domain"
	"github.com/workshift/shift-tracker/internal/core/ports"
)

// ReplyTimeLayout is how times appear in chat replies.
const ReplyTimeLayout = "15:04 02.01.2006"

const (
	msgAlreadyActive = "⚠️ You already have an active shift!"
	msgNoActiveShift = "ℹ️ You have no active shift!"
	msgNoShifts      = "📭 You have no shifts yet"
	msgNoData        = "📭 No shift data"
	msgAccessDenied  = "⛔ Access denied"
	msgFailure       = "⚠️ Something went wrong, please try again later"
)

func helpText(loc *time.Location, admin bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👋 Hi! I keep track of work shifts (%s time).\n\n", loc)
	b.WriteString("📌 Commands:\n")
	b.WriteString("/start_shift - Start a shift\n")
	b.WriteString("/end_shift - End your shift\n")
	b.WriteString("/my_shifts - Your recent shifts\n")
	if admin {
		b.WriteString("\n🔑 Admin:\n")
		b.WriteString("/export - Excel report of all shifts\n")
		b.WriteString("/stats - Per-employee statistics\n")
	}
	return b.String()
}

func startedText(rec *domain.ShiftRecord, loc *time.Location) string {
	return "✅ Shift started at " + rec.StartTime.In(loc).Format(ReplyTimeLayout)
}

func endedText(res *ports.EndShiftResult, loc *time.Location) string {
	return fmt.Sprintf("⏹ Shift ended at %s\n⏱ Duration: %s",
		res.Record.EndTime.In(loc).Format(ReplyTimeLayout),
		domain.FormatDuration(res.Duration),
	)
}

func historyText(entries []ports.HistoryEntry, loc *time.Location) string {
	if len(entries) == 0 {
		return msgNoShifts
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 Your recent shifts (%s):\n\n", loc)
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. 🟢 %s\n", i+1, e.Record.StartTime.In(loc).Format(ReplyTimeLayout))
		if e.Record.EndTime == nil || e.Duration == nil {
			b.WriteString("   🟠 In progress\n\n")
			continue
		}
		fmt.Fprintf(&b, "   🔴 %s\n", e.Record.EndTime.In(loc).Format(ReplyTimeLayout))
		fmt.Fprintf(&b, "   ⏱ %s\n\n", domain.FormatDuration(*e.Duration))
	}
	return b.String()
}

// statsText renders HTML for Telegram's ModeHTML; names are escaped.
func statsText(stats []ports.UserStatistics) string {
	if len(stats) == 0 {
		return msgNoData
	}

	var b strings.Builder
	b.WriteString("📈 <b>Employee statistics:</b>\n\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "👤 <b>%s</b>\n", html.EscapeString(s.UserName))
		fmt.Fprintf(&b, "▪ Total shifts: %d\n", s.ShiftCount)
		fmt.Fprintf(&b, "▪ Active: %d\n", s.ActiveCount)
		fmt.Fprintf(&b, "▪ Total hours: %s\n\n", strconv.FormatFloat(s.TotalHours, 'f', -1, 64))
	}
	return b.String()
}

func exportCaption(rows int) string {
	return fmt.Sprintf("📊 Shift report (%d records)", rows)
}
