package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"Stardust/internal/model"
	"Stardust/internal/session"
)

func stardust(v float64) string {
	return humanize.CommafWithDigits(v, 0)
}

// FormatWithdrawal formats a new withdrawal request for the admin chat.
func FormatWithdrawal(p model.Player, w model.Withdrawal) string {
	var b strings.Builder
	b.WriteString("💸 <b>Withdrawal request</b>\n\n")
	b.WriteString(fmt.Sprintf("Player: %s (<code>%s</code>)\n", html.EscapeString(p.DisplayName), p.ID))
	b.WriteString(fmt.Sprintf("Amount: %s stardust\n", stardust(w.Amount)))
	b.WriteString(fmt.Sprintf("Payout: %s\n", w.Payout))
	b.WriteString(fmt.Sprintf("Address: <code>%s</code>\n", html.EscapeString(w.Address)))
	b.WriteString(fmt.Sprintf("Id: <code>%s</code>\n\n", w.ID))
	b.WriteString(fmt.Sprintf("/paid %s %s\n/reject %s %s", p.ID, w.ID, p.ID, w.ID))
	return b.String()
}

// FormatStatus formats a stored player row for /status.
func FormatStatus(snap *model.PlayerSnapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("👤 <b>%s</b> (<code>%s</code>)\n\n", html.EscapeString(snap.DisplayName), snap.ID))
	b.WriteString(fmt.Sprintf("Balance: %s\n", stardust(snap.Balance)))
	b.WriteString(fmt.Sprintf("Level: %d\n", snap.Level))
	b.WriteString(fmt.Sprintf("Stars: %s\n", humanize.Comma(int64(snap.Stars))))
	b.WriteString(fmt.Sprintf("Referrals: %d\n", snap.ReferralCount))
	b.WriteString(fmt.Sprintf("Banned: %v\n", snap.IsBanned))
	if !snap.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Last seen: %s\n", humanize.Time(snap.UpdatedAt)))
	}
	return b.String()
}

// FormatDailyDigest summarizes the local player's day.
func FormatDailyDigest(v session.View, rank int) string {
	p := v.Player
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🌌 <b>Stardust daily</b> | %s\n\n", time.Now().UTC().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("%s, %s\n", html.EscapeString(p.DisplayName), v.Title))
	b.WriteString(fmt.Sprintf("Balance: %s\n", stardust(p.Balance)))
	b.WriteString(fmt.Sprintf("Passive income: %s/h\n", stardust(p.PassiveIncomePerHour)))
	b.WriteString(fmt.Sprintf("Level: %d", p.Level))
	if v.NextLevelRequirement > 0 {
		b.WriteString(fmt.Sprintf(" (next at %s)", stardust(v.NextLevelRequirement)))
	}
	b.WriteString("\n")
	if rank > 0 {
		b.WriteString(fmt.Sprintf("Rank: %s\n", humanize.Ordinal(rank)))
	}
	if p.ConsecutiveDailyClaims > 0 {
		b.WriteString(fmt.Sprintf("Daily streak: %d\n", p.ConsecutiveDailyClaims))
	}
	if v.DailyRewardAvailable {
		b.WriteString("\nDaily reward is waiting ✨")
	}
	return b.String()
}

// FormatHelp lists the admin commands.
func FormatHelp() string {
	return strings.Join([]string{
		"<b>Admin commands</b>",
		"/status &lt;player&gt;",
		"/ban &lt;player&gt;",
		"/unban &lt;player&gt;",
		"/stars &lt;player&gt; &lt;amount&gt;",
		"/level &lt;player&gt; &lt;level&gt;",
		"/paid &lt;player&gt; &lt;withdrawal&gt;",
		"/reject &lt;player&gt; &lt;withdrawal&gt;",
	}, "\n")
}
