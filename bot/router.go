// Package bot answers the NeonX Telegram bot's commands and delivers
// triggered price alerts.
package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"

	"neonx-web/alerts"
	"neonx-web/clipboard"
	"neonx-web/community"
	"neonx-web/errs"
	"neonx-web/models"
	"neonx-web/notifier"
	"neonx-web/series"
)

// PriceSource returns the latest live price.
type PriceSource interface {
	GetLatest(ctx context.Context, symbol string) (models.PriceSnapshot, error)
}

// AlertService is the part of alerts.Manager the router uses.
type AlertService interface {
	Add(ctx context.Context, userID, chatID string, typ models.AlertType, threshold float64) (models.Alert, error)
	Remove(ctx context.Context, userID string, position int) (models.Alert, error)
	List(ctx context.Context, userID string) ([]models.Alert, error)
}

// CommunityService is the part of community.Manager the router uses.
type CommunityService interface {
	RegisterActivity(ctx context.Context, u models.User) error
	Stats(ctx context.Context) (models.CommunityStats, error)
}

// Sender delivers a message to a chat.
type Sender interface {
	SendTo(ctx context.Context, chatID, text string) error
}

type Router struct {
	Symbol       string
	TokenAddress string
	Prices       PriceSource
	Alerts       AlertService
	Sender       Sender
	Countdown    func() models.CountdownParts
	Community    CommunityService
	Links        models.Links
}

const commandList = `/info - Token information
/price - Latest NeonX price
/buy - How to buy NeonX
/links - Official links
/stats - Community statistics
/address - Token contract address
/countdown - Time left until launch
/alert_above &lt;price&gt; - Alert when price rises to a level
/alert_below &lt;price&gt; - Alert when price falls to a level
/alert_change &lt;percent&gt; - Alert on a large move
/alerts - List your alerts
/remove &lt;number&gt; - Remove an alert
/help - Show this message`

const helpText = "<b>NeonX Bot</b>\n\n" + commandList

const (
	phantomURL  = "https://phantom.app/"
	solflareURL = "https://solflare.com/"
)

// Handle answers one message. It satisfies notifier.CommandHandler.
func (r *Router) Handle(ctx context.Context, msg notifier.Message) string {
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return ""
	}
	command := strings.ToLower(fields[0])
	if at := strings.IndexByte(command, '@'); at > 0 {
		command = command[:at]
	}
	args := fields[1:]

	r.registerActivity(ctx, msg)

	switch command {
	case "/start":
		return r.start(msg)
	case "/help":
		return helpText
	case "/info":
		return r.info()
	case "/price":
		return r.price(ctx)
	case "/buy":
		return r.buy()
	case "/links":
		return r.links()
	case "/stats":
		return r.stats(ctx)
	case "/address":
		return r.address(ctx, msg.ChatID)
	case "/countdown":
		return r.countdown()
	case "/alert_above":
		return r.addAlert(ctx, msg, models.AlertPriceAbove, args)
	case "/alert_below":
		return r.addAlert(ctx, msg, models.AlertPriceBelow, args)
	case "/alert_change":
		return r.addAlert(ctx, msg, models.AlertPercentChange, args)
	case "/alerts":
		return r.listAlerts(ctx, msg.UserID)
	case "/remove":
		return r.removeAlert(ctx, msg.UserID, args)
	}
	if strings.HasPrefix(command, "/") {
		return "Sorry, I didn't understand that command. Use /help to see what I can do."
	}
	return ""
}

func (r *Router) registerActivity(ctx context.Context, msg notifier.Message) {
	if r.Community == nil || msg.UserID == "" {
		return
	}
	err := r.Community.RegisterActivity(ctx, models.User{
		ID:        msg.UserID,
		Username:  msg.Username,
		FirstName: msg.FirstName,
		LastName:  msg.LastName,
	})
	if err != nil {
		log.Printf("[WARN] register activity for %s: %v", msg.UserID, err)
	}
}

func (r *Router) start(msg notifier.Message) string {
	name := msg.FirstName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("🚀 <b>Welcome to the NeonX Bot, %s!</b> 🚀\n\n", html.EscapeString(name)) +
		"NeonX is the Solana meme coin lighting up the chain.\n\n" + commandList
}

func (r *Router) tokenAddress() string {
	addr := strings.TrimSpace(r.TokenAddress)
	if addr == "" {
		return "not published yet"
	}
	return "<code>" + html.EscapeString(addr) + "</code>"
}

func (r *Router) info() string {
	var b strings.Builder
	b.WriteString("💡 <b>NeonX Token Information</b> 💡\n\n")
	b.WriteString("Name: NeonX\n")
	b.WriteString(fmt.Sprintf("Symbol: %s\n", html.EscapeString(r.Symbol)))
	b.WriteString("Blockchain: Solana\n")
	b.WriteString(fmt.Sprintf("Total supply: 1,000,000,000 %s\n", html.EscapeString(r.Symbol)))
	b.WriteString("Token address: " + r.tokenAddress() + "\n")
	b.WriteString("Created on: pump.fun\n\n")
	b.WriteString("NeonX is a community-driven meme coin with no utility or intrinsic value. " +
		"Always do your own research before trading meme coins.")
	if r.Links.PumpFun != "" {
		b.WriteString("\n\n" + link("🔍 View on pump.fun", r.Links.PumpFun))
	}
	return b.String()
}

func (r *Router) buy() string {
	var b strings.Builder
	b.WriteString("🛒 <b>How to Buy NeonX</b> 🛒\n\n")
	b.WriteString("Step 1: Create a Solana wallet (" + link("Phantom", phantomURL) + ", " + link("Solflare", solflareURL) + ")\n")
	b.WriteString("Step 2: Buy SOL on an exchange and transfer it to your wallet\n")
	b.WriteString("Step 3: Visit pump.fun or MEXC DEX and connect your wallet\n")
	b.WriteString("Step 4: Enter the NeonX token address if asked: " + r.tokenAddress() + "\n")
	b.WriteString("Step 5: Choose how much SOL to swap and confirm the transaction\n\n")
	b.WriteString("Always do your own research before investing!")
	if l := linkLines(
		namedLink{"🚀 Buy on pump.fun", r.Links.PumpFun},
		namedLink{"📊 Trade on MEXC DEX", r.Links.MEXC},
	); l != "" {
		b.WriteString("\n\n" + l)
	}
	return b.String()
}

func (r *Router) links() string {
	l := linkLines(
		namedLink{"🌐 Website", r.Links.Website},
		namedLink{"🚀 Buy on pump.fun", r.Links.PumpFun},
		namedLink{"📊 Trade on MEXC DEX", r.Links.MEXC},
		namedLink{"💬 Telegram Group", r.Links.TelegramGroup},
		namedLink{"🐦 Twitter", r.Links.Twitter},
	)
	if l == "" {
		return "No official links have been published yet."
	}
	return "🔗 <b>Official NeonX Links</b> 🔗\n\n" + l
}

type namedLink struct {
	label, url string
}

// linkLines renders the links that have a URL, one per line.
func linkLines(links ...namedLink) string {
	var lines []string
	for _, l := range links {
		if l.url != "" {
			lines = append(lines, link(l.label, l.url))
		}
	}
	return strings.Join(lines, "\n")
}

func link(label, url string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), label)
}

func (r *Router) stats(ctx context.Context) string {
	if r.Community == nil {
		return "Community statistics are not available."
	}
	stats, err := r.Community.Stats(ctx)
	if err != nil {
		log.Printf("[ERROR] community stats: %v", err)
		return "Could not load community statistics, please try again later."
	}

	msg := community.FormatStats(stats)
	if snap, err := r.Prices.GetLatest(ctx, r.Symbol); err == nil {
		msg += fmt.Sprintf("\n\n💰 <b>Current Price</b>\nPrice: %s (%s)",
			series.FormatPrice(snap.Price), series.FormatChange(snap.ChangePercent))
	}
	return msg
}

func (r *Router) price(ctx context.Context) string {
	snap, err := r.Prices.GetLatest(ctx, r.Symbol)
	if errors.Is(err, errs.ErrNotFound) {
		return "Price data is not available yet. Please try again in a moment."
	}
	if err != nil {
		log.Printf("[ERROR] read latest price: %v", err)
		return "Could not fetch the price right now."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("💰 <b>%s Price</b>\n\n", html.EscapeString(snap.Symbol)))
	b.WriteString(fmt.Sprintf("Price: %s (%s)\n", series.FormatPrice(snap.Price), series.FormatChange(snap.ChangePercent)))
	b.WriteString(fmt.Sprintf("Session high: %s\n", series.FormatPrice(snap.High)))
	b.WriteString(fmt.Sprintf("Session low: %s\n", series.FormatPrice(snap.Low)))
	b.WriteString(fmt.Sprintf("Updated: %s", snap.UpdatedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	return b.String()
}

func (r *Router) address(ctx context.Context, chatID string) string {
	var w clipboard.Writer
	if r.Sender != nil {
		w = clipboard.WriterFunc(func(ctx context.Context, text string) error {
			return r.Sender.SendTo(ctx, chatID, "<code>"+html.EscapeString(text)+"</code>")
		})
	}

	_, err := clipboard.CopyAddress(ctx, w, r.TokenAddress)
	switch {
	case err == nil:
		return "Tap the address above to copy it."
	case errors.Is(err, errs.ErrInvalidArgument):
		return "The token address has not been published yet."
	default:
		return "Token address: <code>" + html.EscapeString(strings.TrimSpace(r.TokenAddress)) + "</code>"
	}
}

func (r *Router) countdown() string {
	if r.Countdown == nil {
		return "No launch countdown is running."
	}
	p := r.Countdown()
	if p.Done {
		return "🚀 NeonX has launched!"
	}
	return fmt.Sprintf("⏳ Launch in %sd %sh %sm %ss", p.Days, p.Hours, p.Minutes, p.Seconds)
}

func (r *Router) addAlert(ctx context.Context, msg notifier.Message, typ models.AlertType, args []string) string {
	if len(args) != 1 {
		return fmt.Sprintf("Usage: /%s &lt;value&gt;", commandFor(typ))
	}
	threshold, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimPrefix(args[0], "$"), "%"), 64)
	if err != nil {
		return "Please give a number, for example /" + commandFor(typ) + " " + exampleFor(typ)
	}

	_, err = r.Alerts.Add(ctx, msg.UserID, msg.ChatID, typ, threshold)
	switch {
	case err == nil:
		return "✅ Alert added. Use /alerts to see all of your alerts."
	case errors.Is(err, errs.ErrDuplicate):
		return "You already have that alert."
	case errors.Is(err, errs.ErrInvalidArgument):
		return "The value must be a positive number."
	default:
		log.Printf("[ERROR] add alert: %v", err)
		return "Could not save your alert, please try again later."
	}
}

func (r *Router) listAlerts(ctx context.Context, userID string) string {
	list, err := r.Alerts.List(ctx, userID)
	if err != nil {
		log.Printf("[ERROR] list alerts: %v", err)
		return "Could not load your alerts, please try again later."
	}
	return alerts.FormatList(list)
}

func (r *Router) removeAlert(ctx context.Context, userID string, args []string) string {
	if len(args) != 1 {
		return "Usage: /remove &lt;number&gt;"
	}
	pos, err := strconv.Atoi(args[0])
	if err != nil {
		return "Please give the alert number shown by /alerts."
	}

	_, err = r.Alerts.Remove(ctx, userID, pos)
	switch {
	case err == nil:
		return "🗑 Alert removed."
	case errors.Is(err, errs.ErrNotFound):
		return "No alert with that number. Use /alerts to see your alerts."
	default:
		log.Printf("[ERROR] remove alert: %v", err)
		return "Could not remove your alert, please try again later."
	}
}

func commandFor(typ models.AlertType) string {
	switch typ {
	case models.AlertPriceAbove:
		return "alert_above"
	case models.AlertPriceBelow:
		return "alert_below"
	}
	return "alert_change"
}

func exampleFor(typ models.AlertType) string {
	if typ == models.AlertPercentChange {
		return "5"
	}
	return "0.00013"
}
