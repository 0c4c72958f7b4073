package notify

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPercent renders a discount fraction for display, e.g. 0.3667 → "36.7%".
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// FormatPrice renders a price with a currency symbol and no trailing zeros,
// e.g. 3.8 → "$3.8".
func FormatPrice(price float64) string {
	return "$" + strconv.FormatFloat(price, 'f', -1, 64)
}

// DesktopMessage renders the short alert shown as a desktop notification.
func DesktopMessage(a Alert) (string, string) {
	title := "🎉 Best Yochi Deal Found!"
	body := fmt.Sprintf("%s\nNow %s (%s off!)", a.Flavor, FormatPrice(a.Price), a.Percent)
	return title, body
}

// EmailMessage renders the plain-text email; the title is the subject line.
func EmailMessage(a Alert) (string, string) {
	subject := fmt.Sprintf("Best Yochi Deal - %s Off!", a.Percent)

	var b strings.Builder
	b.WriteString("🎉 Great news! Best Yochi deal found at Coles!\n\n")
	fmt.Fprintf(&b, "🏆 BEST DEAL: %s\n", a.Flavor)
	fmt.Fprintf(&b, "💰 Price: %s\n", FormatPrice(a.Price))
	fmt.Fprintf(&b, "🔥 Discount: %s off!\n", a.Percent)
	if len(a.Alternatives) > 0 {
		b.WriteString("\nOther options available:\n")
		for _, alt := range a.Alternatives {
			fmt.Fprintf(&b, "• %s\n", alt)
		}
	}
	fmt.Fprintf(&b, "\n🛒 Shop now: %s\n\nHappy shopping!", a.ShopURL)

	return subject, b.String()
}

// TelegramMessage renders the HTML message body; Telegram has no title concept.
func TelegramMessage(a Alert) (string, string) {
	var b strings.Builder
	b.WriteString("🎉 <b>Best Yochi Deal Found!</b>\n\n")
	fmt.Fprintf(&b, "🏆 <b>BEST DEAL:</b> %s\n", a.Flavor)
	fmt.Fprintf(&b, "💰 <b>Price:</b> %s\n", FormatPrice(a.Price))
	fmt.Fprintf(&b, "🔥 <b>Discount:</b> %s off!\n", a.Percent)
	if len(a.Alternatives) > 0 {
		b.WriteString("\n📋 <b>Other options:</b>\n")
		for _, alt := range a.Alternatives {
			fmt.Fprintf(&b, "• %s\n", alt)
		}
	}
	fmt.Fprintf(&b, "\n<a href=%q>🛒 Shop Now at Coles</a>\n\nHappy shopping! 🛍️", a.ShopURL)

	return "", b.String()
}
