package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier 通过 Telegram Bot 推送报警
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier 创建 Telegram 通道。token 为空时返回 nil（通道关闭），
// 调用方据此决定是否加入 Fanout。
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, event AlertEvent) error {
	text := fmt.Sprintf("%s\n\n📊 <b>%s</b> (%s)\n阈值: %.0f%%  实际回撤: %.2f%%\n峰值: $%.8f\n现价: $%.8f\n🔗 https://dexscreener.com/%s/%s",
		severityTag(event.Severity),
		event.TokenSymbol, event.Chain,
		event.Threshold, event.DrawdownPct,
		event.PeakPriceUSD, event.PriceUSD,
		event.Chain, event.PairAddress)

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}
	return nil
}

func severityTag(severity string) string {
	switch severity {
	case "critical":
		return "🔴 <b>价格报警 - CRITICAL</b>"
	case "high":
		return "🟠 <b>价格报警 - HIGH</b>"
	case "medium":
		return "🟡 <b>价格报警 - MEDIUM</b>"
	default:
		return "🟢 <b>价格报警 - LOW</b>"
	}
}
