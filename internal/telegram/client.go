// Package telegram provides a client for sending run notifications via Telegram Bot API.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/macropanel/internal/dataset"
	"github.com/rewired-gh/macropanel/internal/models"
)

// maxListedFailures bounds the failure lines in one report message.
const maxListedFailures = 15

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError sends a pipeline error notification.
func (c *Client) SendError(runErr error) error {
	text := fmt.Sprintf("⚠️ *Macro panel error*\n`%s`", escapeMarkdownV2(runErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendReport sends the summary of a fetch run.
func (c *Client) SendReport(report models.FetchReport) error {
	return c.sendMarkdownV2(formatReport(report))
}

// SendPrepared sends the shapes produced by a dataset preparation.
func (c *Client) SendPrepared(res *dataset.Result) error {
	return c.sendMarkdownV2(formatPrepared(res))
}

// formatReport formats a fetch report into a Telegram MarkdownV2 message.
func formatReport(report models.FetchReport) string {
	icon := "✅"
	if report.Failed() > 0 {
		icon = "⚠️"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *Macro series fetch*\n\n", icon)
	fmt.Fprintf(&b, "📅 Started: %s\n", escapeMarkdownV2(report.StartedAt.Format("2006-01-02 15:04:05")))
	fmt.Fprintf(&b, "⏱ Duration: %s\n", escapeMarkdownV2(report.Duration().Round(time.Second).String()))
	fmt.Fprintf(&b, "📊 Fetched: *%d/%d*\n", report.Succeeded, report.Requested)

	if report.Failed() > 0 {
		fmt.Fprintf(&b, "\n*Failed series \\(%d\\)*\n", report.Failed())
		for i, f := range report.Failures {
			if i == maxListedFailures {
				fmt.Fprintf(&b, "…and %d more\n", report.Failed()-maxListedFailures)
				break
			}
			fmt.Fprintf(&b, "%d\\. %s `%s`\n", i+1, escapeMarkdownV2(f.DisplayName), escapeMarkdownV2(f.SeriesID))
		}
	}

	fmt.Fprintf(&b, "\nRun `%s`", escapeMarkdownV2(report.RunID))
	return b.String()
}

// formatPrepared formats preparation shapes into a Telegram MarkdownV2 message.
func formatPrepared(res *dataset.Result) string {
	trainRows, cols := res.Train.Dims()
	testRows, _ := res.Test.Dims()

	var b strings.Builder
	b.WriteString("🧮 *Dataset prepared*\n\n")
	fmt.Fprintf(&b, "Original: %s\n", escapeMarkdownV2(res.CleanReport.Input.String()))
	fmt.Fprintf(&b, "Cleaned: %s\n", escapeMarkdownV2(res.CleanReport.Output.String()))
	fmt.Fprintf(&b, "Train: %d rows, %d batches\n", trainRows, res.Train.NumBatches())
	fmt.Fprintf(&b, "Test: %d rows, %d batches\n", testRows, res.Test.NumBatches())
	fmt.Fprintf(&b, "Features: %d\n", cols)

	dropped := append(append([]string(nil), res.CleanReport.DroppedSparse...), res.CleanReport.DroppedNonNumeric...)
	if len(dropped) > 0 {
		fmt.Fprintf(&b, "\nDropped columns: %s\n", escapeMarkdownV2(strings.Join(dropped, ", ")))
	}
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
