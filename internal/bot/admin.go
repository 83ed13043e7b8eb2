package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"feedback-bot/internal/models"
	"feedback-bot/internal/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const adminCallbackPrefix = "fb|"

const (
	msgAccessDenied = "У вас нет доступа к этой команде."
	msgNoFeedback   = "Нет отзывов."
	msgListFailed   = "Ошибка получения отзывов из базы данных."
	msgFirstPage    = "Это первая страница."
	msgLastPage     = "Это последняя страница."

	dateLayout = "2006-01-02"
)

// handleAdminCommand serves "/feedbacks [page] [type] [from] [to]".
// Only the configured operator may call it; everyone else gets a fixed
// denial and no query is issued.
func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From.ID != b.adminID {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, msgAccessDenied))
		return
	}

	page, filter := parseAdminArgs(msg.CommandArguments())
	text, keyboard, _, err := b.renderFeedbackPage(ctx, page, filter)
	if err != nil {
		b.log.Errorf("Error listing feedback (page=%d): %v", page, err)
		b.send(tgbotapi.NewMessage(msg.Chat.ID, msgListFailed))
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyMarkup = keyboard
	b.send(reply)
}

// handleAdminCallback serves the prev/next/page buttons. The callback data
// carries the full filter, so flipping pages never loses it.
func (b *Bot) handleAdminCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From.ID != b.adminID {
		b.answerCallback(cq.ID, msgAccessDenied)
		return
	}

	action, page, filter, ok := decodeAdminCallback(cq.Data)
	if !ok {
		b.answerCallback(cq.ID, "")
		return
	}

	switch action {
	case "prev":
		if page <= 1 {
			// Floor at page 1: acknowledge, do not re-query.
			b.answerCallback(cq.ID, msgFirstPage)
			return
		}
		page--
	case "next":
		page++
	case "page":
		// Idempotent refresh of the same page.
	default:
		b.answerCallback(cq.ID, "")
		return
	}

	text, keyboard, renderedPage, err := b.renderFeedbackPage(ctx, page, filter)
	if err != nil {
		b.log.Errorf("Error listing feedback (page=%d): %v", page, err)
		b.answerCallback(cq.ID, "")
		b.send(tgbotapi.NewMessage(cq.Message.Chat.ID, msgListFailed))
		return
	}
	if action == "next" && renderedPage < page {
		// Clamped: there is no page past the last one.
		b.answerCallback(cq.ID, msgLastPage)
		return
	}

	b.answerCallback(cq.ID, "")
	edit := tgbotapi.NewEditMessageTextAndMarkup(cq.Message.Chat.ID, cq.Message.MessageID, text, keyboard)
	b.send(edit)
}

// renderFeedbackPage runs the filtered count and page fetch, clamps the
// requested page into range and renders the listing plus its navigation
// keyboard. Returns the page actually rendered, which may be lower than the
// one requested.
func (b *Bot) renderFeedbackPage(ctx context.Context, page int64, filter repository.ListFilter) (string, tgbotapi.InlineKeyboardMarkup, int64, error) {
	count, err := b.store.Count(ctx, filter)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, 0, err
	}
	totalPages := repository.TotalPages(count, b.pageSize)
	page = repository.ClampPage(page, totalPages)

	entries, err := b.store.FindPage(ctx, filter, b.pageSize, (page-1)*b.pageSize)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, 0, err
	}

	// With nothing to page through the indicator shows 0 of 0 rather than
	// claiming a first page that does not exist.
	indicatorPage := page
	if totalPages == 0 {
		indicatorPage = 0
	}

	text := renderEntries(entries)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Предыдущая", encodeAdminCallback("prev", page, filter)),
			tgbotapi.NewInlineKeyboardButtonData("Следующая", encodeAdminCallback("next", page, filter)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("Страница %d из %d", indicatorPage, totalPages),
				encodeAdminCallback("page", page, filter),
			),
		),
	)
	return text, keyboard, page, nil
}

func renderEntries(entries []models.Feedback) string {
	if len(entries) == 0 {
		return msgNoFeedback
	}
	blocks := make([]string, 0, len(entries))
	for _, fb := range entries {
		contact := fb.ContactInfo
		if contact == "" {
			contact = "Не указан"
		}
		blocks = append(blocks, fmt.Sprintf("ID: %s\nТип: %s\nОтзыв: %s\nКонтакт: %s\nДата: %s",
			fb.ID.Hex(), fb.FeedbackType, fb.Text, contact, fb.CreatedAt.Format("02.01.2006 15:04")))
	}
	return strings.Join(blocks, "\n\n")
}

// parseAdminArgs parses "[page] [type] [from] [to]". Malformed values fall
// back to their defaults instead of failing.
func parseAdminArgs(args string) (int64, repository.ListFilter) {
	fields := strings.Fields(args)
	page := int64(1)
	var filter repository.ListFilter

	if len(fields) > 0 {
		if p, err := strconv.ParseInt(fields[0], 10, 64); err == nil && p > 0 {
			page = p
		}
	}
	if len(fields) > 1 {
		if t := models.FeedbackType(fields[1]); t.Valid() {
			filter.Type = t
		}
	}
	if len(fields) > 2 {
		if from, err := time.Parse(dateLayout, fields[2]); err == nil {
			filter.From = from
		}
	}
	if len(fields) > 3 {
		if to, err := time.Parse(dateLayout, fields[3]); err == nil {
			filter.To = endOfDay(to)
		}
	}
	return page, filter
}

// endOfDay makes a date-only upper bound inclusive of the whole day,
// sub-second timestamps included.
func endOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// encodeAdminCallback packs the action, page and filter into callback data:
// "fb|<action>|<page>|<type>|<from>|<to>". Empty fields mean "unset".
func encodeAdminCallback(action string, page int64, f repository.ListFilter) string {
	from, to := "", ""
	if !f.From.IsZero() {
		from = f.From.Format(dateLayout)
	}
	if !f.To.IsZero() {
		to = f.To.Format(dateLayout)
	}
	return fmt.Sprintf("%s%s|%d|%s|%s|%s", adminCallbackPrefix, action, page, f.Type, from, to)
}

func decodeAdminCallback(data string) (string, int64, repository.ListFilter, bool) {
	parts := strings.Split(strings.TrimPrefix(data, adminCallbackPrefix), "|")
	if len(parts) != 5 {
		return "", 0, repository.ListFilter{}, false
	}

	page, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || page < 1 {
		page = 1
	}

	var filter repository.ListFilter
	if t := models.FeedbackType(parts[2]); t.Valid() {
		filter.Type = t
	}
	if parts[3] != "" {
		if from, err := time.Parse(dateLayout, parts[3]); err == nil {
			filter.From = from
		}
	}
	if parts[4] != "" {
		if to, err := time.Parse(dateLayout, parts[4]); err == nil {
			filter.To = endOfDay(to)
		}
	}
	return parts[0], page, filter, true
}
