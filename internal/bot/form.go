package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"wellmeet/internal/booking"
	"wellmeet/internal/logging"
	"wellmeet/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cbForm      = "frm:"
	awaitDate   = "date"
	awaitNote   = "request"
	slotsPerRow = 4
)

// formState is the open reservation form of one user. The draft is owned by
// this state; every mutation happens under mu.
type formState struct {
	mu        sync.Mutex
	draft     *booking.Draft
	chatID    int64
	messageID int
	awaiting  string
}

func (f *formState) awaitingInput() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.awaiting != ""
}

func (b *Bot) form(userID int64) *formState {
	v, ok := b.forms.Load(userID)
	if !ok {
		return nil
	}
	return v.(*formState)
}

func (b *Bot) closeForm(userID int64) {
	b.forms.Delete(userID)
}

// openForm replaces any open form of the user with a new one for draft.
func (b *Bot) openForm(ctx context.Context, chatID, userID int64, draft *booking.Draft) {
	f := &formState{draft: draft, chatID: chatID}
	msg, err := b.tgService.SendWithInlineKeyboard(chatID, formatForm(draft), formKeyboard(draft))
	if err != nil {
		logging.FromContext(ctx, b.logger).Error().Err(err).Msg("Failed to send reservation form")
		return
	}
	f.messageID = msg.MessageID
	b.forms.Store(userID, f)
}

func (b *Bot) refreshForm(ctx context.Context, f *formState) {
	kb := formKeyboard(f.draft)
	if _, err := b.tgService.EditMessage(f.chatID, f.messageID, formatForm(f.draft), &kb); err != nil {
		logging.FromContext(ctx, b.logger).Debug().Err(err).Msg("Failed to refresh reservation form")
	}
}

// handleFormCallback applies one form button. data has the cbForm prefix
// stripped, e.g. "time:18:30" or "adult:+".
func (b *Bot) handleFormCallback(ctx context.Context, chatID, userID int64, data string) {
	f := b.form(userID)
	if f == nil {
		b.sendMessage(chatID, msgFormExpired)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	d := f.draft
	action, arg, _ := strings.Cut(data, ":")
	var err error

	switch action {
	case "date":
		if arg == "pick" {
			f.awaiting = awaitDate
			b.sendMessage(chatID, "📆 방문 날짜를 2026-10-25 형식으로 입력해주세요.")
			return
		}
		err = d.SelectQuickDate(arg)
	case "time":
		err = d.SelectTime(arg)
	case "adult":
		if arg == "+" {
			err = d.IncAdults()
		} else {
			err = d.DecAdults()
		}
	case "child":
		if arg == "+" {
			err = d.IncChildren()
		} else {
			err = d.DecChildren()
		}
	case "policy":
		err = d.SetPolicyConsent(!d.PolicyConsent())
	case "privacy":
		err = d.SetPrivacyConsent(!d.PrivacyConsent())
	case "notify":
		prefs := d.Notify()
		switch arg {
		case "sms":
			prefs.SMS = !prefs.SMS
		case "email":
			prefs.Email = !prefs.Email
		case "reminder":
			prefs.Reminder = !prefs.Reminder
		}
		err = d.SetNotify(prefs)
	case "request":
		f.awaiting = awaitNote
		b.sendMessage(chatID, "💬 요청사항을 입력해주세요. (예: 창가 자리 부탁드려요)")
		return
	case "submit":
		b.submitForm(ctx, userID, f)
		return
	case "close":
		b.closeForm(userID)
		if _, err := b.tgService.EditMessage(chatID, f.messageID, "예약 작성을 취소했어요.", nil); err != nil {
			logging.FromContext(ctx, b.logger).Debug().Err(err).Msg("Failed to close form message")
		}
		return
	case "noop":
		return
	}

	if err != nil {
		b.reportError(chatID, err)
		return
	}
	b.refreshForm(ctx, f)
}

// handleFormInput receives the text the form asked for.
func (b *Bot) handleFormInput(ctx context.Context, chatID, userID int64, f *formState, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	switch f.awaiting {
	case awaitDate:
		err = f.draft.SelectDate(text)
	case awaitNote:
		err = f.draft.SetSpecialRequest(sanitizeInput(text))
	}
	if err != nil {
		b.reportError(chatID, err)
		return
	}
	f.awaiting = ""

	// новое сообщение с формой, чтобы она оказалась внизу чата
	msg, sendErr := b.tgService.SendWithInlineKeyboard(chatID, formatForm(f.draft), formKeyboard(f.draft))
	if sendErr != nil {
		logging.FromContext(ctx, b.logger).Error().Err(sendErr).Int64("user_id", userID).Msg("Failed to resend reservation form")
		return
	}
	f.messageID = msg.MessageID
}

func (b *Bot) submitForm(ctx context.Context, userID int64, f *formState) {
	rec, err := b.bookings.Submit(ctx, userID, f.draft)
	if err != nil {
		b.reportError(f.chatID, err)
		return
	}
	b.closeForm(userID)

	text := formatSubmitted(rec, f.draft.EditingID() != "")
	if _, err := b.tgService.EditMessage(f.chatID, f.messageID, text, nil); err != nil {
		b.sendMessage(f.chatID, text)
	}
}

func formatForm(d *booking.Draft) string {
	var sb strings.Builder
	title := "예약하기"
	if d.EditingID() != "" {
		title = "예약 변경"
	}
	sb.WriteString(fmt.Sprintf("📝 %s · %s\n\n", d.Restaurant().Name, title))

	date := "선택해주세요"
	if d.Date() != "" {
		date = d.DateLabel()
	}
	slot := "선택해주세요"
	if d.Time() != "" {
		slot = d.Time()
	}
	request := "없음"
	if d.SpecialRequest() != "" {
		request = d.SpecialRequest()
	}
	sb.WriteString(fmt.Sprintf("📅 날짜: %s\n", date))
	sb.WriteString(fmt.Sprintf("🕐 시간: %s\n", slot))
	sb.WriteString(fmt.Sprintf("👥 인원: %s\n", d.PartySummary()))
	sb.WriteString(fmt.Sprintf("💬 요청사항: %s\n\n", request))

	sb.WriteString("💰 예상 금액\n")
	for _, line := range d.CostBreakdown() {
		sb.WriteString(line.String() + "\n")
	}
	sb.WriteString(fmt.Sprintf("합계: %s원", booking.FormatWon(d.EstimatedCost())))

	if !d.CanSubmit() {
		sb.WriteString("\n\n날짜, 시간, 필수 동의 항목을 선택하면 예약할 수 있어요.")
	}
	return sb.String()
}

func formatSubmitted(rec *models.BookingRecord, modified bool) string {
	head := "✅ 예약이 접수되었어요!"
	if modified {
		head = "✅ 예약이 변경되었어요!"
	}
	var sb strings.Builder
	sb.WriteString(head + "\n\n")
	sb.WriteString(fmt.Sprintf("🍽 %s\n📅 %s %s\n👥 %d명\n", rec.RestaurantName, rec.Date, rec.Time, rec.PartySize))
	sb.WriteString(fmt.Sprintf("💰 %s원\n", booking.FormatWon(rec.EstimatedCost)))
	sb.WriteString(fmt.Sprintf("상태: %s", booking.StatusLabel(rec.Status)))
	if rec.ConfirmationNumber != "" {
		sb.WriteString(fmt.Sprintf("\n예약번호: %s", rec.ConfirmationNumber))
	}
	return sb.String()
}

func check(on bool, label string) string {
	if on {
		return "✅ " + label
	}
	return "⬜ " + label
}

func formKeyboard(d *booking.Draft) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	var dates []tgbotapi.InlineKeyboardButton
	for _, q := range d.QuickDates() {
		dates = append(dates, tgbotapi.NewInlineKeyboardButtonData(mark(q.Date == d.Date(), q.Label), cbForm+"date:"+q.Label))
	}
	dates = append(dates, tgbotapi.NewInlineKeyboardButtonData("📆 직접 입력", cbForm+"date:pick"))
	rows = append(rows, dates)

	grid := d.Grid()
	rows = append(rows, slotRows(grid.Lunch, d.Time())...)
	rows = append(rows, slotRows(grid.Dinner, d.Time())...)

	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("성인 −", cbForm+"adult:-"),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("성인 %d", d.Adults()), cbForm+"noop"),
			tgbotapi.NewInlineKeyboardButtonData("성인 +", cbForm+"adult:+"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("어린이 −", cbForm+"child:-"),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("어린이 %d", d.Children()), cbForm+"noop"),
			tgbotapi.NewInlineKeyboardButtonData("어린이 +", cbForm+"child:+"),
		),
	)

	notify := d.Notify()
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(check(notify.SMS, "SMS"), cbForm+"notify:sms"),
			tgbotapi.NewInlineKeyboardButtonData(check(notify.Email, "이메일"), cbForm+"notify:email"),
			tgbotapi.NewInlineKeyboardButtonData(check(notify.Reminder, "리마인더"), cbForm+"notify:reminder"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(check(d.PolicyConsent(), "예약 정책 동의 (필수)"), cbForm+"policy"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(check(d.PrivacyConsent(), "개인정보 수집 동의 (필수)"), cbForm+"privacy"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 요청사항 입력", cbForm+"request"),
		),
	)

	submit := "🔒 예약하기"
	if d.CanSubmit() {
		submit = fmt.Sprintf("예약하기 · %s원", booking.FormatWon(d.EstimatedCost()))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(submit, cbForm+"submit"),
		tgbotapi.NewInlineKeyboardButtonData("닫기", cbForm+"close"),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func mark(selected bool, label string) string {
	if selected {
		return "• " + label + " •"
	}
	return label
}

func slotRows(slots []string, selected string) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(slots); i += slotsPerRow {
		end := min(i+slotsPerRow, len(slots))
		var row []tgbotapi.InlineKeyboardButton
		for _, s := range slots[i:end] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(mark(s == selected, s), cbForm+"time:"+s))
		}
		rows = append(rows, row)
	}
	return rows
}
