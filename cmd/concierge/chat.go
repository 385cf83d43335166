package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"wellmeet/internal/booking"
	"wellmeet/internal/dialog"
	"wellmeet/internal/models"
	"wellmeet/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the recommendation dialog in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runChat(ctx, userID, os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().Int64VarP(&userID, "user", "u", 1, "User ID of the conversation")
	return cmd
}

func runChat(ctx context.Context, userID int64, in io.Reader, out io.Writer) error {
	a, err := newApp(ctx, "chat")
	if err != nil {
		return err
	}
	defer a.Close()

	bridge := a.quickReservations()
	c := newConsole(out, a.dialogController(a.sessionStore(), bridge), a.bookingService(bridge), userID)
	if err := c.start(ctx); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil || c.handle(ctx, scanner.Text()) {
			break
		}
	}
	return scanner.Err()
}

const chatHelp = `/new          처음부터 다시
/reserve N    추천 목록의 N번 식당 예약 양식 열기
/date D       날짜 (오늘, 내일, 모레 또는 2026-10-25)
/time HH:MM   시간
/adults +|-   성인 인원
/children +|- 어린이 인원
/request TEXT 요청사항
/agree        취소 규정과 개인정보 수집에 동의
/submit       예약 접수
/bookings     예약 목록
/quit         종료
숫자만 입력하면 선택지를 고릅니다.`

var (
	assistantColor = color.New(color.FgCyan)
	optionColor    = color.New(color.FgYellow)
	noticeColor    = color.New(color.FgHiBlack)
	errorColor     = color.New(color.FgRed)
)

// console renders dialog turns to a terminal and routes typed lines.
type console struct {
	out        io.Writer
	controller *dialog.Controller
	bookings   *service.BookingService
	userID     int64

	mu   sync.Mutex
	last models.Turn

	draft *booking.Draft
}

var errNoDraft = errors.New("먼저 /reserve N 으로 예약 양식을 열어주세요")

func newConsole(out io.Writer, controller *dialog.Controller, bookings *service.BookingService, userID int64) *console {
	c := &console{out: out, controller: controller, bookings: bookings, userID: userID}
	controller.OnReply(c.printTurn)
	return c
}

func (c *console) start(ctx context.Context) error {
	noticeColor.Fprintln(c.out, chatHelp)
	_, err := c.controller.Start(ctx, c.userID)
	return err
}

func (c *console) printTurn(_ context.Context, _ *models.ConversationSession, turn models.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = turn

	assistantColor.Fprintf(c.out, "\n🍽  %s\n", turn.Content)
	for i, o := range turn.Options {
		optionColor.Fprintf(c.out, "  [%d] %s\n", i+1, o)
	}
	for i, cand := range turn.Candidates {
		fmt.Fprintf(c.out, "  %d. %s · %s · ⭐ %.1f · %s\n", i+1, cand.Name, cand.Category, cand.Rating, cand.PriceRange)
		if cand.Rationale != "" {
			noticeColor.Fprintf(c.out, "     %s\n", cand.Rationale)
		}
	}
}

func (c *console) lastTurn() models.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// handle processes one input line and reports whether the user quit.
func (c *console) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		noticeColor.Fprintln(c.out, chatHelp)
		return false
	case "/new":
		_, err := c.controller.Reset(ctx, c.userID)
		c.report(err)
		return false
	case "/reserve":
		if len(fields) < 2 {
			c.report(errors.New("사용법: /reserve N"))
			return false
		}
		c.reserve(ctx, fields[1])
		return false
	case "/bookings":
		c.listBookings(ctx)
		return false
	case "/date", "/time", "/adults", "/children", "/request", "/agree":
		c.editDraft(fields[0], strings.TrimSpace(strings.TrimPrefix(line, fields[0])))
		return false
	case "/submit":
		c.submit(ctx)
		return false
	}

	if n, err := strconv.Atoi(line); err == nil {
		if options := c.lastTurn().Options; n >= 1 && n <= len(options) {
			_, err := c.controller.SelectOption(ctx, c.userID, options[n-1])
			c.report(err)
			return false
		}
	}

	_, err := c.controller.Submit(ctx, c.userID, line)
	c.report(err)
	return false
}

func (c *console) reserve(ctx context.Context, arg string) {
	n, err := strconv.Atoi(arg)
	candidates := c.lastTurn().Candidates
	if err != nil || n < 1 || n > len(candidates) {
		c.report(dialog.ErrUnknownCandidate)
		return
	}

	candidate, err := c.controller.ReserveCandidate(ctx, c.userID, candidates[n-1].ID)
	if err != nil {
		c.report(err)
		return
	}
	c.draft = c.bookings.NewDraft(ctx, c.userID, candidate.Ref())
	c.printDraft()
}

func (c *console) editDraft(cmd, arg string) {
	d := c.draft
	if d == nil {
		c.report(errNoDraft)
		return
	}

	var err error
	switch cmd {
	case "/date":
		if strings.Contains(arg, "-") {
			err = d.SelectDate(arg)
		} else {
			err = d.SelectQuickDate(arg)
		}
	case "/time":
		err = d.SelectTime(arg)
	case "/adults":
		err = step(arg, d.IncAdults, d.DecAdults)
	case "/children":
		err = step(arg, d.IncChildren, d.DecChildren)
	case "/request":
		err = d.SetSpecialRequest(arg)
	case "/agree":
		if err = d.SetPolicyConsent(true); err == nil {
			err = d.SetPrivacyConsent(true)
		}
	}
	if err != nil {
		c.report(err)
		return
	}
	c.printDraft()
}

// step applies a +/- counter change.
func step(arg string, inc, dec func() error) error {
	switch arg {
	case "+":
		return inc()
	case "-":
		return dec()
	}
	return errors.New("+ 또는 - 를 입력해주세요")
}

func (c *console) submit(ctx context.Context) {
	if c.draft == nil {
		c.report(errNoDraft)
		return
	}
	rec, err := c.bookings.Submit(ctx, c.userID, c.draft)
	if err != nil {
		c.report(err)
		return
	}
	c.draft = nil

	assistantColor.Fprintf(c.out, "\n✅ 예약이 접수되었어요\n")
	fmt.Fprintf(c.out, "  %s · %s %s · %d명\n", rec.RestaurantName, rec.Date, rec.Time, rec.PartySize)
	fmt.Fprintf(c.out, "  예약번호: %s\n", rec.ConfirmationNumber)
}

func (c *console) printDraft() {
	d := c.draft
	assistantColor.Fprintf(c.out, "\n📝 %s 예약 양식\n", d.Restaurant().Name)
	if d.Date() != "" {
		fmt.Fprintf(c.out, "  📅 %s\n", d.DateLabel())
	}
	if d.Time() != "" {
		fmt.Fprintf(c.out, "  🕐 %s\n", d.Time())
	}
	fmt.Fprintf(c.out, "  👥 %s\n", d.PartySummary())
	for _, l := range d.CostBreakdown() {
		fmt.Fprintf(c.out, "  %s\n", l)
	}
	fmt.Fprintf(c.out, "  합계: %s원\n", booking.FormatWon(d.EstimatedCost()))
	if d.SpecialRequest() != "" {
		fmt.Fprintf(c.out, "  💬 %s\n", d.SpecialRequest())
	}
	if d.CanSubmit() {
		noticeColor.Fprintln(c.out, "  /submit 으로 예약을 접수하세요.")
	} else {
		noticeColor.Fprintln(c.out, "  /date, /time, /agree 를 입력하면 접수할 수 있어요.")
	}
}

func (c *console) listBookings(ctx context.Context) {
	upcoming, past, err := c.bookings.List(ctx)
	if err != nil {
		c.report(err)
		return
	}
	section := func(title string, records []models.BookingRecord) {
		assistantColor.Fprintf(c.out, "\n%s (%d)\n", title, len(records))
		for _, r := range records {
			fmt.Fprintf(c.out, "  #%s %s · %s %s · %d명 · %s\n", r.ID, r.RestaurantName, r.Date, r.Time, r.PartySize, booking.StatusLabel(r.Status))
		}
	}
	section("다가오는 예약", upcoming)
	section("지난 예약", past)
}

func (c *console) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, dialog.ErrInputDisabled):
		noticeColor.Fprintln(c.out, "⏳ 답변을 준비하고 있어요...")
	default:
		errorColor.Fprintf(c.out, "⚠️ %v\n", err)
	}
}
