package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"wellmeet/internal/bot"
	"wellmeet/internal/metrics"
	"wellmeet/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBot(ctx)
		},
	}
}

func runBot(ctx context.Context) error {
	a, err := newApp(ctx, "bot-main")
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, logger := a.cfg, a.logger

	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Error().Msg("Задайте токен бота в config.yaml")
		return errors.New("telegram bot token is not configured")
	}

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	sessions := a.sessionStore()
	bridge := a.quickReservations()
	controller := a.dialogController(sessions, bridge)
	bookings := a.bookingService(bridge)
	notifications := service.NewNotificationService(a.backend, logger)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	tgService, err := service.NewTelegramService(botAPI)
	if err != nil {
		return err
	}

	telegramBot := bot.NewBot(
		tgService, cfg, sessions, controller,
		bookings, notifications,
		bot.NewMetrics(prometheus.DefaultRegisterer), logger,
	)

	go func() {
		<-ctx.Done()
		telegramBot.Stop()
	}()

	logger.Info().Str("dialog_mode", controller.Mode()).Msg("Бот запущен...")
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}
