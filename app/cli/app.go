package cli

import (
	"fmt"

	"gorm.io/gorm"

	"PosPrint/app/config"
	"PosPrint/app/database"
	"PosPrint/app/printer"
	"PosPrint/app/receipt"
	"PosPrint/app/services"
)

// app holds everything a command that touches the database or printers needs
type app struct {
	cfg       *config.AppConfig
	logger    *services.LoggerService
	db        *gorm.DB
	settings  *services.SettingsService
	menu      *services.MenuService
	transport *printer.Transport
	composer  *receipt.Composer
}

func bootstrap(opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := services.NewLoggerService(cfg.Log.Dir)

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Close()
		return nil, err
	}

	transport := printer.NewTransport(
		printer.WithConnectTimeout(cfg.Printer.ConnectTimeout()),
		printer.WithSettleDelay(cfg.Printer.SettleDelay()),
		printer.WithDrainDelay(cfg.Printer.DrainDelay()),
		printer.WithGracePeriod(cfg.Printer.GracePeriod()),
		printer.WithLogger(logger),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		settings:  services.NewSettingsService(db),
		menu:      services.NewMenuService(db),
		transport: transport,
		composer:  receipt.NewComposer(receipt.WithWidth(cfg.Printer.Width)),
	}, nil
}

// printerService builds the print workflow publishing to publisher
func (a *app) printerService(publisher services.EventPublisher) *services.PrinterService {
	return services.NewPrinterService(a.settings, a.menu, a.composer, a.transport,
		services.WithPublisher(publisher),
		services.WithEventSubject(a.cfg.Events.Subject),
		services.WithPrintLog(a.db),
		services.WithServiceLogger(a.logger),
	)
}

func (a *app) close() {
	if err := database.Close(a.db); err != nil {
		a.logger.LogError("Failed to close database", err)
	}
	a.logger.Close()
}
