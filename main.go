package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"InventoryApp/app/config"
	"InventoryApp/app/database"
	"InventoryApp/app/services"
	"InventoryApp/app/websocket"

	"github.com/joho/godotenv"
)

// App holds the service layer and the server exposing it
type App struct {
	LoggerService  *services.LoggerService
	ItemService    *services.ItemService
	StockService   *services.StockService
	RecipeService  *services.RecipeService
	OrderService   *services.OrderService
	FinanceService *services.FinanceService
	WSServer       *websocket.Server
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// initializeServices creates all domain services against the initialized
// database and wires them to the WebSocket server.
func (a *App) initializeServices(port string) {
	a.ItemService = services.NewItemService()
	a.StockService = services.NewStockService()
	a.RecipeService = services.NewRecipeService()
	a.OrderService = services.NewOrderService()
	a.FinanceService = services.NewFinanceService()

	a.WSServer = websocket.NewServer(port)
	a.WSServer.SetRESTHandlers(websocket.NewRESTHandlers(
		a.ItemService,
		a.StockService,
		a.RecipeService,
		a.OrderService,
		a.FinanceService,
	))

	// Committed changes are broadcast to connected clients
	a.StockService.SetEventPublisher(a.WSServer)
	a.OrderService.SetEventPublisher(a.WSServer)
	a.RecipeService.SetEventPublisher(a.WSServer)
}

// shutdown stops the server and closes the database
func (a *App) shutdown() {
	if a.WSServer != nil {
		a.LoggerService.LogInfo("Stopping WebSocket server")
		a.WSServer.Stop()
	}

	if err := database.Close(); err != nil {
		a.LoggerService.LogError("Error closing database", err)
	} else {
		a.LoggerService.LogInfo("Database connection closed successfully")
	}

	a.LoggerService.LogInfo("Application shutdown complete")
}

// serverPort resolves the listen address: WS_PORT overrides config.json
func serverPort(cfg *config.AppConfig) string {
	if env := os.Getenv("WS_PORT"); env != "" {
		return ":" + env
	}
	return ":" + strconv.Itoa(cfg.System.ServerPort)
}

func main() {
	// Initialize logger FIRST to catch all errors
	loggerService := services.NewLoggerService()
	if loggerService == nil {
		fmt.Println("CRITICAL: Logger service failed to initialize")
		os.Exit(1)
	}
	defer loggerService.Close()

	// Recover from any panic and log it
	defer func() {
		if r := recover(); r != nil {
			loggerService.LogPanic(r)
			os.Exit(1)
		}
	}()

	loggerService.LogInfo("Application starting", "Inventory & Recipe Ledger")

	// Load environment variables from .env file in project root (for development)
	if err := godotenv.Load(".env"); err != nil {
		loggerService.LogWarning(".env file not found, will use config.json if available")
	}

	loggerService.LogInfo("Loading configuration")
	cfg, err := config.LoadOrCreate()
	if err != nil {
		loggerService.LogFatal("Failed to load configuration", err)
	}

	loggerService.LogInfo("Initializing database", "Driver: "+cfg.Database.Driver)
	if err := database.InitializeWithConfig(cfg); err != nil {
		loggerService.LogFatal("Failed to initialize database", err)
	}

	// The first run is complete once the database is bootstrapped
	if cfg.FirstRun {
		if err := config.MarkSetupComplete(); err != nil {
			loggerService.LogWarning("Could not mark setup as complete: " + err.Error())
		} else {
			loggerService.LogInfo("First run setup completed")
		}
	}

	app := NewApp()
	app.LoggerService = loggerService

	port := serverPort(cfg)
	loggerService.LogInfo("Initializing services", "Port: "+port)
	app.initializeServices(port)

	go func() {
		defer loggerService.RecoverPanic()
		loggerService.LogInfo("WebSocket server listening", "Port: "+app.WSServer.GetPort())
		if err := app.WSServer.Start(); err != nil {
			loggerService.LogError("WebSocket server error", err)
		}
	}()

	// Drop log files older than 30 days
	go func() {
		defer loggerService.RecoverPanic()
		loggerService.CleanOldLogs(30)
	}()

	// Block until interrupted
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	loggerService.LogInfo("Shutdown signal received")
	app.shutdown()
}
