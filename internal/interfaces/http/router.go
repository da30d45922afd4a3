package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/storelink/transfer-api/internal/application/auth"
	"github.com/storelink/transfer-api/internal/application/sync"
	"github.com/storelink/transfer-api/internal/application/transfer"
	"github.com/storelink/transfer-api/internal/domain/repository"
)

// RouterDeps dependencies for the router.
type RouterDeps struct {
	AuthUC     *auth.UseCase
	Engine     *transfer.Engine
	Queries    *transfer.Queries
	ImportUC   *transfer.ImportUseCase
	Authority  *transfer.AuthorityService
	Fetcher    OrderFetcher
	StoreRepo  repository.StoreRepository
	PDF        IssueNotePDFGenerator
	Dispatcher *sync.Dispatcher
	JWTSecret  string
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (public)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Protected routes (require Bearer token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Store grants (admin only)
	syncHandler := NewSyncHandler(deps.Dispatcher, deps.Authority)
	protected.Post("/auth/grants", syncHandler.RequireAdmin, authHandler.GrantStore)

	// Transfer workflow (protected)
	transferHandler := NewTransferHandler(deps.Engine, deps.Queries, deps.ImportUC, deps.Fetcher, deps.StoreRepo, deps.PDF)
	transfers := protected.Group("/transfers")
	transfers.Get("/orders", transferHandler.ListOrders)
	transfers.Get("/orders/pending", transferHandler.PendingIssues)
	transfers.Get("/orders/:orderNumber", transferHandler.GetOrder)
	transfers.Post("/orders/:orderNumber/import", transferHandler.ImportOrder)
	transfers.Post("/orders/:orderNumber/issues", transferHandler.CreateIssue)
	transfers.Get("/issues/:issueNumber", transferHandler.GetIssue)
	transfers.Get("/issues/:issueNumber/pdf", transferHandler.IssuePDF)
	transfers.Post("/issues/:issueNumber/receipts", transferHandler.CreateReceipt)
	transfers.Get("/receipts/pending", transferHandler.PendingReceipts)
	transfers.Get("/receipts/:receiptNumber", transferHandler.GetReceipt)
	transfers.Get("/summary", transferHandler.Summary)

	// Outbox admin (protected, admin role required)
	syncGroup := protected.Group("/sync", syncHandler.RequireAdmin)
	syncGroup.Get("/failed", syncHandler.ListFailed)
	syncGroup.Post("/failed/:id/requeue", syncHandler.Requeue)
	syncGroup.Delete("/pending/:id", syncHandler.CancelPending)
}
