package handlers

import (
	"net/http"

	"github.com/beastcodes27/movie-backend/internal/domain/model"
	"github.com/beastcodes27/movie-backend/internal/pkg/money"
	purchasesvc "github.com/beastcodes27/movie-backend/internal/services/purchases"
	"github.com/beastcodes27/movie-backend/internal/transport/http/dto"
	httperrors "github.com/beastcodes27/movie-backend/internal/transport/http/errors"
)

type AdminHandler struct {
	purchases *purchasesvc.Service
}

func NewAdminHandler(purchases *purchasesvc.Service) *AdminHandler {
	return &AdminHandler{purchases: purchases}
}

func (h *AdminHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	if h.purchases == nil {
		writeInternal(w, "PURCHASES_SERVICE_UNAVAILABLE", "purchases service is unavailable")
		return
	}

	records, err := h.purchases.ListAll(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load transactions")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AdminTransactionsResponse{
		Transactions: adminTransactionItems(records),
	})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.purchases == nil {
		writeInternal(w, "PURCHASES_SERVICE_UNAVAILABLE", "purchases service is unavailable")
		return
	}

	stats, err := h.purchases.Stats(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to compute stats")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AdminStatsResponse{
		TotalTransactions: stats.TotalTransactions,
		TotalRevenue:      stats.TotalRevenue,
		TotalRevenueLabel: money.FormatTZS(stats.TotalRevenue),
		UniqueBuyers:      stats.UniqueBuyers,
		Recent:            adminTransactionItems(stats.Recent),
	})
}

func adminTransactionItems(records []model.Purchase) []dto.AdminTransactionItem {
	items := make([]dto.AdminTransactionItem, 0, len(records))
	for _, p := range records {
		items = append(items, dto.AdminTransactionItem{
			ID:            p.ID,
			UserID:        p.UserID,
			MovieID:       p.MovieID,
			Price:         p.Price,
			Status:        p.Status,
			PaymentMethod: p.PaymentMethod,
			TransactionID: p.TransactionID,
			PurchasedAt:   p.PurchasedAt,
		})
	}
	return items
}
