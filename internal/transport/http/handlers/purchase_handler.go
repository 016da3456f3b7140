package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/beastcodes27/movie-backend/internal/pkg/money"
	"github.com/beastcodes27/movie-backend/internal/pkg/validate"
	authsvc "github.com/beastcodes27/movie-backend/internal/services/auth"
	catalogsvc "github.com/beastcodes27/movie-backend/internal/services/catalog"
	"github.com/beastcodes27/movie-backend/internal/services/fastlipa"
	paymentsvc "github.com/beastcodes27/movie-backend/internal/services/payments"
	purchasesvc "github.com/beastcodes27/movie-backend/internal/services/purchases"
	"github.com/beastcodes27/movie-backend/internal/transport/http/dto"
	httperrors "github.com/beastcodes27/movie-backend/internal/transport/http/errors"
)

type PurchaseHandler struct {
	payments  *paymentsvc.Service
	purchases *purchasesvc.Service
	catalog   *catalogsvc.Service
	log       *zap.Logger
}

func NewPurchaseHandler(payments *paymentsvc.Service, purchases *purchasesvc.Service, catalog *catalogsvc.Service, log *zap.Logger) *PurchaseHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PurchaseHandler{
		payments:  payments,
		purchases: purchases,
		catalog:   catalog,
		log:       log,
	}
}

// Create runs a purchase end to end: price lookup, gateway transaction,
// status polling, entitlement commit. The request blocks until the payment
// reaches a terminal outcome or the polling budget runs out.
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.payments == nil || h.catalog == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	var req dto.PurchaseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if !validate.Required(req.MovieID) || !validate.Required(req.PhoneNumber) {
		writeBadRequest(w, "VALIDATION_ERROR", "movie_id and phone_number are required")
		return
	}

	movie, err := h.catalog.GetByID(r.Context(), req.MovieID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}
	if !movie.IsPremium || movie.Price <= 0 {
		writeBadRequest(w, "MOVIE_NOT_PURCHASABLE", "movie is not a paid title")
		return
	}

	if h.purchases != nil && h.purchases.HasPurchased(r.Context(), identity.UserID, movie.ID) {
		httperrors.Write(w, http.StatusOK, dto.PurchaseCreateResponse{
			OK:           true,
			Status:       "ALREADY_OWNED",
			AlreadyOwned: true,
		})
		return
	}

	result, err := h.payments.Purchase(r.Context(), paymentsvc.PurchaseInput{
		UserID:       identity.UserID,
		MovieID:      movie.ID,
		Price:        movie.Price,
		PhoneNumber:  req.PhoneNumber,
		CustomerName: req.CustomerName,
	}, h.progressLogger(identity.UserID, movie.ID))
	if err != nil {
		h.writePurchaseError(w, err, result.TransactionID)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PurchaseCreateResponse{
		OK:            true,
		TransactionID: result.TransactionID,
		Status:        "COMPLETED",
		AlreadyOwned:  result.AlreadyPurchased,
		PriceLabel:    money.FormatTZS(movie.Price),
	})
}

// Recheck is the manual recovery path for payments whose polling was
// interrupted: one status check against the gateway, committing on success.
func (h *PurchaseHandler) Recheck(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.payments == nil || h.catalog == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	var req dto.PurchaseRecheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if !validate.Required(req.TransactionID) || !validate.Required(req.MovieID) {
		writeBadRequest(w, "VALIDATION_ERROR", "transaction_id and movie_id are required")
		return
	}

	movie, err := h.catalog.GetByID(r.Context(), req.MovieID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	result, err := h.payments.CheckStatusManually(r.Context(), req.TransactionID, identity.UserID, movie.ID, movie.Price)
	if err != nil {
		if errors.Is(err, paymentsvc.ErrPaymentFailed) {
			httperrors.Write(w, http.StatusOK, dto.PurchaseRecheckResponse{
				OK:     false,
				Status: result.Status,
			})
			return
		}
		h.writePurchaseError(w, err, req.TransactionID)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PurchaseRecheckResponse{
		OK:           true,
		Status:       result.Status,
		Committed:    result.Committed,
		AlreadyOwned: result.AlreadyPurchased,
	})
}

func (h *PurchaseHandler) Owned(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.purchases == nil {
		writeInternal(w, "PURCHASES_SERVICE_UNAVAILABLE", "purchases service is unavailable")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OwnedMoviesResponse{
		MovieIDs: h.purchases.ListPurchasedMovieIDs(r.Context(), identity.UserID),
	})
}

func (h *PurchaseHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.purchases == nil {
		writeInternal(w, "PURCHASES_SERVICE_UNAVAILABLE", "purchases service is unavailable")
		return
	}

	entries, err := h.purchases.History(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load purchase history")
		return
	}

	items := make([]dto.PurchaseHistoryItem, 0, len(entries))
	for _, entry := range entries {
		item := dto.PurchaseHistoryItem{
			MovieID:       entry.Purchase.MovieID,
			Price:         entry.Purchase.Price,
			PriceLabel:    money.FormatTZS(entry.Purchase.Price),
			Status:        entry.Purchase.Status,
			PaymentMethod: entry.Purchase.PaymentMethod,
			TransactionID: entry.Purchase.TransactionID,
			PurchasedAt:   entry.Purchase.PurchasedAt,
		}
		if entry.Movie != nil {
			movie := dto.MovieFromModel(*entry.Movie)
			item.Movie = &movie
		}
		items = append(items, item)
	}

	httperrors.Write(w, http.StatusOK, dto.PurchaseHistoryResponse{Purchases: items})
}

// progressLogger surfaces polling milestones in the request log; the HTTP
// response itself only carries the terminal outcome.
func (h *PurchaseHandler) progressLogger(userID int64, movieID string) paymentsvc.ProgressFunc {
	return func(update paymentsvc.ProgressUpdate) {
		h.log.Info("payment progress",
			zap.Int64("user_id", userID),
			zap.String("movie_id", movieID),
			zap.String("transaction_id", update.TransactionID),
			zap.String("status", update.Status),
			zap.Int("attempt", update.Attempt),
			zap.Int("elapsed_sec", update.ElapsedSeconds),
		)
	}
}

func (h *PurchaseHandler) writePurchaseError(w http.ResponseWriter, err error, transactionID string) {
	switch {
	case errors.Is(err, paymentsvc.ErrValidation), errors.Is(err, fastlipa.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid purchase payload")
	case errors.Is(err, fastlipa.ErrInvalidPhoneFormat):
		writeBadRequest(w, "INVALID_PHONE", "phone number format is not supported")
	case errors.Is(err, paymentsvc.ErrPaymentFailed):
		httperrors.Write(w, http.StatusPaymentRequired, dto.PurchaseCreateResponse{
			OK:            false,
			TransactionID: transactionID,
			Status:        "FAILED",
		})
	case errors.Is(err, paymentsvc.ErrPaymentTimeout):
		httperrors.Write(w, http.StatusAccepted, dto.PurchaseCreateResponse{
			OK:            false,
			TransactionID: transactionID,
			Status:        "PENDING",
		})
	case errors.Is(err, paymentsvc.ErrCommitFailed):
		// Money moved but the entitlement write failed. The client needs
		// the transaction id to drive the recheck endpoint.
		httperrors.Write(w, http.StatusInternalServerError, dto.PurchaseCreateResponse{
			OK:            false,
			TransactionID: transactionID,
			Status:        "CONFIRMED_UNRECORDED",
			Message:       "payment was confirmed but the purchase could not be recorded; retry via the status recheck with this transaction id or contact support",
		})
	case errors.Is(err, fastlipa.ErrGatewayUnavailable):
		httperrors.Write(w, http.StatusBadGateway, httperrors.APIError{
			Code:    "GATEWAY_UNAVAILABLE",
			Message: "payment gateway is unavailable",
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process purchase")
	}
}
