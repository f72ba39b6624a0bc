package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/LeNguyen02/AuctionProduct/internal/catalog"
	"github.com/LeNguyen02/AuctionProduct/internal/clock"
	"github.com/LeNguyen02/AuctionProduct/internal/engine"
	"github.com/LeNguyen02/AuctionProduct/internal/export"
	"github.com/LeNguyen02/AuctionProduct/internal/models"
	"github.com/LeNguyen02/AuctionProduct/internal/store"
	"github.com/LeNguyen02/AuctionProduct/internal/uploads"
	"github.com/LeNguyen02/AuctionProduct/internal/ws"
)

// Handler wires the HTTP surface to the core components.
type Handler struct {
	clock   *clock.Clock
	catalog *catalog.Service
	engine  *engine.Engine
	uploads *uploads.Store
	ws      *ws.Handler
}

func New(clk *clock.Clock, cat *catalog.Service, eng *engine.Engine, up *uploads.Store, wsh *ws.Handler) *Handler {
	return &Handler{
		clock:   clk,
		catalog: cat,
		engine:  eng,
		uploads: up,
		ws:      wsh,
	}
}

// SetupRoutes configures all HTTP routes.
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ws", h.ws.ServeWS)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auction-time", h.GetAuctionTime).Methods(http.MethodGet)
	api.HandleFunc("/auction-time", h.SetAuctionTime).Methods(http.MethodPost)
	api.HandleFunc("/auction-time/reset", h.ResetAuctionTime).Methods(http.MethodPost)
	api.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products", h.CreateProduct).Methods(http.MethodPost)
	api.HandleFunc("/products/{id:[0-9]+}", h.GetProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", h.UpdateProduct).Methods(http.MethodPut)
	api.HandleFunc("/products/{id:[0-9]+}", h.DeleteProduct).Methods(http.MethodDelete)
	api.HandleFunc("/bid", h.PlaceBid).Methods(http.MethodPost)
	api.HandleFunc("/bid-detail/{id:[0-9]+}", h.BidDetail).Methods(http.MethodGet)
	api.HandleFunc("/export-excel", h.ExportExcel).Methods(http.MethodGet)

	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.uploads.Dir()))))

	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)

	return router
}

// HealthCheck returns service health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

type windowRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

type windowResponse struct {
	models.AuctionWindow
	Status models.WindowStatus `json:"status"`
}

// GetAuctionTime returns the auction window and its derived status.
func (h *Handler) GetAuctionTime(w http.ResponseWriter, r *http.Request) {
	window := h.clock.Get()
	respondJSON(w, http.StatusOK, windowResponse{
		AuctionWindow: window,
		Status:        window.StatusAt(time.Now()),
	})
}

// SetAuctionTime replaces the auction window.
func (h *Handler) SetAuctionTime(w http.ResponseWriter, r *http.Request) {
	var req windowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StartTime == nil || req.EndTime == nil {
		respondError(w, http.StatusBadRequest, "start_time and end_time are required")
		return
	}

	window, err := h.clock.Set(*req.StartTime, *req.EndTime)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": window})
}

// ResetAuctionTime clears the auction window.
func (h *Handler) ResetAuctionTime(w http.ResponseWriter, r *http.Request) {
	h.clock.Reset()
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// PlaceBid handles bid placement. Business rejections are expected traffic
// and come back as success=false with a reason; only malformed bodies and
// storage failures use error status codes.
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var req models.BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.engine.PlaceBid(r.Context(), req.ProductID, req.BidderName, req.Amount)
	if err != nil {
		var tooLow *store.BidTooLowError
		switch {
		case errors.Is(err, engine.ErrAuctionClosed):
			respondJSON(w, http.StatusOK, models.BidResponse{
				Success: false,
				Message: "the auction is not open for bidding",
			})
		case errors.Is(err, engine.ErrInvalidInput):
			respondJSON(w, http.StatusOK, models.BidResponse{
				Success: false,
				Message: "bidder name and a positive amount are required",
			})
		case errors.Is(err, store.ErrNotFound):
			respondJSON(w, http.StatusOK, models.BidResponse{
				Success: false,
				Message: "product not found",
			})
		case errors.As(err, &tooLow):
			floor := tooLow.Floor
			respondJSON(w, http.StatusOK, models.BidResponse{
				Success:      false,
				Message:      fmt.Sprintf("bid must be greater than %s", floor),
				CurrentPrice: &floor,
			})
		default:
			log.WithError(err).Error("failed to place bid")
			respondError(w, http.StatusInternalServerError, "failed to place bid")
		}
		return
	}

	price := record.Amount
	respondJSON(w, http.StatusCreated, models.BidResponse{
		Success:      true,
		Message:      "bid accepted",
		CurrentPrice: &price,
	})
}

// BidDetail returns a product together with its bid history, newest first.
func (h *Handler) BidDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, bids, err := h.engine.BidDetail(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if bids == nil {
		bids = []models.BidRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"product": product,
		"bids":    bids,
	})
}

// ExportExcel streams the catalog as an xlsx download.
func (h *Handler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		log.WithError(err).Error("failed to list products for export")
		respondError(w, http.StatusInternalServerError, "failed to export products")
		return
	}

	filename := "auction_products_" + time.Now().Format("2006-01-02_15-04-05") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.WriteProducts(w, products); err != nil {
		log.WithError(err).Error("failed to write workbook")
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, catalog.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.WithError(err).Error("request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"url":      r.RequestURI,
			"duration": time.Since(start).String(),
		}).Info("request handled")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
