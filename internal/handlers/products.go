package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/LeNguyen02/AuctionProduct/internal/catalog"
	"github.com/LeNguyen02/AuctionProduct/internal/models"
)

const (
	maxImagesPerProduct = 4
	maxUploadBytes      = 32 << 20
)

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// formValue distinguishes "field absent" from "field empty", which matters
// for partial updates.
func formValue(form map[string][]string, key string) (string, bool) {
	values, ok := form[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// ListProducts returns every product in ascending id order.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

// GetProduct returns one product by id.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

type productForm struct {
	Name          string          `json:"name"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	Description   string          `json:"description"`
}

// CreateProduct adds a product. The admin page posts multipart forms with up
// to four image files; plain JSON bodies are accepted too.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var params catalog.CreateParams
	var saved []string

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			respondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		price, err := decimal.NewFromString(r.FormValue("starting_price"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "starting_price must be a number")
			return
		}
		params.Name = r.FormValue("name")
		params.StartingPrice = price
		params.Description = r.FormValue("description")

		files := r.MultipartForm.File["images"]
		if len(files) > maxImagesPerProduct {
			respondError(w, http.StatusBadRequest, "at most 4 images per product")
			return
		}
		paths, err := h.uploads.SaveAll(files)
		if err != nil {
			log.WithError(err).Error("failed to store images")
			respondError(w, http.StatusInternalServerError, "failed to store images")
			return
		}
		saved = paths
		params.Images = paths
	} else {
		var req productForm
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		params.Name = req.Name
		params.StartingPrice = req.StartingPrice
		params.Description = req.Description
	}

	product, err := h.catalog.Create(r.Context(), params)
	if err != nil {
		h.uploads.Remove(saved)
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

type updateForm struct {
	Name          *string          `json:"name"`
	StartingPrice *decimal.Decimal `json:"starting_price"`
	Description   *string          `json:"description"`
	CurrentPrice  *decimal.Decimal `json:"current_price"`
	CurrentLeader *string          `json:"current_leader"`
}

// UpdateProduct applies a partial update, including the admin correction of
// the current price and leader. Uploading new images replaces the old ones.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var params catalog.UpdateParams
	var saved []string

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			respondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		form := r.MultipartForm.Value

		if v, ok := formValue(form, "name"); ok {
			params.Name = &v
		}
		if v, ok := formValue(form, "starting_price"); ok {
			price, err := decimal.NewFromString(v)
			if err != nil {
				respondError(w, http.StatusBadRequest, "starting_price must be a number")
				return
			}
			params.StartingPrice = &price
		}
		if v, ok := formValue(form, "description"); ok {
			params.Description = &v
		}
		if v, ok := formValue(form, "current_price"); ok && v != "" {
			price, err := decimal.NewFromString(v)
			if err != nil {
				respondError(w, http.StatusBadRequest, "current_price must be a number")
				return
			}
			params.CurrentPrice = &price
		}
		if v, ok := formValue(form, "current_leader"); ok {
			params.CurrentLeader = &v
		}

		files := r.MultipartForm.File["images"]
		if len(files) > maxImagesPerProduct {
			respondError(w, http.StatusBadRequest, "at most 4 images per product")
			return
		}
		if len(files) > 0 {
			paths, err := h.uploads.SaveAll(files)
			if err != nil {
				log.WithError(err).Error("failed to store images")
				respondError(w, http.StatusInternalServerError, "failed to store images")
				return
			}
			saved = paths
			params.Images = paths
		}
	} else {
		var req updateForm
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		params.Name = req.Name
		params.StartingPrice = req.StartingPrice
		params.Description = req.Description
		params.CurrentPrice = req.CurrentPrice
		params.CurrentLeader = req.CurrentLeader
	}

	product, err := h.catalog.Update(r.Context(), id, params)
	if err != nil {
		h.uploads.Remove(saved)
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product, its bid history and its image files.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
