package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/apitienda/store-api/products"
)

type productRequest struct {
	Name  string  `json:"name"`
	Text  string  `json:"text"`
	Price float64 `json:"price"`
}

func (s *Server) CreateProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req productRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeJSONError(w, "bad_request", "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" || req.Price < 0 {
			writeJSONError(w, "bad_request", "A name and non-negative price are required", http.StatusBadRequest)
			return
		}

		now := time.Now().UTC()
		product := &products.Product{
			ID:         uuid.New(),
			Name:       req.Name,
			Text:       req.Text,
			Price:      req.Price,
			CreatedAt:  now,
			ModifiedAt: now,
		}
		if err := s.products.Create(r.Context(), product); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, product)
	}
}

func (s *Server) GetProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeJSONError(w, "bad_request", "Invalid product id", http.StatusBadRequest)
			return
		}

		product, err := s.products.GetByID(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, product)
	}
}

func (s *Server) ListProductsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := pagination(r)
		list, err := s.products.List(r.Context(), offset, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// UpdateProductHandler replaces all mutable fields of a product.
func (s *Server) UpdateProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.updateProduct(w, r, func(product *products.Product, req productRequest) {
			product.Name = req.Name
			product.Text = req.Text
			product.Price = req.Price
		})
	}
}

// PatchProductHandler updates only the fields present in the request body;
// absent fields keep their stored values.
func (s *Server) PatchProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.updateProduct(w, r, func(product *products.Product, req productRequest) {
			product.ApplyPartial(&products.Product{Name: req.Name, Text: req.Text, Price: req.Price})
		})
	}
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request, apply func(*products.Product, productRequest)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, "bad_request", "Invalid product id", http.StatusBadRequest)
		return
	}

	var req productRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, "bad_request", "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := s.products.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	apply(product, req)
	product.ModifiedAt = time.Now().UTC()

	if err := s.products.Update(r.Context(), product); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (s *Server) DeleteProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeJSONError(w, "bad_request", "Invalid product id", http.StatusBadRequest)
			return
		}

		if err := s.products.Delete(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
	}
}

func (s *Server) SearchProductsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term := r.URL.Query().Get("q")
		if term == "" {
			writeJSONError(w, "bad_request", "A search term is required", http.StatusBadRequest)
			return
		}

		list, err := s.products.Search(r.Context(), term)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) ProductPriceRangeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		minPrice, err := strconv.ParseFloat(r.URL.Query().Get("min"), 64)
		if err != nil || minPrice < 0 {
			writeJSONError(w, "bad_request", "A non-negative min price is required", http.StatusBadRequest)
			return
		}
		maxPrice, err := strconv.ParseFloat(r.URL.Query().Get("max"), 64)
		if err != nil || maxPrice < minPrice {
			writeJSONError(w, "bad_request", "A max price >= min is required", http.StatusBadRequest)
			return
		}

		list, err := s.products.PriceRange(r.Context(), minPrice, maxPrice)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
