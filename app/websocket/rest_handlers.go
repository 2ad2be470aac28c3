package websocket

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"InventoryApp/app/models"
	"InventoryApp/app/services"
)

// RESTHandlers exposes the service layer over HTTP for companion apps. All
// writes go through the services so that validation, stock checks and ledger
// posting behave exactly like the desktop UI.
type RESTHandlers struct {
	items   *services.ItemService
	stock   *services.StockService
	recipes *services.RecipeService
	orders  *services.OrderService
	finance *services.FinanceService
}

// NewRESTHandlers creates a new REST handlers instance
func NewRESTHandlers(items *services.ItemService, stock *services.StockService, recipes *services.RecipeService, orders *services.OrderService, finance *services.FinanceService) *RESTHandlers {
	return &RESTHandlers{
		items:   items,
		stock:   stock,
		recipes: recipes,
		orders:  orders,
		finance: finance,
	}
}

// Register attaches all REST endpoints to the mux
func (h *RESTHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/items", h.HandleItems)
	mux.HandleFunc("/api/items/", h.HandleItemByID)
	mux.HandleFunc("/api/stock/transactions", h.HandleStockTransactions)
	mux.HandleFunc("/api/recipes", h.HandleRecipes)
	mux.HandleFunc("/api/recipes/", h.HandleRecipeByID)
	mux.HandleFunc("/api/ingredients/", h.HandleIngredientByID)
	mux.HandleFunc("/api/orders", h.HandleOrders)
	mux.HandleFunc("/api/orders/", h.HandleOrderByID)
	mux.HandleFunc("/api/finance/records", h.HandleFinanceRecords)
	mux.HandleFunc("/api/finance/summary", h.HandleFinanceSummary)
}

// setCORS enables cross-origin requests from companion apps on the local
// network and answers preflight. Returns true when the request is done.
func setCORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps service errors to HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	switch {
	case services.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case services.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case services.IsInsufficientStock(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("REST API: internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// pathID extracts the numeric ID that follows the prefix, plus any trailing
// path segments
func pathID(path, prefix string) (uint, []string, bool) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return 0, nil, false
	}
	id, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, nil, false
	}
	return uint(id), parts[1:], true
}

// parseDateRange reads optional from/to query parameters (RFC 3339). Missing
// bounds default to the last 30 days.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, err
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, err
		}
		to = parsed
	}
	return from, to, nil
}

// Items

// HandleItems routes between GET (list) and POST (create) for /api/items
func (h *RESTHandlers) HandleItems(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r) {
		return
	}

	switch r.Method {
	case "GET":
		filter := services.ItemFilter{
			Category: r.URL.Query().Get("category"),
			Location: r.URL.Query().Get("location"),
		}
		items, err := h.items.ListItems(filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)

	case "POST":
		var input services.CreateItemInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		item, err := h.items.CreateItem(input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleItemByID handles /api/items/{id} and /api/items/{id}/transactions
func (h *RESTHandlers) HandleItemByID(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r) {
		return
	}

	id, rest, ok := pathID(r.URL.Path, "/api/items/")
	if !ok {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	if len(rest) == 1 && rest[0] == "transactions" {
		if r.Method != "GET" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		transactions, err := h.stock.GetItemTransactions(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, transactions)
		return
	}

	switch r.Method {
	case "GET":
		item, err := h.items.GetItem(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case "PUT":
		var input services.UpdateItemInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		input.ID = id
		item, err := h.items.UpdateItem(input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case "DELETE":
		if err := h.items.DeleteItem(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Stock

// HandleStockTransactions records a stock movement via POST
func (h *RESTHandlers) HandleStockTransactions(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r) {
		return
	}

	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var input services.StockTransactionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	txn, err := h.stock.RecordTransaction(input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// Recipes

// HandleRecipes routes between GET (list) and POST (create) for /api/recipes
func (h *RESTHandlers) HandleRecipes(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r) {
		return
	}

	switch r.Method {
	case "GET":
		recipes, err := h.recipes.ListRecipes()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recipes)

	case "POST":
		var input services.CreateRecipeInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		recipe, err := h.recipes.CreateRecipe(input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, recipe)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleRecipeByID handles /api/recipes/{id} plus the ingredients and image
// sub-resources
func (h *RESTHandlers) HandleRecipeByID(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r) {
		return
	}

	id, rest, ok := pathID(r.URL.Path, "/api/recipes/")
	if !ok {
		http.Error(w, "Invalid recipe ID", http.StatusBadRequest)
		return
	}

	if len(rest) == 1 {
		switch rest[0] {
		case "ingredients":
			h.handleRecipeIngredients(w, r, id)
			return
		case "image":
			h.handleRecipeImage(w, r, id)
			return
		case "recompute":
			if r.Method != "POST" {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			recipe, err := h.recipes.RecomputeRecipeCost(id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, recipe)
			return
		}
	}

	switch r.Method {
	case "GET":
		recipe, err := h.recipes.GetRecipe(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recipe)

	case "PUT":
		var input services.UpdateRecipeInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		input.ID = id
		recipe, err := h.recipes.UpdateRecipe(input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recipe)

	case "DELETE":
		if err := h.recipes.DeleteRecipe(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRecipeIngredients handles POST /api/recipes/{id}/ingredients
func (h *RESTHandlers) handleRecipeIngredients(w http.ResponseWriter, r *http.Request, recipeID uint) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var input services.RecipeIngredientInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	recipe, err := h.recipes.AddIngredient(recipeID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

// handleRecipeImage handles GET and PUT for /api/recipes/{id}/image. The
// image travels as raw bytes, not JSON.
func (h *RESTHandlers) handleRecipeImage(w http.ResponseWriter, r *http.Request, recipeID uint) {
	switch r.Method {
	case "GET":
		data, err := h.recipes.LoadRecipeImage(recipeID)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		w.Write(data)

	case "PUT":
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		recipe, err := h.recipes.SetRecipeImage(recipeID, data)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recipe)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ingredientUpdateRequest carries the editable fields of an ingredient line
type ingredientUpdateRequest struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// HandleIngredientByID handles PUT and DELETE for /api/ingredients/{id}
func (h *RESTHandlers) HandleIngredientByID(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r) {
		return
	}

	id, _, ok := pathID(r.URL.Path, "/api/ingredients/")
	if !ok {
		http.Error(w, "Invalid ingredient ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "PUT":
		var req ingredientUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		recipe, err := h.recipes.UpdateIngredient(id, req.Quantity, req.Unit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recipe)

	case "DELETE":
		recipe, err := h.recipes.RemoveIngredient(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recipe)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Orders

// HandleOrders routes between GET (list) and POST (place) for /api/orders
func (h *RESTHandlers) HandleOrders(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r) {
		return
	}

	switch r.Method {
	case "GET":
		from, to, err := parseDateRange(r)
		if err != nil {
			http.Error(w, "Invalid date range", http.StatusBadRequest)
			return
		}
		orders, err := h.orders.ListOrders(from, to)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)

	case "POST":
		var input services.PlaceOrderInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		order, err := h.orders.PlaceOrder(input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, order)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleOrderByID handles GET /api/orders/{id}
func (h *RESTHandlers) HandleOrderByID(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r) {
		return
	}

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, _, ok := pathID(r.URL.Path, "/api/orders/")
	if !ok {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	order, err := h.orders.GetOrder(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Finance

// HandleFinanceRecords routes between GET (list) and POST (manual entry) for
// /api/finance/records
func (h *RESTHandlers) HandleFinanceRecords(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r) {
		return
	}

	switch r.Method {
	case "GET":
		from, to, err := parseDateRange(r)
		if err != nil {
			http.Error(w, "Invalid date range", http.StatusBadRequest)
			return
		}

		var recordType *models.RecordType
		if v := r.URL.Query().Get("type"); v != "" {
			rt := models.RecordType(v)
			if !rt.Valid() {
				http.Error(w, "Invalid record type", http.StatusBadRequest)
				return
			}
			recordType = &rt
		}

		records, err := h.finance.ListRecords(from, to, recordType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)

	case "POST":
		var input services.ManualEntryInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		record, err := h.finance.RecordManualEntry(input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, record)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleFinanceSummary handles GET /api/finance/summary
func (h *RESTHandlers) HandleFinanceSummary(w http.ResponseWriter, r *http.Request) {
	if setCORS(w, r) {
		return
	}

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		http.Error(w, "Invalid date range", http.StatusBadRequest)
		return
	}

	summary, err := h.finance.Summary(from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
