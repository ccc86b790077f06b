package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/anglerclub/internal/catalog"
	"github.com/hitoshi/anglerclub/internal/model"
)

// CatalogHandler は静的カタログを返すHTTPハンドラー。
type CatalogHandler struct{}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

type optionsResponse struct {
	Categories        []catalog.Category `json:"categories"`
	ConsultationTypes []string           `json:"consultation_types"`
	TimeSlots         []string           `json:"time_slots"`
	ExperienceLevels  []string           `json:"experience_levels"`
}

type quoteResponse struct {
	EquipmentID string `json:"equipment_id"`
	RentalType  string `json:"rental_type"`
	Quantity    int    `json:"quantity"`
	TotalPrice  string `json:"total_price"`
}

// Events は公式イベント一覧を返す。
// GET /api/catalog/events
func (h *CatalogHandler) Events(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Events())
}

// Courses は講習一覧を返す。
// GET /api/catalog/courses
func (h *CatalogHandler) Courses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Courses())
}

// Equipment はカテゴリで絞り込んだ機材一覧を返す。未知のカテゴリは全件として扱う。
// GET /api/catalog/equipment?category=
func (h *CatalogHandler) Equipment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.EquipmentByCategory(r.URL.Query().Get("category")))
}

// Options はフォームの選択肢を返す。
// GET /api/catalog/options
func (h *CatalogHandler) Options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, optionsResponse{
		Categories:        catalog.Categories(),
		ConsultationTypes: catalog.ConsultationTypes(),
		TimeSlots:         catalog.TimeSlots(),
		ExperienceLevels:  catalog.ExperienceLevels(),
	})
}

// Quote はレンタル料金の見積もりを返す。未知の機材は「Уточняется」になる。
// GET /api/catalog/equipment/{id}/quote?rental_type=&quantity=
func (h *CatalogHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rentalType := model.RentalType(q.Get("rental_type"))
	if rentalType == "" {
		rentalType = model.RentalDaily
	}
	if !rentalType.Valid() {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("Выберите тип аренды: посуточно или понедельно"))
		return
	}

	quantity := 1
	if v := q.Get("quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("Количество должно быть положительным числом"))
			return
		}
		quantity = n
	}

	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, quoteResponse{
		EquipmentID: id,
		RentalType:  string(rentalType),
		Quantity:    quantity,
		TotalPrice:  catalog.QuoteRental(id, rentalType, quantity),
	})
}
