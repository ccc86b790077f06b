// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/anglerclub/internal/middleware"
	"github.com/hitoshi/anglerclub/internal/model"
)

// maxBodyBytes はJSONリクエストボディの上限。
const maxBodyBytes = 64 << 10

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// decodeJSON はリクエストボディをdstにデコードする。
// 失敗した場合は400を書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外はストア障害として扱い、詳細はログのみに残す
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeAuthFailed:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeValidation, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeEmailInUse, model.ErrCodeAlreadyRegistered, model.ErrCodeNotCancellable:
		return http.StatusConflict
	case model.ErrCodeRecordNotFound, model.ErrCodeEventNotFound,
		model.ErrCodeCourseNotFound, model.ErrCodeEquipmentNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// snapshot はライブ一覧のJSONスナップショット。
// empty_messageは件数が0のときだけ設定する。
type snapshot[T any] struct {
	Items        []T    `json:"items"`
	Count        int    `json:"count"`
	EmptyMessage string `json:"empty_message,omitempty"`
}

func newSnapshot[T any](items []T, emptyMessage string) snapshot[T] {
	if items == nil {
		items = []T{}
	}
	s := snapshot[T]{Items: items, Count: len(items)}
	if s.Count == 0 {
		s.EmptyMessage = emptyMessage
	}
	return s
}

// created は作成系エンドポイントのレスポンス。
type created[T any] struct {
	Record         T      `json:"record"`
	SuccessMessage string `json:"success_message,omitempty"`
}
