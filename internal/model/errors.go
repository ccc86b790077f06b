// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（利用者向け、ロシア語）
	Category string // カテゴリ: auth, validation, club, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeValidation        = "VALIDATION_FAILED"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeAuthFailed        = "AUTH_FAILED"
	ErrCodeEmailInUse        = "EMAIL_IN_USE"
	ErrCodeAlreadyRegistered = "ALREADY_REGISTERED"
	ErrCodeNotCancellable    = "NOT_CANCELLABLE"
	ErrCodeRecordNotFound    = "RECORD_NOT_FOUND"
	ErrCodeEventNotFound     = "EVENT_NOT_FOUND"
	ErrCodeCourseNotFound    = "COURSE_NOT_FOUND"
	ErrCodeEquipmentNotFound = "EQUIPMENT_NOT_FOUND"
	ErrCodeStoreUnavailable  = "STORE_UNAVAILABLE"
)

// GenericFailureMessage は原因を特定できない失敗時に表示する文言。
const GenericFailureMessage = "Произошла ошибка. Попробуйте снова"

// NewUnauthorizedError は未ログインでの操作を表すエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Необходимо войти в систему.",
		Category: "auth",
		Action:   "Войдите или зарегистрируйтесь.",
	}
}

// NewForbiddenError は所有者以外による変更操作のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Вы можете изменять только свои записи.",
		Category: "auth",
		Action:   "Обратитесь к автору записи.",
	}
}

// NewValidationError は入力値の検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "Проверьте заполнение формы.",
	}
}

// NewRequiredFieldError は必須項目の未入力エラーを生成する。
func NewRequiredFieldError(field string) *APIError {
	return NewValidationError(fmt.Sprintf("Заполните обязательное поле: %s", field))
}

// NewInvalidRequestError はリクエストボディの解析失敗を表すエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Не удалось разобрать запрос.",
		Category: "validation",
		Action:   "Отправьте данные в формате JSON.",
	}
}

// NewAuthError は認証プロバイダーの失敗をローカライズ済みメッセージで表す。
func NewAuthError(code, message string) *APIError {
	return &APIError{
		Code:     code,
		Message:  message,
		Category: "auth",
		Action:   "Проверьте email и пароль.",
	}
}

// NewAlreadyRegisteredError は同一イベントへの重複登録エラーを生成する。
func NewAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyRegistered,
		Message:  "Вы уже записаны на это мероприятие. Мы свяжемся с вами для уточнения деталей.",
		Category: "club",
		Action:   "Статус записи доступен в личном кабинете.",
	}
}

// NewNotCancellableError は確認待ち以外のリクエストを取り消そうとした場合のエラーを生成する。
func NewNotCancellableError(status RequestStatus) *APIError {
	return &APIError{
		Code:     ErrCodeNotCancellable,
		Message:  fmt.Sprintf("Заявку в статусе «%s» нельзя отменить.", status.Label()),
		Category: "club",
		Action:   "Свяжитесь с клубом для изменения заявки.",
	}
}

// NewRecordNotFoundError は指定レコードが存在しない場合のエラーを生成する。
func NewRecordNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeRecordNotFound,
		Message:  fmt.Sprintf("Запись не найдена: %s", id),
		Category: "club",
		Action:   "Обновите страницу.",
	}
}

// NewEventNotFoundError はカタログに存在しないイベントIDのエラーを生成する。
func NewEventNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("Мероприятие не найдено: %s", id),
		Category: "club",
		Action:   "Выберите мероприятие из списка.",
	}
}

// NewCourseNotFoundError はカタログに存在しないコースIDのエラーを生成する。
func NewCourseNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeCourseNotFound,
		Message:  fmt.Sprintf("Курс не найден: %s", id),
		Category: "club",
		Action:   "Выберите курс из списка.",
	}
}

// NewEquipmentNotFoundError はカタログに存在しない機材IDのエラーを生成する。
func NewEquipmentNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeEquipmentNotFound,
		Message:  fmt.Sprintf("Снаряжение не найдено: %s", id),
		Category: "club",
		Action:   "Выберите снаряжение из каталога.",
	}
}

// NewStoreUnavailableError はストアへの書き込み・読み取り失敗を利用者に伝えるエラーを生成する。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "Не удалось сохранить данные. Попробуйте снова.",
		Category: "system",
		Action:   "Повторите попытку через несколько секунд.",
	}
}
