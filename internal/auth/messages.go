package auth

import "github.com/hitoshi/anglerclub/internal/model"

// providerMessages はプロバイダーのエラーコードと表示メッセージの対応表。
var providerMessages = map[string]string{
	CodeEmailAlreadyInUse: "Этот email уже используется",
	CodeWeakPassword:      "Слишком слабый пароль",
	CodeInvalidEmail:      "Неверный формат email",
	CodeUserNotFound:      "Пользователь не найден",
	CodeWrongPassword:     "Неверный пароль",
}

// MessageForCode はプロバイダーのエラーコードを表示メッセージに変換する。
// 未知のコードには汎用メッセージを返す。
func MessageForCode(code string) string {
	if msg, ok := providerMessages[code]; ok {
		return msg
	}
	return model.GenericFailureMessage
}
