package catalog

import (
	"strconv"
	"strings"

	"github.com/hitoshi/anglerclub/internal/model"
)

// PriceUnknown は機材が特定できない場合の料金表示。
const PriceUnknown = "Уточняется"

// weeklyMultiplier は週単位レンタル時の日額に対する倍率。
const weeklyMultiplier = 7

// ParsePrice は価格文字列から数字のみを取り出して整数に変換する。
// 例: "500 руб/день" -> 500。数字を含まない場合は0を返す。
func ParsePrice(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

// RentalTotal はレンタル料金の合計を計算する。
// 週単位の場合は日額の7倍に数量を掛ける。
func RentalTotal(baseDaily int, rentalType model.RentalType, quantity int) int {
	total := baseDaily * quantity
	if rentalType == model.RentalWeekly {
		total *= weeklyMultiplier
	}
	return total
}

// FormatRubles は金額を「N руб.」形式で返す。
func FormatRubles(amount int) string {
	return strconv.Itoa(amount) + " руб."
}

// QuoteRental は機材IDからレンタル料金の表示文字列を返す。
// 機材が見つからない場合はPriceUnknownを返す。
func QuoteRental(equipmentID string, rentalType model.RentalType, quantity int) string {
	item, ok := EquipmentByID(equipmentID)
	if !ok {
		return PriceUnknown
	}
	return FormatRubles(RentalTotal(ParsePrice(item.PriceDay), rentalType, quantity))
}
