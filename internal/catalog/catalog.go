// Package catalog はクラブの公式イベント、講習コース、レンタル機材の静的カタログを提供する。
// カタログはコードに埋め込まれた定数データであり、ストアには保存しない。
package catalog

// Event はクラブ主催の公式イベントを表す。
type Event struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Location     string   `json:"location"`
	Participants string   `json:"participants"`
	Price        string   `json:"price"`
	Description  string   `json:"description"`
	Features     []string `json:"features"`
}

// Course は講習コースを表す。
type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	Price       string `json:"price"`
	Level       string `json:"level"`
	Description string `json:"description"`
}

// Equipment はレンタル可能な機材を表す。
type Equipment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	PriceDay    string `json:"price_day"`
	PriceWeek   string `json:"price_week"`
	Description string `json:"description"`
}

// Category は機材カテゴリの絞り込み選択肢を表す。
type Category struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// CategoryAll はカテゴリ絞り込みなしを表すキー。
const CategoryAll = "all"

var events = []Event{
	{
		ID: "1", Title: "Морская рыбалка на катере",
		Date: "15 декабря 2023", Time: "06:00 - 18:00", Location: "Бухта Золотой Рог",
		Participants: "8-12 человек", Price: "3500 руб.",
		Description: "Выезд на морскую рыбалку с опытным капитаном. Ловля трески, минтая и других морских рыб. В стоимость включены снасти, наживка и горячий обед.",
		Features:    []string{"Опытный капитан", "Снасти включены", "Горячий обед", "Обработка улова"},
	},
	{
		ID: "2", Title: "Речная рыбалка на горных реках",
		Date: "22 декабря 2023", Time: "07:00 - 19:00", Location: "Река Партизанская",
		Participants: "6-10 человек", Price: "2800 руб.",
		Description: "Поход на горные реки Приморья. Ловля хариуса, форели и других пресноводных рыб в живописных местах.",
		Features:    []string{"Горные пейзажи", "Чистые реки", "Трансфер включен", "Инструктор"},
	},
	{
		ID: "3", Title: "Зимняя рыбалка на льду",
		Date: "29 декабря 2023", Time: "08:00 - 16:00", Location: "Озеро Ханка",
		Participants: "10-15 человек", Price: "2200 руб.",
		Description: "Подледная ловля на крупнейшем озере Приморья. Теплые палатки и зимние снасти предоставляются.",
		Features:    []string{"Теплая палатка", "Горячий чай", "Зимние снасти", "Безопасность на льду"},
	},
	{
		ID: "4", Title: "Соревнования по спиннингу",
		Date: "5 января 2024", Time: "09:00 - 17:00", Location: "Залив Петра Великого",
		Participants: "20-30 человек", Price: "1500 руб.",
		Description: "Открытые клубные соревнования по ловле на спиннинг с судейством и призами.",
		Features:    []string{"Призы победителям", "Судейство", "Фотоотчет", "Награждение"},
	},
	{
		ID: "5", Title: "Ночная рыбалка на карпа",
		Date: "12 января 2024", Time: "18:00 - 08:00", Location: "Пруд Лесной",
		Participants: "8-12 человек", Price: "3200 руб.",
		Description: "Ночная ловля карпа с ночевкой у костра. Карповые снасти и палатки на месте.",
		Features:    []string{"Ночное освещение", "Палатки", "Костер", "Карповые снасти"},
	},
	{
		ID: "6", Title: "Мастер-класс по нахлысту",
		Date: "19 января 2024", Time: "10:00 - 16:00", Location: "Река Кедровая",
		Participants: "6-8 человек", Price: "4500 руб.",
		Description: "Практическое занятие по технике заброса нахлыстом под руководством мастера спорта.",
		Features:    []string{"Мастер спорта", "Индивидуальное обучение", "Снасти для нахлыста", "Сертификат"},
	},
}

var courses = []Course{
	{ID: "1", Title: "Основы рыбалки для начинающих", Duration: "2 дня (16 часов)", Price: "8500 руб.", Level: "Начинающий",
		Description: "Снасти, узлы, выбор места и безопасность на воде. Курс для тех, кто берет удочку впервые."},
	{ID: "2", Title: "Мастер-класс по спиннинговой ловле", Duration: "1 день (8 часов)", Price: "6500 руб.", Level: "Продвинутый",
		Description: "Проводка приманок, подбор воблеров и ловля хищника на течении."},
	{ID: "3", Title: "Нахлыстовая рыбалка", Duration: "3 дня (24 часа)", Price: "15000 руб.", Level: "Специализированный",
		Description: "Техника заброса, вязание мушек и ловля лососевых рыб."},
	{ID: "4", Title: "Морская рыбалка с катера", Duration: "1 день (10 часов)", Price: "5500 руб.", Level: "Средний",
		Description: "Донная и джиговая ловля в море, работа с эхолотом."},
	{ID: "5", Title: "Зимняя рыбалка", Duration: "1 день (8 часов)", Price: "4500 руб.", Level: "Начинающий",
		Description: "Подледная ловля, безопасность на льду и зимние снасти."},
	{ID: "6", Title: "Карповая рыбалка", Duration: "2 дня (20 часов)", Price: "12000 руб.", Level: "Продвинутый",
		Description: "Прикормка, монтажи и тактика ловли крупного карпа."},
}

var equipment = []Equipment{
	{ID: "1", Name: "Спиннинг Shimano Catana", Category: "rods", PriceDay: "500 руб/день", PriceWeek: "2500 руб/неделя",
		Description: "Универсальный спиннинг для ловли хищника."},
	{ID: "2", Name: "Фидерное удилище Daiwa", Category: "rods", PriceDay: "400 руб/день", PriceWeek: "2000 руб/неделя",
		Description: "Фидер для донной ловли на реке и озере."},
	{ID: "3", Name: "Катушка Shimano Stradic", Category: "reels", PriceDay: "300 руб/день", PriceWeek: "1500 руб/неделя",
		Description: "Безынерционная катушка с плавным ходом."},
	{ID: "4", Name: "Мультипликаторная катушка", Category: "reels", PriceDay: "450 руб/день", PriceWeek: "2200 руб/неделя",
		Description: "Катушка для морской и троллинговой ловли."},
	{ID: "5", Name: "Набор воблеров", Category: "lures", PriceDay: "200 руб/день", PriceWeek: "1000 руб/неделя",
		Description: "Набор из десяти воблеров разной глубины."},
	{ID: "6", Name: "Силиконовые приманки", Category: "lures", PriceDay: "150 руб/день", PriceWeek: "750 руб/неделя",
		Description: "Твистеры и виброхвосты с джиг-головками."},
	{ID: "7", Name: "Костюм для рыбалки", Category: "gear", PriceDay: "350 руб/день", PriceWeek: "1750 руб/неделя",
		Description: "Непромокаемый костюм с утеплителем."},
	{ID: "8", Name: "Забродные сапоги", Category: "gear", PriceDay: "250 руб/день", PriceWeek: "1250 руб/неделя",
		Description: "Сапоги для ловли в проводку."},
	{ID: "9", Name: "Рыболовный ящик", Category: "accessories", PriceDay: "100 руб/день", PriceWeek: "500 руб/неделя",
		Description: "Ящик-сиденье для снастей."},
	{ID: "10", Name: "Подсачек", Category: "accessories", PriceDay: "80 руб/день", PriceWeek: "400 руб/неделя",
		Description: "Складной подсачек с прорезиненной сеткой."},
	{ID: "11", Name: "Эхолот Garmin", Category: "accessories", PriceDay: "800 руб/день", PriceWeek: "4000 руб/неделя",
		Description: "Портативный эхолот с картплоттером."},
	{ID: "12", Name: "Палатка для зимней рыбалки", Category: "gear", PriceDay: "600 руб/день", PriceWeek: "3000 руб/неделя",
		Description: "Утепленная палатка-куб для подледной ловли."},
}

var categories = []Category{
	{Key: CategoryAll, Label: "Все категории"},
	{Key: "rods", Label: "Удочки и спиннинги"},
	{Key: "reels", Label: "Катушки"},
	{Key: "lures", Label: "Приманки"},
	{Key: "gear", Label: "Экипировка"},
	{Key: "accessories", Label: "Аксессуары"},
}

var consultationTypes = []string{
	"Выбор снаряжения",
	"Техники ловли",
	"Места для рыбалки",
	"Подготовка к соревнованиям",
	"Обучение новичков",
	"Другое",
}

var timeSlots = []string{
	"09:00", "10:00", "11:00", "12:00", "13:00",
	"14:00", "15:00", "16:00", "17:00", "18:00",
}

var experienceLevels = []string{
	"Полный новичок",
	"Есть базовые навыки",
	"Средний уровень",
	"Опытный рыболов",
}

// Events は公式イベントの一覧を返す。
func Events() []Event { return append([]Event(nil), events...) }

// Courses は講習コースの一覧を返す。
func Courses() []Course { return append([]Course(nil), courses...) }

// Categories は機材カテゴリの一覧を返す。先頭は「すべて」。
func Categories() []Category { return append([]Category(nil), categories...) }

// ConsultationTypes は相談種別の選択肢を返す。
func ConsultationTypes() []string { return append([]string(nil), consultationTypes...) }

// TimeSlots は相談の希望時間帯の選択肢を返す。
func TimeSlots() []string { return append([]string(nil), timeSlots...) }

// ExperienceLevels は講習申込時の経験レベルの選択肢を返す。
func ExperienceLevels() []string { return append([]string(nil), experienceLevels...) }

// EventByID は指定IDの公式イベントを返す。
func EventByID(id string) (Event, bool) {
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}

// CourseByID は指定IDの講習コースを返す。
func CourseByID(id string) (Course, bool) {
	for _, c := range courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}

// EquipmentByID は指定IDの機材を返す。
func EquipmentByID(id string) (Equipment, bool) {
	for _, e := range equipment {
		if e.ID == id {
			return e, true
		}
	}
	return Equipment{}, false
}

// EquipmentByCategory はカテゴリで絞り込んだ機材一覧を返す。
// 空文字列またはCategoryAllの場合は全件を返す。
func EquipmentByCategory(category string) []Equipment {
	if category == "" || category == CategoryAll {
		return append([]Equipment(nil), equipment...)
	}
	var out []Equipment
	for _, e := range equipment {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// IsCategory はカテゴリキーが既知の値かどうかを返す。
func IsCategory(key string) bool {
	for _, c := range categories {
		if c.Key == key {
			return true
		}
	}
	return false
}

// IsConsultationType は相談種別が選択肢に含まれるかを返す。
func IsConsultationType(v string) bool { return contains(consultationTypes, v) }

// IsTimeSlot は希望時間帯が選択肢に含まれるかを返す。
func IsTimeSlot(v string) bool { return contains(timeSlots, v) }

// IsExperienceLevel は経験レベルが選択肢に含まれるかを返す。
func IsExperienceLevel(v string) bool { return contains(experienceLevels, v) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
