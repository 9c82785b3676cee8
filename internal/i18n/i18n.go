package i18n

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed locales.json
var localesJSON []byte

// Fallback — язык по умолчанию и язык подстановки для неизвестных кодов.
const Fallback = "uz"

var catalog map[string]map[string]string

func init() {
	if err := json.Unmarshal(localesJSON, &catalog); err != nil {
		panic(fmt.Sprintf("i18n: bad embedded catalog: %v", err))
	}
}

// Text возвращает строку по ключу на выбранном языке. Неизвестный язык
// сводится к Fallback, отсутствующий ключ возвращается как есть —
// отсутствие перевода не должно ронять обработку.
func Text(key, lang string, args ...any) string {
	dict, ok := catalog[lang]
	if !ok {
		dict = catalog[Fallback]
	}
	v, ok := dict[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return v
	}
	return fmt.Sprintf(v, args...)
}

// Languages — коды, предлагаемые при выборе языка, в порядке показа.
func Languages() []string { return []string{"uz", "ru", "en"} }

// Native — самоназвание языка для кнопок выбора.
func Native(code string) string {
	switch code {
	case "uz":
		return "O'zbekcha"
	case "ru":
		return "Русский"
	case "en":
		return "English"
	}
	return code
}
