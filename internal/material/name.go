package material

import (
	"strings"
	"unicode"
)

// CanonicalName приводит имя материала к ключу поиска: обрезает пробелы,
// схлопывает последовательности пробелов и подчеркиваний в один "_" и
// переводит в нижний регистр. "Solid_Rock ", "solid rock" и "SOLID_ROCK"
// дают "solid_rock".
func CanonicalName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || unicode.IsSpace(r)
	})
	return strings.ToLower(strings.Join(parts, "_"))
}
