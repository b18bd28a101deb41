// Package slug строит URL-безопасные идентификаторы из заголовков.
package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Make переводит заголовок в нижний регистр, заменяет каждую серию символов
// вне [a-z0-9] одним дефисом и убирает дефис в начале и в конце.
// Пустой результат допустим.
func Make(title string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.TrimPrefix(s, "-")
	return strings.TrimSuffix(s, "-")
}
