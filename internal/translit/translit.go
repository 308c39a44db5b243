// Package translit converts Cyrillic route display names to Latin.
// The mapping is many-to-one and lossy by design: it exists to make the
// spreadsheet readable, not to round-trip.
package translit

import "strings"

// digraphs are multi-letter sequences handled before the per-rune table.
// "МВ" marks minibus variants and is always rendered uppercase.
var digraphs = [][2]string{
	{"мв", "MV"},
	{"МВ", "MV"},
	{"Мв", "MV"},
	{"мВ", "MV"},
}

// table maps single Cyrillic runes to their Latin rendering. The odd
// uppercase targets for л and п come from the upstream table and are kept
// verbatim so regenerated route names stay byte-identical.
var table = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ж': "zh", 'з': "z", 'и': "i", 'й': "j",
	'к': "k", 'л': "L", 'м': "m", 'н': "n", 'о': "o",
	'п': "P", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch", 'ш': "sh",
	'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "", 'э': "e",
	'ю': "yu", 'я': "ya",
	'А': "A", 'Б': "B", 'В': "V", 'Г': "G", 'Д': "D",
	'Е': "E", 'Ж': "Zh", 'З': "Z", 'И': "I", 'Й': "J",
	'К': "K", 'Л': "L", 'М': "M", 'Н': "N", 'О': "O",
	'П': "P", 'Р': "R", 'С': "S", 'Т': "T", 'У': "U",
	'Ф': "F", 'Х': "H", 'Ц': "C", 'Ч': "Ch", 'Ш': "Sh",
	'Щ': "Shch", 'Ъ': "", 'Ы': "Y", 'Ь': "", 'Э': "E",
	'Ю': "Yu", 'Я': "Ya",
}

// Latin transliterates Cyrillic characters in text to Latin; everything
// else passes through unchanged.
func Latin(text string) string {
	for _, d := range digraphs {
		text = strings.ReplaceAll(text, d[0], d[1])
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if latin, ok := table[r]; ok {
			b.WriteString(latin)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
