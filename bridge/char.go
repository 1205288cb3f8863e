package bridge

import "reflect"

// Char is a single character. It crosses to scripts as a one-character
// string and back from any one-character string.
type Char rune

// CharType is the declared-type hint for WrapAs that renders integer code
// points as one-character strings. Struct fields get the same treatment
// with the `script:",char"` tag option.
var CharType = reflect.TypeFor[Char]()
