package record

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Korean)

// FormatVolume renders a volume for display: grouped digits for counts, the upstream
// text otherwise.
func FormatVolume(v Volume) string {
	if n, ok := v.Int(); ok {
		return FormatCount(n)
	}
	return v.Raw()
}

func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}
