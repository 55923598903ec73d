// Package translate formats user visible messages for the current locale.
package translate

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

// printer is resolved on first use.
var printer = sync.OnceValue(func() *message.Printer {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("hcpu: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	return message.NewPrinter(message.MatchLanguage(locales...))
})

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer().Sprintf(key, args...)
}
