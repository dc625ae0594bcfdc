// Package translate formats user-facing ls8 messages for the host locale.
package translate

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DEFAULT_LOCALE is used when the host reports no usable locale.
const DEFAULT_LOCALE = "en-US"

var (
	printer *message.Printer
	tag     language.Tag
	once    sync.Once
)

func setup() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("ls8: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{DEFAULT_LOCALE}
	}

	tag = message.MatchLanguage(locales...)
	printer = message.NewPrinter(tag)
}

// Tag returns the language messages are formatted for.
func Tag() language.Tag {
	once.Do(setup)
	return tag
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	once.Do(setup)
	return printer.Sprintf(key, args...)
}
