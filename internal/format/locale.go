package format

import (
	"time"

	"golang.org/x/text/language"
)

var supported = []language.Tag{
	language.AmericanEnglish,
	language.German,
	language.French,
	language.Spanish,
	language.Italian,
	language.Portuguese,
	language.Dutch,
}

var matcher = language.NewMatcher(supported)

// ForLocale returns the formatter preset closest to tag, displaying timestamps in loc.
// Unknown languages fall back to en-US conventions.
func ForLocale(tag language.Tag, loc *time.Location) Formatter {
	_, idx, _ := matcher.Match(tag)
	base, _ := supported[idx].Base()

	f := Default()
	switch base.String() {
	case "de":
		f.Grouping, f.Decimal = ".", ","
		f.CurrencyPattern = "%s $"
		f.DateLayout = "02.01.2006"
		f.DateTimeLayout = "2.1.2006, 15:04:05"
	case "fr":
		f.Grouping, f.Decimal = " ", ","
		f.CurrencyPattern = "%s $US"
		f.DateLayout = "02/01/2006"
		f.DateTimeLayout = "02/01/2006 15:04:05"
	case "es", "it":
		f.Grouping, f.Decimal = ".", ","
		f.CurrencyPattern = "%s US$"
		f.DateLayout = "02/01/2006"
		f.DateTimeLayout = "2/1/2006, 15:04:05"
	case "pt":
		f.Grouping, f.Decimal = ".", ","
		f.CurrencyPattern = "US$ %s"
		f.DateLayout = "02/01/2006"
		f.DateTimeLayout = "02/01/2006, 15:04:05"
	case "nl":
		f.Grouping, f.Decimal = ".", ","
		f.CurrencyPattern = "US$ %s"
		f.DateLayout = "02-01-2006"
		f.DateTimeLayout = "2-1-2006, 15:04:05"
	}
	if loc != nil {
		f.Location = loc
	}
	return f
}

// ParseLocale resolves a BCP-47 string such as "de-DE" into a formatter.
// An empty or malformed tag yields en-US.
func ParseLocale(s string, loc *time.Location) Formatter {
	if s == "" {
		return ForLocale(language.AmericanEnglish, loc)
	}
	tag, err := language.Parse(s)
	if err != nil {
		return ForLocale(language.AmericanEnglish, loc)
	}
	return ForLocale(tag, loc)
}
