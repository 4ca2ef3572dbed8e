package display

// Quotes shown on the quote panel.
var Quotes = [...]string{
	"Love what you do.",
	"Believe you can.",
	"Follow your dreams.",
	"Be of value.",
	"You become what you think.",
	"Shine bright.",
	"Stay positive.",
	"Dream big.",
	"Embrace the journey.",
	"Choose joy.",
	"Live boldly.",
	"Grow through it.",
	"Create your reality.",
	"Spread kindness.",
	"Believe in you.",
	"Stay curious.",
	"Act with purpose.",
	"Mind over matter.",
	"Focus on growth.",
	"Radiate positivity.",
	"Find your bliss.",
	"Keep moving forward.",
	"Be your best.",
	"Trust the process.",
	"Breathe and believe.",
	"Make it happen.",
}

// QuoteCount is the number of built-in quotes.
const QuoteCount = len(Quotes)

// Quote returns the quote at i, wrapping out-of-range indexes.
func Quote(i int) string {
	i %= QuoteCount
	if i < 0 {
		i += QuoteCount
	}
	return Quotes[i]
}
