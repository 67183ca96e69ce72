package keyboard

import (
	"strconv"

	"github.com/Proton-105/himera-continuity/internal/i18n"
)

// PageNavigation builds the prev/indicator/next row of a paginated menu. Every
// button routes to route with the target page as argument; the indicator points
// at the current page, which edits to identical content and is swallowed.
func PageNavigation(t i18n.Translator, route string, page, total int) []InlineButton {
	total = max(total, 1)
	page = min(max(page, 1), total)

	row := make([]InlineButton, 0, 3)
	if page > 1 {
		row = append(row, pageButton(i18n.TextOr(t, "page-prev", "◀️ Prev"), route, page-1))
	}

	indicator := i18n.Render(t, "page-indicator", map[string]string{
		"Page":  strconv.Itoa(page),
		"Total": strconv.Itoa(total),
	})
	if !i18n.Has(t, "page-indicator") {
		indicator = strconv.Itoa(page) + "/" + strconv.Itoa(total)
	}
	row = append(row, pageButton(indicator, route, page))

	if page < total {
		row = append(row, pageButton(i18n.TextOr(t, "page-next", "Next ▶️"), route, page+1))
	}

	return row
}

func pageButton(text, route string, page int) InlineButton {
	return InlineButton{Text: text, Unique: route, Data: strconv.Itoa(page)}
}
