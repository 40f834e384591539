package middleware

import (
	"net/http"

	"github.com/yawboateng/marketgh-backend/pkg/enums"
)

const currencyHeader = "X-Currency"

// Currency reads the display currency header once per request. A missing
// header resolves to the base currency; an unknown code is passed through and
// converts at rate 1.
func Currency() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			currency := enums.ParseCurrency(r.Header.Get(currencyHeader))
			next.ServeHTTP(w, r.WithContext(WithCurrency(r.Context(), currency)))
		})
	}
}
