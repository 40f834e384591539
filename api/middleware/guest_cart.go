package middleware

import (
	"net/http"

	"github.com/yawboateng/marketgh-backend/internal/cart"
	"github.com/yawboateng/marketgh-backend/pkg/logger"
)

const guestCartHeader = "X-Guest-Cart"

// GuestCart parses the guest cart header into the request context. A
// malformed payload is treated as an empty cart, never an error.
func GuestCart(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(guestCartHeader)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			lines, err := cart.ParseGuestCart(header)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "header", guestCartHeader), "malformed guest cart, treating as empty")
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithGuestCart(r.Context(), lines)))
		})
	}
}
