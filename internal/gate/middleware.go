package gate

import (
	"net/http"
	"time"

	"github.com/2beens/shapepro/internal/shape"
	"github.com/2beens/shapepro/pkg"

	log "github.com/sirupsen/logrus"
)

type RedirectResponse struct {
	View View `json:"view"`
}

// RequireAccess guards the handlers serving restricted views. A denied
// request gets 402 with the view the UI should switch to.
func RequireAccess(
	view View,
	currentState func() shape.State,
	now func() time.Time,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolved := Resolve(view, currentState(), now())
			if resolved != view {
				log.Tracef("access to [%s] denied, rerouting to [%s]", view, resolved)
				pkg.WriteJSON(w, RedirectResponse{View: resolved}, http.StatusPaymentRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
