package instrument

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// UnknownHandler is the name placeholder used when the matched route
// has no name, and the whole transaction name when no route matched.
const UnknownHandler = "unknown_handler"

// TransactionName derives the transaction name from the request's
// matched route as "<path template without leading slash>/<route
// name>". A route registered without a name yields
// ".../unknown_handler", and a request with no matched route yields
// just "unknown_handler". Route availability is a precondition: the
// middleware must run inside the router (Router.Use) for the route to
// be resolved.
func TransactionName(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return UnknownHandler
	}

	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return UnknownHandler
	}

	name := route.GetName()
	if name == "" {
		name = UnknownHandler
	}

	return strings.TrimPrefix(tmpl, "/") + "/" + name
}
