package client

// Result is the outcome of a view operation. Navigation is part of the
// value, never a side effect: callers inspect the result and move the UI
// accordingly.
type Result struct {
	redirect string
	field    string
	message  string
	ok       bool
}

func Success() Result {
	return Result{ok: true}
}

func Redirect(target string) Result {
	return Result{redirect: target}
}

func FieldError(field, message string) Result {
	return Result{field: field, message: message}
}

func (r Result) IsSuccess() bool { return r.ok }

// RedirectTarget returns the route to navigate to and whether there is one.
func (r Result) RedirectTarget() (string, bool) {
	return r.redirect, r.redirect != ""
}

// Field returns the invalid field and its message for a validation outcome.
func (r Result) Field() (string, string, bool) {
	return r.field, r.message, r.field != ""
}

// History is the browsing trail the views consult for "go back or home"
// navigation.
type History struct {
	routes []string
}

func (h *History) Push(route string) {
	h.routes = append(h.routes, route)
}

// BackOrHome pops the previous route, or "/" when the trail is empty.
func (h *History) BackOrHome() string {
	if len(h.routes) == 0 {
		return "/"
	}
	route := h.routes[len(h.routes)-1]
	h.routes = h.routes[:len(h.routes)-1]
	return route
}
