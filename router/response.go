package router

import "net/http"

// Response is the explicit case of the HandlerResult sum type (§4.F): a
// handler that wants full control over status, headers, and body shape
// returns one of these instead of a bare value.
type Response struct {
	Status  int
	Headers map[string]string
	Body    any
	raw     bool
}

// Text builds a plain-text Response.
func Text(status int, body string) Response {
	return Response{Status: status, Body: body, raw: true}
}

// JSON builds a Response whose body is marshalled as JSON.
func JSON(status int, body any) Response {
	return Response{Status: status, Body: body}
}

// normalizeResult applies §4.F's return-value normalization rule to
// whatever a compiled handler produced:
//
//   - a Response is used as-is
//   - a string becomes a 200 text/plain body
//   - anything else becomes a 200 JSON body
//   - nil becomes a 204 with no body
func normalizeResult(value any) Response {
	switch v := value.(type) {
	case Response:
		return v
	case nil:
		return Response{Status: http.StatusNoContent}
	case string:
		return Text(http.StatusOK, v)
	case []byte:
		return Response{Status: http.StatusOK, Body: v, raw: true}
	default:
		return JSON(http.StatusOK, v)
	}
}
