// Package route defines the registration-time data model the dispatch
// assembler (§4.E) and handler compiler (§4.B) operate on: parameter
// descriptors, route descriptors, constraints, and the Group builder that
// stands in for spec.md's annotation-driven "controller."
package route

// Kind identifies where a handler parameter's value comes from.
type Kind int

const (
	// KindPath extracts a captured path segment by name.
	KindPath Kind = iota
	// KindQuery extracts a query-string value by name.
	KindQuery
	// KindHeader extracts a request header value by name.
	KindHeader
	// KindBody parses and binds the request body. Binding a body parameter
	// forces the compiled handler to classify as async (§4.B binding rule).
	KindBody
	// KindContext binds the full request context.
	KindContext
	// KindRequest binds the full underlying *http.Request.
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindQuery:
		return "query"
	case KindHeader:
		return "header"
	case KindBody:
		return "body"
	case KindContext:
		return "context"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Param is a single parameter descriptor. Name is required for
// KindPath/KindQuery/KindHeader and ignored otherwise. Schema, when
// non-nil, is passed as the `target` argument to the configured validation
// Adapter; the validated value is bound in place of the raw extracted one.
type Param struct {
	Kind   Kind
	Name   string
	Schema any
}

// Path declares a path-parameter binding.
func Path(name string) Param { return Param{Kind: KindPath, Name: name} }

// Query declares a query-parameter binding.
func Query(name string) Param { return Param{Kind: KindQuery, Name: name} }

// Header declares a header binding.
func Header(name string) Param { return Param{Kind: KindHeader, Name: name} }

// Body declares a request-body binding, optionally validated against schema.
func Body(schema any) Param { return Param{Kind: KindBody, Schema: schema} }

// Ctx declares a full-Context binding.
func Ctx() Param { return Param{Kind: KindContext} }

// Req declares a full-*http.Request binding.
func Req() Param { return Param{Kind: KindRequest} }

// WithSchema attaches a validation schema to a path/query/header parameter.
func (p Param) WithSchema(schema any) Param {
	p.Schema = schema
	return p
}
