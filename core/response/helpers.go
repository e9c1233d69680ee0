package response

// JSON returns a new response with a JSON body.
func JSON(status int, v any) *Response {
	return New().SetStatus(status).JSON(v)
}

// Text returns a new plain text response.
func Text(status int, s string) *Response {
	return New().SetStatus(status).Text(s)
}

// HTML returns a new HTML response.
func HTML(status int, s string) *Response {
	return New().SetStatus(status).HTML(s)
}

// Redirect returns a new redirect response.
func Redirect(location string, status int) *Response {
	return New().Redirect(location, status)
}

// ErrorBody is the JSON shape of error responses.
type ErrorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// FromHTTPError renders e as a JSON response, copying its headers.
func FromHTTPError(e HTTPError) *Response {
	res := JSON(e.StatusCode(), ErrorBody{Error: e.Message, Code: e.Code, Details: e.Details})
	for k, vs := range e.Headers {
		for _, v := range vs {
			res.AddHeader(k, v)
		}
	}
	return res
}
