package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// CartError is the recovery shape returned by every checkout endpoint when no
// active basket exists: the client is redirected back to the cart.
type CartError struct {
	Error        bool     `json:"error"`
	CartError    bool     `json:"cartError"`
	FieldErrors  []any    `json:"fieldErrors"`
	ServerErrors []string `json:"serverErrors"`
	RedirectURL  string   `json:"redirectUrl"`
}

// NewCartError builds the canonical missing-basket payload.
func NewCartError(redirectURL string) CartError {
	return CartError{
		Error:        true,
		CartError:    true,
		FieldErrors:  []any{},
		ServerErrors: []string{},
		RedirectURL:  redirectURL,
	}
}
