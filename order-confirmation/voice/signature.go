package voice

import (
	"net/http"
	"strings"

	"github.com/twilio/twilio-go/client"
	"go.temporal.io/sdk/log"
)

const signatureHeader = "X-Twilio-Signature"

// SignatureValidator checks that webhook requests were signed by Twilio
type SignatureValidator struct {
	validator client.RequestValidator
	baseURL   string
	logger    log.Logger
}

// NewSignatureValidator validates against publicBaseURL, the address Twilio was given
func NewSignatureValidator(authToken, publicBaseURL string, logger log.Logger) *SignatureValidator {
	return &SignatureValidator{
		validator: client.NewRequestValidator(authToken),
		baseURL:   strings.TrimRight(publicBaseURL, "/"),
		logger:    logger,
	}
}

// Middleware rejects POSTs without a valid signature
func (s *SignatureValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		params := make(map[string]string, len(r.PostForm))
		for k, v := range r.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		if !s.validator.Validate(s.baseURL+r.URL.RequestURI(), params, r.Header.Get(signatureHeader)) {
			s.logger.Warn("Rejected unsigned webhook", "path", r.URL.Path, "remote", r.RemoteAddr)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
