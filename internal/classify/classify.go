// Package classify maps a transport outcome to a typed client error.
package classify

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/teracrafts/huefy-go/internal/core"
	"github.com/teracrafts/huefy-go/internal/transport"
)

// Service error codes (error.code in the response body).
const (
	CodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	CodeTemplateNotFound     = "TEMPLATE_NOT_FOUND"
	CodeInvalidTemplateData  = "INVALID_TEMPLATE_DATA"
	CodeInvalidRecipient     = "INVALID_RECIPIENT"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	CodeProviderError        = "PROVIDER_ERROR"
	CodeTimeout              = "TIMEOUT"
	CodeNetworkError         = "NETWORK_ERROR"
)

// codeKinds is the one place service codes are mapped to kinds. Status rules
// in Classify decide which of these a given status may produce.
//
// AUTHENTICATION_FAILED, RATE_LIMIT_EXCEEDED, TIMEOUT and NETWORK_ERROR never
// change a classification: their kinds follow from the status or the
// transport outcome alone. They are listed so KindForCode knows every
// documented code.
var codeKinds = map[string]core.ErrorKind{
	CodeAuthenticationFailed: core.KindAuthentication,
	CodeTemplateNotFound:     core.KindTemplateNotFound,
	CodeInvalidTemplateData:  core.KindInvalidTemplateData,
	CodeInvalidRecipient:     core.KindInvalidRecipient,
	CodeValidationFailed:     core.KindValidation,
	CodeRateLimitExceeded:    core.KindRateLimit,
	CodeProviderError:        core.KindProvider,
	CodeTimeout:              core.KindTimeout,
	CodeNetworkError:         core.KindNetwork,
}

// KindForCode returns the kind registered for a service error code.
func KindForCode(code string) (core.ErrorKind, bool) {
	kind, ok := codeKinds[strings.ToUpper(strings.TrimSpace(code))]
	return kind, ok
}

// Classify returns nil for a successful outcome and the classified error
// otherwise. It is pure: no I/O, no shared state.
func Classify(out transport.Outcome) *core.Error {
	switch out.Kind {
	case transport.OutcomeSuccess:
		return nil
	case transport.OutcomeTransportFailure:
		return classifyTransport(out)
	default:
		return classifyHTTP(out)
	}
}

func classifyTransport(out transport.Outcome) *core.Error {
	if out.Timeout {
		return &core.Error{Kind: core.KindTimeout, Message: "request timed out", Cause: out.Cause}
	}
	return &core.Error{Kind: core.KindNetwork, Message: "network error", Cause: out.Cause}
}

func classifyHTTP(out transport.Outcome) *core.Error {
	body := parseBody(out.Status, out.Body)

	e := &core.Error{
		Kind:    core.KindAPI,
		Code:    body.code,
		Message: body.message,
		Status:  out.Status,
		Body:    out.Body,
		Details: body.details,
	}

	codeKind, _ := KindForCode(body.code)

	switch status := out.Status; {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = core.KindAuthentication

	case status == http.StatusNotFound:
		key := body.field("templateKey")
		if codeKind == core.KindTemplateNotFound || key.Exists() {
			e.Kind = core.KindTemplateNotFound
			e.TemplateKey = key.String()
		}

	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		switch codeKind {
		case core.KindInvalidTemplateData:
			e.Kind = core.KindInvalidTemplateData
			for _, v := range body.field("validationErrors").Array() {
				e.ValidationErrors = append(e.ValidationErrors, v.String())
			}
		case core.KindInvalidRecipient:
			e.Kind = core.KindInvalidRecipient
		default:
			e.Kind = core.KindValidation
		}

	case status == http.StatusTooManyRequests:
		e.Kind = core.KindRateLimit
		e.RetryAfter, e.RetryAfterParsed = retryAfter(out.Header, body)
		if !e.RetryAfterParsed {
			e.RetryAfter = core.DefaultRetryAfter
		}

	case status >= 500 && status <= 599:
		provider := body.field("provider")
		if codeKind == core.KindProvider || provider.Exists() {
			e.Kind = core.KindProvider
			e.Provider = provider.String()
			e.ProviderCode = body.field("providerCode").String()
		} else {
			e.Kind = core.KindServer
		}
	}

	return e
}

type errorBody struct {
	json    gjson.Result
	code    string
	message string
	details map[string]any
}

func parseBody(status int, raw []byte) errorBody {
	if !gjson.ValidBytes(raw) || !gjson.GetBytes(raw, "error").IsObject() {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", status)
		}
		return errorBody{code: fmt.Sprintf("HTTP_%d", status), message: msg}
	}

	errObj := gjson.GetBytes(raw, "error")
	b := errorBody{
		json:    errObj,
		code:    errObj.Get("code").String(),
		message: errObj.Get("message").String(),
	}
	if b.message == "" {
		b.message = http.StatusText(status)
	}
	if details, ok := errObj.Get("details").Value().(map[string]any); ok {
		b.details = details
	}
	return b
}

// field looks up a kind-specific field under error.details, then directly
// under error.
func (b errorBody) field(name string) gjson.Result {
	if v := b.json.Get("details." + name); v.Exists() {
		return v
	}
	return b.json.Get(name)
}

// retryAfter reads the Retry-After header (delta-seconds or HTTP date) and
// falls back to error.details.retryAfter in seconds.
func retryAfter(header http.Header, body errorBody) (time.Duration, bool) {
	if v := strings.TrimSpace(header.Get("Retry-After")); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 && !math.IsInf(secs, 0) {
			return seconds(secs), true
		}
		if at, err := http.ParseTime(v); err == nil {
			d := time.Until(at)
			if d < 0 {
				d = 0
			}
			return d, true
		}
	}

	if v := body.field("retryAfter"); v.Type == gjson.Number && v.Num >= 0 && !math.IsInf(v.Num, 0) {
		return seconds(v.Num), true
	}

	return 0, false
}

// seconds converts a non-negative second count, saturating instead of
// overflowing into a negative duration.
func seconds(secs float64) time.Duration {
	if secs >= float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs * float64(time.Second))
}
