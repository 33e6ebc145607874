package notification

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeNotConfigured          = "NOTIFICATION_NOT_CONFIGURED"
	TextCodeMailerError            = "MAILER_ERROR"
	TextCodeDeliveryError          = "DELIVERY_ERROR"
	TextCodeRenderError            = "TEMPLATE_RENDER_ERROR"
	TextCodeSubjectTemplateMissing = "SUBJECT_TEMPLATE_MISSING"
	TextCodeRenderTemplateMissing  = "RENDER_TEMPLATE_MISSING"
	TextCodeCategoryMissing        = "CATEGORY_MISSING"
	TextCodeRecipientMissing       = "NOTIFICATION_RECIPIENT_MISSING"
)

// ErrNotConfigured is returned when triggering an unknown id or an unsupported channel
var ErrNotConfigured = goerrors.New("notification not configured", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotConfigured).
	WithCode(goerrors.CodeNotFound)

// ErrSubjectTemplateMissing email configs need a subject template
var ErrSubjectTemplateMissing = goerrors.New("subject template path is required for email notifications", goerrors.CategoryValidation).
	WithTextCode(TextCodeSubjectTemplateMissing).
	WithCode(goerrors.CodeBadRequest)

// ErrRenderTemplateMissing every config needs a body template
var ErrRenderTemplateMissing = goerrors.New("render template path is required", goerrors.CategoryValidation).
	WithTextCode(TextCodeRenderTemplateMissing).
	WithCode(goerrors.CodeBadRequest)

// ErrCategoryMissing every config needs a notification category
var ErrCategoryMissing = goerrors.New("notification category is required", goerrors.CategoryValidation).
	WithTextCode(TextCodeCategoryMissing).
	WithCode(goerrors.CodeBadRequest)

// MailerError wraps a transport failure, keeping the transport reason
func MailerError(reason string) *goerrors.Error {
	return goerrors.New("mailer error: "+reason, goerrors.CategoryExternal).
		WithTextCode(TextCodeMailerError).
		WithCode(goerrors.CodeInternal).
		WithMetadata(map[string]any{"reason": reason})
}

// DeliveryError wraps a non-email channel failure
func DeliveryError(reason string) *goerrors.Error {
	return goerrors.New("delivery error: "+reason, goerrors.CategoryExternal).
		WithTextCode(TextCodeDeliveryError).
		WithCode(goerrors.CodeInternal).
		WithMetadata(map[string]any{"reason": reason})
}

func renderError(path string, err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "render template "+path).
		WithTextCode(TextCodeRenderError).
		WithCode(goerrors.CodeInternal).
		WithMetadata(map[string]any{"template": path})
}

// IsNotConfigured reports whether err is ErrNotConfigured
func IsNotConfigured(err error) bool {
	return hasTextCode(err, TextCodeNotConfigured)
}

// IsMailerError reports whether err came from the mail transport
func IsMailerError(err error) bool {
	return hasTextCode(err, TextCodeMailerError)
}

// IsDeliveryError reports whether err came from a non-email channel
func IsDeliveryError(err error) bool {
	return hasTextCode(err, TextCodeDeliveryError)
}

// IsRenderError reports whether a template failed to compile or render
func IsRenderError(err error) bool {
	return hasTextCode(err, TextCodeRenderError)
}

// IsRecipientMissing reports whether an email trigger had no recipient
func IsRecipientMissing(err error) bool {
	return hasTextCode(err, TextCodeRecipientMissing)
}

// Reason returns the transport reason carried by a mailer or delivery error
func Reason(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if reason, ok := richErr.Metadata["reason"].(string); ok {
			return reason
		}
	}
	return ""
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}
