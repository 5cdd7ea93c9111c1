package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule, reported back to the client.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields under their wire names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Per-operation messages, keyed by "<field>.<rule>". The text matches what
// clients of this API already expect.
var messages = map[string]map[string]string{
	"createDoctor": {
		"name.required":      "username required",
		"name.min":           "username must be at least 5 characters long",
		"email.required":     "Email required",
		"email.email":        "Incorrect email format",
		"password.required":  "password required",
		"password.min":       "password must be at least 6 characters long",
		"licenceNo.required": "licenceNo can not be empty",
		"degree.required":    "degree can not be empty.",
		"phone.required":     "invalid mobile number",
		"phone.e164":         "invalid mobile number",
	},
	"checkDoctor": {
		"email.required":    "Email required",
		"password.required": "password required",
	},
	"createTips": {
		"title.required": "title required",
		"title.min":      "title needs to be at least 10 characters long",
		"desc.required":  "description required",
		"desc.min":       "description needs to be at least 100 characters long",
	},
}

// Check trims every string field of req in place, then applies the rule set
// named by op. A nil return means the request may proceed. req must be a
// pointer to a struct carrying validate tags.
func Check(op string, req interface{}) []FieldError {
	trimStrings(req)

	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: "invalid request"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := messages[op][fe.Field()+"."+fe.Tag()]
		if msg == "" {
			msg = "invalid value"
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

// NormalizeEmail lowercases an already-trimmed address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimStrings(req interface{}) {
	v := reflect.ValueOf(req)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.String && f.CanSet() {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}
