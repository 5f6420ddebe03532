package exception

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/inventory-system/api/internal/api/response"
	"github.com/inventory-system/api/pkg/database"
	apperrors "github.com/inventory-system/api/pkg/errors"
)

const defaultHTTPMessage = "An error occurred"

// Filter turns any error into a FailureEnvelope, logs it and writes it.
type Filter struct {
	log *zap.Logger
	now func() time.Time
}

func NewFilter(log *zap.Logger) *Filter {
	return &Filter{log: log.Named("ExceptionFilter"), now: time.Now}
}

// Handle builds the envelope for err, logs it and writes it to w.
func (f *Filter) Handle(w http.ResponseWriter, r *http.Request, err error) {
	env := f.Build(err, r)
	f.logError(err, env)
	if werr := response.WriteJSON(w, env.StatusCode, env); werr != nil {
		f.log.Debug("write failure response", zap.Error(werr))
	}
}

// Build classifies err. It never fails and has no side effects.
func (f *Filter) Build(err error, r *http.Request) *response.FailureEnvelope {
	env := &response.FailureEnvelope{
		Success:   false,
		Timestamp: response.Timestamp(f.now()),
		Path:      r.URL.RequestURI(),
		Method:    r.Method,
	}

	var (
		ae  *apperrors.AppError
		kre *database.KnownRequestError
		ve  *database.ValidationError
		ie  *database.InitializationError
	)
	switch {
	case errors.As(err, &ae):
		env.StatusCode = ae.Status
		env.Error = ae.Name()
		env.Message, env.Details = httpBody(ae.Response())
	case errors.As(err, &kre):
		knownRequest(env, kre)
	case errors.As(err, &ve):
		env.StatusCode = http.StatusBadRequest
		env.Message = "Validation error in database query"
		env.Error = "PrismaValidationError"
	case errors.As(err, &ie):
		env.StatusCode = http.StatusInternalServerError
		env.Message = "Database connection error"
		env.Error = "DatabaseConnectionError"
	default:
		env.StatusCode = http.StatusInternalServerError
		env.Message = "Internal server error"
		env.Error = kindName(err)
	}
	return env
}

func httpBody(body any) (message any, details any) {
	switch b := body.(type) {
	case string:
		return b, nil
	case map[string]any:
		switch m := b["message"].(type) {
		case string:
			if m != "" {
				return m, b
			}
		case []string:
			if len(m) > 0 {
				return m, b
			}
		}
		return defaultHTTPMessage, b
	case nil:
		return defaultHTTPMessage, nil
	default:
		return defaultHTTPMessage, b
	}
}

func knownRequest(env *response.FailureEnvelope, e *database.KnownRequestError) {
	env.Error = "DatabaseError"
	switch e.Code {
	case database.CodeUniqueViolation:
		fields := e.Target()
		if fields == nil {
			fields = []string{}
		}
		env.StatusCode = http.StatusConflict
		env.Message = fmt.Sprintf("A record with this %s already exists", strings.Join(fields, ", "))
		env.Details = map[string]any{"fields": fields}
	case database.CodeRecordNotFound:
		env.StatusCode = http.StatusNotFound
		env.Message = "Record not found"
	case database.CodeForeignKeyViolation:
		env.StatusCode = http.StatusBadRequest
		env.Message = "Invalid reference to related record"
	case database.CodeRelationViolation:
		env.StatusCode = http.StatusBadRequest
		env.Message = "Invalid relation between records"
	case database.CodeValueTooLong:
		env.StatusCode = http.StatusBadRequest
		env.Message = "Input value is too long"
	case database.CodeRecordDoesNotExist:
		env.StatusCode = http.StatusNotFound
		env.Message = "Referenced record does not exist"
	case database.CodeRelatedNotFound:
		env.StatusCode = http.StatusNotFound
		env.Message = "Related record not found"
	default:
		env.StatusCode = http.StatusInternalServerError
		env.Message = "Database operation failed"
		env.Details = map[string]any{"code": e.Code}
	}
}

func (f *Filter) logError(err error, env *response.FailureEnvelope) {
	msg := fmt.Sprintf("%s %s - Status: %d", env.Method, env.Path, env.StatusCode)
	if env.StatusCode >= http.StatusInternalServerError {
		f.log.Error(msg, zap.String("trace", trace(err)))
		return
	}
	m, _ := json.Marshal(env.Message)
	f.log.Warn(msg, zap.String("message", string(m)))
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func trace(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		if _, isErr := pe.Value.(error); isErr {
			return fmt.Sprintf("%+v\n%s", pe.Value, pe.Stack)
		}
		dump, jerr := json.Marshal(pe.Value)
		if jerr != nil {
			dump = []byte(fmt.Sprintf("%q", fmt.Sprint(pe.Value)))
		}
		return fmt.Sprintf("%s\n%s", dump, pe.Stack)
	}
	var st stackTracer
	if errors.As(err, &st) {
		if inner, ok := st.(error); ok && inner != err {
			return fmt.Sprintf("%s\n%+v", err, st)
		}
		return fmt.Sprintf("%+v", err)
	}
	if err == nil {
		return "null"
	}
	return err.Error()
}

// kindName labels an error by its concrete type. Plain errors from errors.New
// and fmt.Errorf are labelled "Error".
func kindName(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		inner, isErr := pe.Value.(error)
		if !isErr {
			return "UnknownError"
		}
		err = inner
	}
	if err == nil {
		return "UnknownError"
	}
	for {
		c, ok := err.(interface{ Cause() error })
		if !ok || c.Cause() == nil {
			break
		}
		err = c.Cause()
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.PkgPath() {
	case "errors", "fmt", "github.com/pkg/errors":
		return "Error"
	}
	if t.Name() == "" {
		return "Error"
	}
	return t.Name()
}
