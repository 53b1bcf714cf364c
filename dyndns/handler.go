package dyndns

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Invocation struct {
	ClientID string
	Domains  []string
	IP       string
	Token    string
}

type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// ParseInvocation reads the query parameters client_id, domain, ip and token.
// domain holds one or more comma separated names. Values are passed on as
// sent; only domain entries are trimmed. client_id, domain and ip are missing
// when absent or empty, token only when absent so an empty token fails
// authentication instead.
func ParseInvocation(params map[string]string) (*Invocation, error) {
	missing := make([]string, 0)

	value := func(key string, allowEmpty bool) string {
		v, ok := params[key]
		if !ok || (v == "" && !allowEmpty) {
			missing = append(missing, key)
		}
		return v
	}

	invocation := &Invocation{ClientID: value("client_id", false)}

	domains := make([]string, 0)
	for _, domain := range strings.Split(params["domain"], ",") {
		if domain = strings.TrimSpace(domain); domain != "" {
			domains = append(domains, domain)
		}
	}
	if len(domains) == 0 {
		missing = append(missing, "domain")
	}
	invocation.Domains = domains

	invocation.IP = value("ip", false)
	invocation.Token = value("token", true)

	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	return invocation, nil
}

type Handler struct {
	gate       *Gate
	reconciler *Reconciler
	logger     *logrus.Entry
}

func (h *Handler) invoke(ctx context.Context, logger *logrus.Entry, params map[string]string) (result *ReconcileResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	invocation, err := ParseInvocation(params)
	if err != nil {
		return nil, err
	}

	l := logger.
		WithField("client", invocation.ClientID).
		WithField("domains", strings.Join(invocation.Domains, ",")).
		WithField("ip", invocation.IP)
	l.Info("Processing update request")

	if err := h.gate.Authenticate(ctx, invocation.ClientID, invocation.Token); err != nil {
		return nil, err
	}

	return h.reconciler.Reconcile(ctx, invocation.Domains, invocation.IP)
}

// Handle runs one update request end to end. It never fails: every error is
// translated into a status code and a message.
func (h *Handler) Handle(ctx context.Context, params map[string]string) Response {
	l := h.logger.WithField("invocation", uuid.New().String())

	result, err := h.invoke(ctx, l, params)
	if err != nil {
		statusCode := StatusCode(err)
		if statusCode >= 500 {
			l.WithError(err).Error("Update request failed")
		} else {
			l.WithError(err).Warn("Update request rejected")
		}
		return newResponse(statusCode, publicMessage(err))
	}

	l.WithField("updated", result.Updated).Info(result.Message)
	return newResponse(StatusCode(nil), result.Message)
}

// The body is the JSON encoded message string, existing update clients parse
// it that way.
func newResponse(statusCode int, message string) Response {
	body, err := json.Marshal(message)
	if err != nil {
		body = []byte(`"` + MessageUnexpected + `"`)
	}
	return Response{StatusCode: statusCode, Body: string(body)}
}

func CreateHandler(logger *logrus.Entry, gate *Gate, reconciler *Reconciler) *Handler {
	return &Handler{
		gate:       gate,
		reconciler: reconciler,
		logger:     logger.WithField("module", "handler"),
	}
}
