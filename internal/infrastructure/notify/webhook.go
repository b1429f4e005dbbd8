package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/trainwr/fantasy-cricket/internal/domain/bet"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
	"github.com/trainwr/fantasy-cricket/internal/platform/resilience"
)

var errWebhookTransient = crerr.New("chat gateway transient failure")

type WebhookConfig struct {
	BaseURL        string
	Token          string
	AdminChatIDs   []string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookNotifier delivers messages through the chat gateway's send
// endpoint. It satisfies usecase.Notifier for the bet handshake and is also
// what the storage monitor alerts through.
type WebhookNotifier struct {
	client         *http.Client
	baseURL        string
	token          string
	adminChatIDs   []string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewWebhookNotifier(cfg WebhookConfig, logger *logging.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &WebhookNotifier{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:          strings.TrimSpace(cfg.Token),
		adminChatIDs:   append([]string(nil), cfg.AdminChatIDs...),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type outboundMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// PromptVerification asks every configured admin to verify a pending bet.
// One admin receiving the prompt counts as delivered.
func (n *WebhookNotifier) PromptVerification(ctx context.Context, req bet.VerificationRequest) error {
	who := req.Username
	if who == "" {
		who = req.UserID
	}
	text := fmt.Sprintf(
		"%s requests a bet of %d (%s) on %s. Verify with: /verify %s %s %d",
		who, req.Amount, req.Room, req.MatchName,
		req.UserID, req.MatchName, req.Amount,
	)

	var lastErr error
	delivered := false
	for _, chatID := range n.adminChatIDs {
		if err := n.send(ctx, chatID, text); err != nil {
			lastErr = err
			continue
		}
		delivered = true
	}
	if !delivered {
		if lastErr != nil {
			return lastErr
		}
		return crerr.New("no admin chat ids configured")
	}
	return nil
}

func (n *WebhookNotifier) NotifyUser(ctx context.Context, userID, message string) error {
	return n.send(ctx, userID, message)
}

// AlertAdmins broadcasts an operational warning to every admin. Used by the
// storage monitor.
func (n *WebhookNotifier) AlertAdmins(ctx context.Context, message string) error {
	var lastErr error
	for _, chatID := range n.adminChatIDs {
		if err := n.send(ctx, chatID, message); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (n *WebhookNotifier) send(ctx context.Context, chatID, text string) error {
	if n.circuitEnabled {
		if err := n.breaker.Allow(); err != nil {
			n.logger.WarnContext(ctx, "chat gateway circuit breaker rejected request", "state", n.breaker.State())
			return fmt.Errorf("chat gateway is temporarily unavailable: %w", err)
		}
	}

	baseURL, err := validateHTTPBaseURL(n.baseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid CHAT_WEBHOOK_BASE_URL")
	}
	sendURL := baseURL + "/messages"

	body, err := sonic.Marshal(outboundMessage{ChatID: chatID, Text: text})
	if err != nil {
		return crerr.Wrap(err, "marshal outbound message")
	}
	bodyText := truncateForLog(string(body), 4096)
	curlPreview := buildSendCurlPreview(sendURL, bodyText)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("chatgateway.send_url", sendURL),
			attribute.String("chatgateway.chat_id", chatID),
			attribute.String("chatgateway.request_curl_preview", curlPreview),
		)
	}
	n.logger.DebugContext(ctx, "chat gateway send", "chat_id", chatID, "curl_preview", curlPreview)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create chat gateway request")
	}
	req.Header.Set("Authorization", "Bearer "+n.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: send message chat_id=%s: %v", errWebhookTransient, chatID, err)
		n.recordCircuitResult(callErr)
		return callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isRetryableStatus(resp.StatusCode) {
			callErr := fmt.Errorf(
				"%w: send message status=%d chat_id=%s body=%s",
				errWebhookTransient, resp.StatusCode, chatID, strings.TrimSpace(string(raw)),
			)
			n.recordCircuitResult(callErr)
			return callErr
		}

		callErr := fmt.Errorf(
			"send message status=%d chat_id=%s body=%s",
			resp.StatusCode, chatID, strings.TrimSpace(string(raw)),
		)
		n.recordCircuitResult(callErr)
		return callErr
	}

	n.recordCircuitResult(nil)
	return nil
}

func (n *WebhookNotifier) recordCircuitResult(err error) {
	if !n.circuitEnabled || n.breaker == nil {
		return
	}
	if err == nil {
		n.breaker.RecordSuccess()
		return
	}
	if stderrors.Is(err, errWebhookTransient) {
		n.breaker.RecordFailure()
		return
	}
	n.breaker.RecordSuccess()
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func buildSendCurlPreview(sendURL, body string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(sendURL))
	appendPart("-H")
	appendPart(shellQuote("Authorization: Bearer ***"))
	appendPart("-H")
	appendPart(shellQuote("Content-Type: application/json"))
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
