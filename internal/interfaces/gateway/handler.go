package gateway

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	sonic "github.com/bytedance/sonic"

	"github.com/trainwr/fantasy-cricket/internal/interfaces/chat"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
	"github.com/trainwr/fantasy-cricket/internal/usecase"
)

const maxUpdateBodyBytes = 64 * 1024

// update is one inbound delivery from the chat gateway. Either text (a
// typed command) or callback_data (a button press) is set.
type update struct {
	Realm        string `json:"realm"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
	// Document carries an attached file (base64 on the wire), used by the
	// restore command.
	Document []byte `json:"document,omitempty"`
}

// Handler turns gateway updates into dispatcher requests.
type Handler struct {
	dispatcher   *chat.Dispatcher
	defaultRealm string
	logger       *logging.Logger
}

func NewHandler(dispatcher *chat.Dispatcher, defaultRealm string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		dispatcher:   dispatcher,
		defaultRealm: defaultRealm,
		logger:       logger,
	}
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "gateway.Handler.HandleUpdate")
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBodyBytes))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: read update body: %v", usecase.ErrInvalidInput, err))
		return
	}

	var upd update
	if err := sonic.Unmarshal(body, &upd); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode update: %v", usecase.ErrInvalidInput, err))
		return
	}

	action, err := h.parseAction(upd)
	if err != nil {
		// Unknown commands are conversational, not transport failures: the
		// user typed something we don't serve.
		h.logger.DebugContext(ctx, "unparseable update", "user_id", upd.UserID, "error", err)
		writeReply(ctx, w, chat.Reply{Text: usageText(err)})
		return
	}

	realmName := strings.TrimSpace(upd.Realm)
	if realmName == "" {
		realmName = h.defaultRealm
	}

	reply, err := h.dispatcher.Dispatch(ctx, chat.Request{
		UserID:    strings.TrimSpace(upd.UserID),
		Username:  strings.TrimSpace(upd.Username),
		RealmName: realmName,
		Action:    action,
	})
	if err != nil && reply.Text == "" {
		writeError(ctx, w, err)
		return
	}

	writeReply(ctx, w, reply)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) parseAction(upd update) (chat.Action, error) {
	if data := strings.TrimSpace(upd.CallbackData); data != "" {
		return chat.ParseCallback(data)
	}

	text := strings.TrimSpace(upd.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty update", chat.ErrUnknownCommand)
	}

	fields := splitCommandArgs(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty update", chat.ErrUnknownCommand)
	}
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	// Commands arrive as "/bet@BotName" in group chats.
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}

	// Restore is the one command whose payload travels as an attachment,
	// not as arguments.
	if name == "restore" {
		if len(upd.Document) == 0 {
			return nil, fmt.Errorf("%w: restore <attach a backup document>", chat.ErrUnknownCommand)
		}
		return chat.Restore{Payload: upd.Document}, nil
	}

	return chat.ParseCommand(name, fields[1:])
}

// splitCommandArgs splits a command line on whitespace, keeping
// double-quoted runs together so multi-word arguments survive:
// `/yonadd "Will it rain?" Yes No` yields four fields. An unbalanced
// quote swallows the rest of the line into one field.
func splitCommandArgs(text string) []string {
	var fields []string
	var current strings.Builder
	inQuote := false

	flush := func() {
		if current.Len() > 0 {
			fields = append(fields, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case r == '"':
			inQuote = !inQuote
		case !inQuote && unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return fields
}

// usageText renders a parse failure the way an admin typing a malformed
// command expects: the usage hint the parser attached to the error.
func usageText(err error) string {
	msg := strings.TrimPrefix(err.Error(), chat.ErrUnknownCommand.Error()+": ")
	if strings.Contains(msg, "<") {
		return "Usage: " + msg
	}
	return "Unknown command. Try /help."
}
