// Package mcp exposes wizard sessions to agents over the Model Context
// Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aayaan07/quantum-kavach/pkg/ecosystem/recorder"
	"github.com/aayaan07/quantum-kavach/pkg/logging"
	"github.com/aayaan07/quantum-kavach/pkg/portal/role"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/engine"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/enrich"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/form"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/trace"
)

// DefaultCapacity bounds the session registry when Options.Capacity is 0.
const DefaultCapacity = 256

// Options configures the MCP handlers.
type Options struct {
	Capacity int                    // maximum live sessions; least recently used are evicted
	Analyzer func() enrich.Analyzer // per-session analyzer; nil uses enrich.NewSimulated
	Trace    *trace.Writer          // optional shared audit stream
	Logger   *slog.Logger
}

type entry struct {
	session *engine.Session
	rec     *recorder.Recorder
}

// Handlers implements the portal/* tools over a bounded session registry.
type Handlers struct {
	opts     Options
	log      *slog.Logger
	sessions *lru.Cache[string, *entry]
}

// NewHandlers creates the handlers. Evicted sessions are cancelled so their
// enrichment work stops.
func NewHandlers(opts Options) (*Handlers, error) {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	log := opts.Logger
	if log == nil {
		log = logging.New("mcp")
	}
	h := &Handlers{opts: opts, log: log}
	cache, err := lru.NewWithEvict(opts.Capacity, func(id string, e *entry) {
		if e.session.Status() == engine.StatusActive {
			log.Info("evicting active session", "session", id)
		}
		e.session.Cancel()
	})
	if err != nil {
		return nil, fmt.Errorf("session registry: %w", err)
	}
	h.sessions = cache
	return h, nil
}

// Len returns the number of registered sessions.
func (h *Handlers) Len() int {
	return h.sessions.Len()
}

// Close cancels every registered session.
func (h *Handlers) Close() {
	h.sessions.Purge()
}

type wizardInfo struct {
	Kind       string   `json:"kind"`
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Steps      int      `json:"steps"`
	Dashboards []string `json:"dashboards,omitempty"`
}

// HandleWizards implements the portal/wizards MCP tool.
func (h *Handlers) HandleWizards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out []wizardInfo
	for _, kind := range schema.BuiltinKinds() {
		w, err := schema.Builtin(kind)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		info := wizardInfo{Kind: kind, Name: w.Meta.Name, Title: w.Meta.Title, Steps: w.Total()}
		for _, r := range role.All() {
			if d, err := role.Route(r); err == nil && d.CanLaunch(kind) {
				info.Dashboards = append(info.Dashboards, d.Name)
			}
		}
		out = append(out, info)
	}
	return jsonResult(out, false), nil
}

// HandleStart implements the portal/start MCP tool.
func (h *Handlers) HandleStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	kind, _ := args["kind"].(string)
	if kind == "" {
		return errorResult("kind argument is required"), nil
	}
	declared, _ := args["role"].(string)

	w, err := schema.Builtin(kind)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if err := role.Authorize(declared, kind); err != nil {
		return errorResult(err.Error()), nil
	}

	id := uuid.NewString()
	rec := recorder.New(nil)
	rec.SetSensitive(w.SensitiveFields())
	cfg := engine.Config{
		ID:       id,
		Role:     declared,
		Listener: rec,
		Logger:   h.log,
	}
	if h.opts.Analyzer != nil {
		cfg.Analyzer = h.opts.Analyzer()
	}
	if h.opts.Trace != nil {
		cfg.Trace = h.opts.Trace.WithSession(id)
	}
	s, err := engine.NewSession(w, cfg)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	h.sessions.Add(id, &entry{session: s, rec: rec})

	return jsonResult(map[string]any{
		"session_id": id,
		"view":       h.view(s, w),
	}, false), nil
}

// HandleSet implements the portal/set MCP tool.
func (h *Handlers) HandleSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, res := h.lookup(req)
	if res != nil {
		return res, nil
	}
	args := req.GetArguments()
	field, _ := args["field"].(string)
	if field == "" {
		return errorResult("field argument is required"), nil
	}
	fd, ok := e.session.Wizard().Field(field)
	if !ok {
		return errorResult(fmt.Sprintf("unknown field %q", field)), nil
	}
	value, err := coerce(fd, args["value"])
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if err := e.session.SetField(field, value); err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(h.view(e.session, e.session.Wizard()), false), nil
}

// HandleAttach implements the portal/attach MCP tool.
func (h *Handlers) HandleAttach(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, res := h.lookup(req)
	if res != nil {
		return res, nil
	}
	args := req.GetArguments()
	name, _ := args["name"].(string)
	if name == "" {
		return errorResult("name argument is required"), nil
	}
	size, _ := args["size"].(float64)
	item := form.EvidenceItem{Name: name, Size: int64(size), Kind: form.KindFromName(name)}
	if mimeType, _ := args["mime"].(string); mimeType != "" {
		item.Kind = form.KindFromMIME(mimeType)
	}
	if _, err := e.session.Attach(item); err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(h.view(e.session, e.session.Wizard()), false), nil
}

// HandleRemove implements the portal/remove MCP tool.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, res := h.lookup(req)
	if res != nil {
		return res, nil
	}
	idx, ok := req.GetArguments()["index"].(float64)
	if !ok {
		return errorResult("index argument is required"), nil
	}
	removed, err := e.session.RemoveEvidence(int(idx))
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"removed": removed,
		"view":    h.view(e.session, e.session.Wizard()),
	}, false), nil
}

// HandleNext implements the portal/next MCP tool.
func (h *Handlers) HandleNext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, res := h.lookup(req)
	if res != nil {
		return res, nil
	}
	tr := e.session.Next()
	out := map[string]any{"transition": tr}

	if tr.Kind != engine.TransitionSubmitted {
		out["view"] = h.view(e.session, e.session.Wizard())
		return jsonResult(out, false), nil
	}

	rec, _ := e.rec.Record()
	out["record"] = rec
	if rec.Kind == "auth" {
		d, err := role.FromRecord(rec)
		if err != nil {
			out["error"] = err.Error()
			return jsonResult(out, true), nil
		}
		out["dashboard"] = d
	}
	return jsonResult(out, false), nil
}

// HandleBack implements the portal/back MCP tool.
func (h *Handlers) HandleBack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, res := h.lookup(req)
	if res != nil {
		return res, nil
	}
	tr := e.session.Back()
	return jsonResult(map[string]any{
		"transition": tr,
		"view":       h.view(e.session, e.session.Wizard()),
	}, false), nil
}

// HandleCancel implements the portal/cancel MCP tool.
func (h *Handlers) HandleCancel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, res := h.lookup(req)
	if res != nil {
		return res, nil
	}
	return jsonResult(map[string]any{"transition": e.session.Cancel()}, false), nil
}

// HandleStatus implements the portal/status MCP tool.
func (h *Handlers) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, res := h.lookup(req)
	if res != nil {
		return res, nil
	}
	out := map[string]any{
		"view":   h.view(e.session, e.session.Wizard()),
		"events": e.rec.Events(),
	}
	if rec, ok := e.rec.Record(); ok {
		out["record"] = rec
	}
	return jsonResult(out, false), nil
}

// HandleSchema implements the portal/schema MCP tool.
func (h *Handlers) HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := schema.GenerateWizardJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

func (h *Handlers) lookup(req mcp.CallToolRequest) (*entry, *mcp.CallToolResult) {
	id, _ := req.GetArguments()["session_id"].(string)
	if id == "" {
		return nil, errorResult("session_id argument is required")
	}
	e, ok := h.sessions.Get(id)
	if !ok {
		return nil, errorResult(fmt.Sprintf("no session %q (expired or never started)", id))
	}
	return e, nil
}

// view is a session snapshot with sensitive values masked.
func (h *Handlers) view(s *engine.Session, w *schema.Wizard) engine.View {
	v := s.View()
	for _, name := range w.SensitiveFields() {
		if val, ok := v.Fields[name]; ok && !form.IsEmpty(val) {
			v.Fields[name] = trace.Redacted
		}
	}
	return v
}

// coerce converts a tool argument to the field's value type.
func coerce(fd *schema.FieldDef, raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return engine.ParseFieldValue(fd, "")
	case bool:
		if fd.Type == schema.FieldBool {
			return v, nil
		}
		return engine.ParseFieldValue(fd, strconv.FormatBool(v))
	case string:
		return engine.ParseFieldValue(fd, v)
	default:
		return engine.ParseFieldValue(fd, fmt.Sprint(v))
	}
}

func jsonResult(v any, isErr bool) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("encode result: %s", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: isErr,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
