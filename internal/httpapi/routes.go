package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"demandhook/internal/config"
	"demandhook/internal/demand"
)

const (
	internalErrorMessage = "Erro interno do servidor"
	badContentType       = "Content-Type deve ser application/json"
	badJSON              = "Dados JSON inválidos"
)

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleHome)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/webhook/demand", s.handleDemand)
	s.mux.HandleFunc("/responsaveis", s.handleParties)
	s.mux.HandleFunc("/config", s.handleConfig)
	s.mux.HandleFunc("/test", s.handleSelfTest)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.fail(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("Método %s não suportado", r.Method))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.fail(w, r, http.StatusNotFound, "Rota não encontrada")
		return
	}
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%s %s", config.AppName, s.deps.Version),
		"status":  "online",
		"endpoints": map[string]string{
			"/health":         "Verificação de saúde",
			"/webhook/demand": "Criação de demandas",
			"/responsaveis":   "Lista de responsáveis",
			"/config":         "Configuração do sistema",
			"/test":           "Demanda de teste",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.methodNotAllowed(w, r)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"version":            s.deps.Version,
		"clickup_configured": s.remote().Configured(),
		"responsaveis_count": s.deps.Directory.Len(),
	})
}

func (s *Server) handleDemand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r)
		return
	}
	if !isJSON(r.Header.Get("Content-Type")) {
		s.fail(w, r, http.StatusBadRequest, badContentType)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, badJSON)
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		s.fail(w, r, http.StatusBadRequest, badJSON)
		return
	}
	var d demand.Demand
	if err := json.Unmarshal(body, &d); err != nil {
		s.log.Warn("demanda com tipos inválidos", "error", err, "request_id", RequestID(r.Context()))
		s.fail(w, r, http.StatusBadRequest, badJSON)
		return
	}
	s.log.Info("recebida demanda",
		"request_id", RequestID(r.Context()),
		"empresa", d.Company,
		"tarefa", d.Title,
		"tipo", d.Type,
	)
	s.process(w, r, d)
}

func (s *Server) handleSelfTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.methodNotAllowed(w, r)
		return
	}
	s.process(w, r, demand.SelfTestDemand(s.now()))
}

// process runs d detached from the request's cancellation so a client that
// hangs up does not interrupt a half-created hierarchy.
func (s *Server) process(w http.ResponseWriter, r *http.Request, d demand.Demand) {
	if s.deps.Processor == nil {
		s.fail(w, r, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	out, err := s.deps.Processor.Process(context.WithoutCancel(r.Context()), d)
	if err != nil {
		code := http.StatusInternalServerError
		if demand.IsClientError(err) {
			code = http.StatusBadRequest
		}
		s.log.Error("erro ao processar demanda",
			"error", err,
			"status", code,
			"request_id", RequestID(r.Context()),
		)
		s.fail(w, r, code, demand.PublicMessage(err))
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    demand.SuccessMessage,
		"request_id": RequestID(r.Context()),
		"data":       out,
	})
}

func (s *Server) handleParties(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"responsaveis": s.deps.Directory.Map(),
		"count":        s.deps.Directory.Len(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		remote := s.remote()
		s.respond(w, http.StatusOK, map[string]any{
			"clickup_configured": remote.Configured(),
			"workspace_id":       nullable(remote.WorkspaceID),
			"space_id":           nullable(remote.SpaceID),
			"folder_id":          nullable(remote.FolderID),
			"responsaveis":       s.deps.Directory.Map(),
		})
	case http.MethodPost:
		s.updateConfig(w, r)
	default:
		s.methodNotAllowed(w, r)
	}
}

// configUpdate is the POST /config body. Ids may arrive as numbers.
type configUpdate struct {
	APIToken     *looseString           `json:"api_token"`
	WorkspaceID  *looseString           `json:"workspace_id"`
	SpaceID      *looseString           `json:"space_id"`
	FolderID     *looseString           `json:"folder_id"`
	Responsaveis map[string]looseString `json:"responsaveis"`
}

// looseString decodes a JSON string or number. null decodes to "".
type looseString string

func (l *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*l = looseString(v)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*l = looseString(n)
	return nil
}

func (s *Server) updateConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, badJSON)
		return
	}
	var in configUpdate
	if len(bytes.TrimSpace(body)) > 0 {
		err = json.Unmarshal(body, &in)
	}
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "Erro ao atualizar configuração: "+err.Error())
		return
	}
	if s.deps.Settings != nil {
		s.deps.Settings.Update(config.RemoteUpdate{
			APIToken:    text(in.APIToken),
			WorkspaceID: text(in.WorkspaceID),
			SpaceID:     text(in.SpaceID),
			FolderID:    text(in.FolderID),
		})
	}
	for name, id := range in.Responsaveis {
		s.deps.Directory.Set(name, string(id))
	}
	s.log.Info("configuração atualizada",
		"token_changed", in.APIToken != nil,
		"responsaveis", len(in.Responsaveis),
		"request_id", RequestID(r.Context()),
	)
	s.respond(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Configuração atualizada com sucesso",
	})
}

func (s *Server) remote() config.Remote {
	if s.deps.Settings == nil {
		return config.Remote{}
	}
	return s.deps.Settings.Remote()
}

func text(l *looseString) *string {
	if l == nil {
		return nil
	}
	v := string(*l)
	return &v
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || (strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json"))
}
