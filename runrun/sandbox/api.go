package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"runrun-importer/runrun/domain"

	"gopkg.in/yaml.v3"
)

// BasePath é o prefixo das rotas, igual ao da API real.
const BasePath = "/api/v1.0"

// API guarda boards, campos e tarefas em memória.
type API struct {
	AppKey    string
	UserToken string
	Logger    *slog.Logger

	mu     sync.Mutex
	boards map[int64]domain.BoardFieldSchema
	tasks  []StoredTask
	nextID int64
}

// StoredTask é uma tarefa criada no sandbox.
type StoredTask struct {
	ID    int64            `json:"id"`
	Draft domain.TaskDraft `json:"task"`
}

func NewAPI(appKey, userToken string, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &API{
		AppKey:    appKey,
		UserToken: userToken,
		Logger:    logger,
		boards:    make(map[int64]domain.BoardFieldSchema),
		nextID:    1,
	}
}

// AddBoard registra (ou substitui) o schema de campos customizados de um board.
func (a *API) AddBoard(boardID int64, schema domain.BoardFieldSchema) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := make(domain.BoardFieldSchema, len(schema))
	for k, def := range schema {
		if def.ID == "" {
			def.ID = domain.ID(k)
		}
		cp[k] = def
	}
	a.boards[boardID] = cp
}

func (a *API) Tasks() []StoredTask {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]StoredTask(nil), a.tasks...)
}

// Handler devolve as rotas sob BasePath.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /boards/{id}/fields", a.handleFields)
	mux.HandleFunc("GET /fields/{id}/options", a.handleOptions)
	mux.HandleFunc("POST /tasks", a.handleCreateTask)
	return http.StripPrefix(BasePath, a.auth(mux))
}

func (a *API) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("App-Key") != a.AppKey || r.Header.Get("User-Token") != a.UserToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) handleFields(w http.ResponseWriter, r *http.Request) {
	boardID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "board not found"})
		return
	}

	a.mu.Lock()
	schema := a.boards[boardID]
	defs := make([]domain.FieldDefinition, 0, len(schema))
	for _, def := range schema {
		// opções só saem em fields/{id}/options.
		def.Options = nil
		defs = append(defs, def)
	}
	a.mu.Unlock()

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	writeJSON(w, http.StatusOK, defs)
}

func (a *API) handleOptions(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(r.PathValue("id"))

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, schema := range a.boards {
		for _, def := range schema {
			if def.ID == id {
				opts := def.Options
				if opts == nil {
					opts = []domain.Option{}
				}
				writeJSON(w, http.StatusOK, opts)
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "field not found"})
}

func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Task domain.TaskDraft `json:"task"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return
	}
	draft := body.Task

	a.mu.Lock()
	defer a.mu.Unlock()

	if problems := a.validate(draft); len(problems) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": problems})
		return
	}

	id := a.nextID
	a.nextID++
	a.tasks = append(a.tasks, StoredTask{ID: id, Draft: draft})
	a.Logger.Info("task created", "task_id", id, "board_id", draft.BoardID, "title", draft.Title)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "title": draft.Title, "board_id": draft.BoardID})
}

// validate confere obrigatórios e se os campos customizados existem no board.
// Chamado com a.mu travado.
func (a *API) validate(draft domain.TaskDraft) []string {
	var problems []string
	if strings.TrimSpace(draft.Title) == "" {
		problems = append(problems, "title can't be blank")
	}
	if draft.BoardID == 0 {
		problems = append(problems, "board_id can't be blank")
	}
	schema := a.boards[draft.BoardID]
	keys := make([]string, 0, len(draft.CustomFields))
	for k := range draft.CustomFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := schema[k]; !ok {
			problems = append(problems, fmt.Sprintf("unknown custom field %s for board %d", k, draft.BoardID))
		}
	}
	return problems
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// boardFile é o formato escrito por `importer fields`.
type boardFile struct {
	BoardID int64                   `yaml:"board_id"`
	Fields  domain.BoardFieldSchema `yaml:"fields"`
}

// LoadBoardYAML lê um schema de board em YAML e o registra na API.
func (a *API) LoadBoardYAML(r io.Reader) (int64, error) {
	var f boardFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return 0, fmt.Errorf("decode board yaml: %w", err)
	}
	if f.BoardID <= 0 {
		return 0, errors.New("board yaml: board_id must be > 0")
	}
	a.AddBoard(f.BoardID, f.Fields)
	return f.BoardID, nil
}
