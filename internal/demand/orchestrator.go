package demand

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"demandhook/internal/logging"
	"demandhook/internal/sanitize"
	"demandhook/internal/service"
)

const (
	// NormalPriority is used for the main task and every subtask.
	NormalPriority = service.PriorityNormal

	// SuccessMessage accompanies every successful outcome.
	SuccessMessage = "Demanda criada com sucesso!"
)

// Outcome describes the records created for one demand.
type Outcome struct {
	TaskID      string   `json:"task_id"`
	ListID      string   `json:"list_id"`
	Company     string   `json:"empresa"`
	Title       string   `json:"tarefa"`
	Responsible *string  `json:"responsavel"`
	ChecklistID *string  `json:"checklist_id"`
	SubtaskIDs  []string `json:"subtask_ids"`
	Timestamp   string   `json:"timestamp"`
}

// Config wires an Orchestrator. Zero fields get defaults: an empty directory,
// the embedded templates, DefaultPolicies, a discarding logger and time.Now.
type Config struct {
	Directory *Directory
	Templates *Templates
	Policies  Policies
	Logger    *slog.Logger
	Clock     func() time.Time
}

// Orchestrator runs the demand workflow against a service.Service. It is
// safe for concurrent use; each Process call is independent.
type Orchestrator struct {
	svc      service.Service
	dir      *Directory
	tpl      Templates
	policies Policies
	log      *slog.Logger
	now      func() time.Time
}

// New creates an Orchestrator.
func New(svc service.Service, cfg Config) *Orchestrator {
	o := &Orchestrator{
		svc:      svc,
		dir:      cfg.Directory,
		policies: cfg.Policies,
		log:      cfg.Logger,
		now:      cfg.Clock,
	}
	if o.dir == nil {
		o.dir = NewDirectory(nil)
	}
	if cfg.Templates != nil {
		o.tpl = *cfg.Templates
	} else {
		o.tpl = DefaultTemplates()
	}
	if o.policies == nil {
		o.policies = DefaultPolicies()
	}
	if o.log == nil {
		o.log = logging.Discard()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Directory returns the responsible-party directory in use.
func (o *Orchestrator) Directory() *Directory { return o.dir }

// plan is everything resolved from a demand before any remote call.
type plan struct {
	demand      Demand
	kind        string
	dueMillis   int64
	responsible string
	checklist   []string
	subtasks    []string
}

// Process validates d and creates its list, task, checklist and subtasks in
// that order. Validation errors are returned before any remote call. A
// failing stage either aborts with a *StageError or is logged, according to
// the stage policy.
func (o *Orchestrator) Process(ctx context.Context, d Demand) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("panic ao processar demanda", "panic", r, "stack", string(debug.Stack()))
			out, err = Outcome{}, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	if err := d.Validate(); err != nil {
		return Outcome{}, err
	}
	p := o.resolve(d)

	listID, err := o.svc.FindOrCreateList(ctx, d.Company)
	if err := o.stage(StageList, err, "empresa", d.Company); err != nil {
		return Outcome{}, err
	}

	taskID, err := o.svc.CreateTask(ctx, listID, o.mainTask(p))
	if err := o.stage(StageTask, err, "tarefa", d.Title); err != nil {
		return Outcome{}, err
	}

	out = Outcome{
		TaskID:     taskID,
		ListID:     listID,
		Company:    d.Company,
		Title:      d.Title,
		SubtaskIDs: []string{},
	}
	if p.responsible != "" {
		out.Responsible = &p.responsible
	}

	if len(p.checklist) > 0 {
		name := "Etapas - " + titleCase(p.kind)
		id, err := o.svc.CreateChecklist(ctx, taskID, name, p.checklist)
		if err := o.stage(StageChecklist, err, "checklist", name); err != nil {
			return Outcome{}, err
		}
		if id != "" {
			out.ChecklistID = &id
		}
	}

	for i, label := range p.subtasks {
		id, err := o.svc.CreateSubtask(ctx, taskID, o.subtask(p, i, label))
		if err := o.stage(StageSubtasks, err, "subtarefa", label); err != nil {
			return Outcome{}, err
		}
		if id != "" {
			out.SubtaskIDs = append(out.SubtaskIDs, id)
		}
	}

	out.Timestamp = o.now().UTC().Format(time.RFC3339)
	o.log.Info("demanda processada com sucesso",
		"task_id", taskID,
		"list_id", listID,
		"subtasks", len(out.SubtaskIDs),
	)
	return out, nil
}

// resolve computes due date, responsible party and templates for d.
func (o *Orchestrator) resolve(d Demand) plan {
	p := plan{
		demand: d,
		kind:   normalizeType(d.Type),
	}

	ms, ok, err := d.dueMillis()
	if err != nil {
		o.log.Warn("data de entrega ignorada", "error", err)
	}
	if ok {
		p.dueMillis = ms
	}

	if name := strings.TrimSpace(d.Responsible); name != "" {
		if id, ok := o.dir.Lookup(name); ok {
			p.responsible = o.assignable(name, id)
		}
	}
	if p.responsible == "" {
		if party, ok := o.dir.Detect(d.Title + " " + d.Description); ok {
			o.log.Info("responsável detectado", "nome", party.Name, "id", party.ID)
			p.responsible = o.assignable(party.Name, party.ID)
		}
	}

	if (len(d.Checklist) == 0 || len(d.Subtasks) == 0) && !o.tpl.Known(p.kind) {
		o.log.Info("tipo sem template próprio, usando padrão", "tipo", p.kind)
	}
	p.checklist = d.Checklist
	if len(p.checklist) == 0 {
		p.checklist = o.tpl.Checklist(p.kind)
	}
	p.subtasks = d.Subtasks
	if len(p.subtasks) == 0 {
		p.subtasks = o.tpl.Subtasks(p.kind)
	}
	return p
}

// assignable returns id when the remote API would accept it as an assignee.
// Directory entries can hold anything POST /config sent.
func (o *Orchestrator) assignable(name, id string) string {
	if _, ok := sanitize.AssigneeID(id); !ok {
		o.log.Warn("responsável ignorado: id não numérico", "nome", name, "id", id)
		return ""
	}
	return id
}

func (o *Orchestrator) mainTask(p plan) service.TaskFields {
	d := p.demand
	fields := service.TaskFields{
		"name":        d.Title,
		"description": describe(p),
		"priority":    NormalPriority,
	}
	if len(d.Tags) > 0 {
		fields["tags"] = d.Tags
	}
	p.inherit(fields)
	return fields
}

func (o *Orchestrator) subtask(p plan, i int, label string) service.TaskFields {
	fields := service.TaskFields{
		"name":        label,
		"description": fmt.Sprintf("Subtarefa %d da tarefa principal: %s", i+1, p.demand.Title),
		"priority":    NormalPriority,
	}
	p.inherit(fields)
	return fields
}

// inherit copies the due date and assignee onto fields.
func (p plan) inherit(fields service.TaskFields) {
	if p.dueMillis > 0 {
		fields["due_date"] = p.dueMillis
	}
	if p.responsible != "" {
		fields["assignees"] = []string{p.responsible}
	}
}

// describe renders the main task description.
func describe(p plan) string {
	d := p.demand
	var b strings.Builder
	fmt.Fprintf(&b, "**Tipo:** %s\n", titleCase(p.kind))
	fmt.Fprintf(&b, "**Equipe:** %s\n", d.Team)
	fmt.Fprintf(&b, "**Horas Estimadas:** %sh\n", d.Hours)
	fmt.Fprintf(&b, "**Empresa:** %s\n\n", d.Company)
	b.WriteString(d.Description)
	return strings.TrimSpace(b.String())
}

// stage applies the stage policy to err. It returns nil when the run should go on.
func (o *Orchestrator) stage(s Stage, err error, key, value string) error {
	if err == nil {
		return nil
	}
	if o.policies.For(s) == Continue {
		o.log.Warn(stageMessages[s], key, value, "error", err)
		return nil
	}
	o.log.Error(stageMessages[s], key, value, "error", err)
	return &StageError{Stage: s, Message: stageMessages[s], Err: err}
}
