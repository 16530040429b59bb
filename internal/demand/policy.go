package demand

// Stage names one step of demand processing that talks to the remote service.
type Stage string

// Stages in the order Process runs them.
const (
	StageList      Stage = "list"      // find or create the company list
	StageTask      Stage = "task"      // create the main task
	StageChecklist Stage = "checklist" // create the checklist and its items
	StageSubtasks  Stage = "subtasks"  // create each subtask
)

// Policy decides what a stage failure does to the rest of the run.
type Policy int

const (
	// Abort ends the run with a StageError. Earlier work is not rolled back.
	Abort Policy = iota
	// Continue logs the failure and moves on.
	Continue
)

func (p Policy) String() string {
	if p == Continue {
		return "continue"
	}
	return "abort"
}

// Policies maps stages to their failure policy.
type Policies map[Stage]Policy

// DefaultPolicies aborts when the list or main task cannot be created and
// tolerates checklist and subtask failures.
func DefaultPolicies() Policies {
	return Policies{
		StageList:      Abort,
		StageTask:      Abort,
		StageChecklist: Continue,
		StageSubtasks:  Continue,
	}
}

// For returns the policy for s, falling back to the defaults.
func (p Policies) For(s Stage) Policy {
	if v, ok := p[s]; ok {
		return v
	}
	return DefaultPolicies()[s]
}

var stageMessages = map[Stage]string{
	StageList:      "Erro ao obter/criar lista da empresa",
	StageTask:      "Erro ao criar tarefa principal",
	StageChecklist: "Erro ao criar checklist",
	StageSubtasks:  "Erro ao criar subtarefa",
}
