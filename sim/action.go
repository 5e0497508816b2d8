// Defines Actions: ordered sequences of executable steps, fired one
// action.execute event per step. Steps are data; what a step does is
// decided by the pluggable StepInterpreter, not the kernel.

package sim

import "fmt"

// ActionID indexes the action arena.
type ActionID int

// ActionStep is one step of an action. Op selects the effect; the
// remaining fields are its arguments and are only read by the interpreter
// that understands the op.
type ActionStep struct {
	Op         string
	Deployment DeploymentID
	Request    RequestID
	Replicas   int
	Message    string
}

// Built-in step ops understood by the default interpreter.
const (
	OpScaleDeployment = "deployment.scale"
	OpStopRequest     = "request.stop"
	OpLog             = "log"
)

// Action is an ordered sequence of steps.
type Action struct {
	ID    ActionID
	Name  string
	Steps []ActionStep
}

func (a *Action) String() string {
	return fmt.Sprintf("Action(%s, %d steps)", a.Name, len(a.Steps))
}

// StepInterpreter gives a policy layer control over action side effects.
// The kernel validates the step index and sequences the steps; the
// interpreter performs the effect.
type StepInterpreter interface {
	ExecuteStep(s *Simulation, act *Action, step int) error
}

// defaultInterpreter handles the built-in step ops.
type defaultInterpreter struct{}

func (defaultInterpreter) ExecuteStep(s *Simulation, act *Action, step int) error {
	st := act.Steps[step]
	switch st.Op {
	case OpScaleDeployment:
		return s.Scale(st.Deployment, st.Replicas)
	case OpStopRequest:
		return s.emit(TopicRequestStop, RequestPayload{Request: st.Request})
	case OpLog:
		return s.emit(TopicSimLog, LogPayload{Message: st.Message})
	default:
		return fmt.Errorf("unknown step op %q in action %s", st.Op, act.Name)
	}
}

// AddAction registers an action in the entity table.
func (s *Simulation) AddAction(name string, steps []ActionStep) *Action {
	a := &Action{
		ID:    ActionID(len(s.actions)),
		Name:  name,
		Steps: steps,
	}
	s.actions = append(s.actions, a)
	return a
}

// Action resolves an action id through the arena.
func (s *Simulation) Action(id ActionID) *Action {
	if id < 0 || int(id) >= len(s.actions) {
		panic(fmt.Sprintf("unknown action id %d", id))
	}
	return s.actions[id]
}

// Actions returns the action arena for read-only iteration.
func (s *Simulation) Actions() []*Action {
	return s.actions
}

// SetInterpreter replaces the step interpreter. Passing nil restores the
// default one.
func (s *Simulation) SetInterpreter(in StepInterpreter) {
	if in == nil {
		in = defaultInterpreter{}
	}
	s.interpreter = in
}
