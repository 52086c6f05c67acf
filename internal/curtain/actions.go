package curtain

import "github.com/nerrad567/curtain-skill/internal/intent"

// Response template names.
const (
	TemplateState      = "state.tmpl"
	TemplateSetCurtain = "set_curtain.tmpl"
	TemplateHelp       = "help.tmpl"
)

// Action is how the skill answers one intent kind.
type Action struct {
	// Name identifies the action in templates, logs and telemetry.
	Name string

	// Template is the response template rendered for this action.
	Template string

	// Payload selects the command for one device. Nil means the action
	// only answers and never dispatches.
	Payload func(d Device, p Parameters) string

	// RequiresTargets makes an empty device match a "no curtains" reply.
	RequiresTargets bool
}

// Dispatches reports whether the action publishes device commands.
func (a Action) Dispatches() bool {
	return a.Payload != nil
}

// actions is the closed set of intent kinds the skill handles.
var actions = map[intent.Type]Action{
	intent.DeviceOpen: {
		Name:            "open",
		Template:        TemplateState,
		Payload:         func(d Device, _ Parameters) string { return d.OpenPayload() },
		RequiresTargets: true,
	},
	intent.DeviceClose: {
		Name:            "close",
		Template:        TemplateState,
		Payload:         func(d Device, _ Parameters) string { return d.ClosePayload() },
		RequiresTargets: true,
	},
	intent.DeviceSet: {
		Name:            "set",
		Template:        TemplateSetCurtain,
		Payload:         func(d Device, p Parameters) string { return d.SetPayload(p.Position) },
		RequiresTargets: true,
	},
	intent.SystemHelp: {
		Name:     "help",
		Template: TemplateHelp,
	},
}

// LookupAction returns the action for an intent kind.
func LookupAction(t intent.Type) (Action, bool) {
	a, ok := actions[t]
	return a, ok
}

// SupportedIntents returns the intent kinds the skill acts on.
func SupportedIntents() []intent.Type {
	return []intent.Type{intent.DeviceOpen, intent.DeviceClose, intent.DeviceSet, intent.SystemHelp}
}

// requiredTemplates lists every template referenced by the action table.
func requiredTemplates() []string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range SupportedIntents() {
		name := actions[t].Template
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
