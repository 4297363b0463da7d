package compose

import "context"

// TemplateComposer answers from fixed texts.
type TemplateComposer struct{}

// NewTemplateComposer returns the template composer.
func NewTemplateComposer() TemplateComposer {
	return TemplateComposer{}
}

// Compose implements Composer. It never fails.
func (TemplateComposer) Compose(_ context.Context, req Request) (string, error) {
	switch req.Mode {
	case ModeAcknowledge:
		return acknowledgeText, nil
	case ModeFinal:
		return finalTemplate(req, false), nil
	default:
		return engageTemplate(req.History), nil
	}
}

// errorTemplate is the substitute text when generation fails.
func errorTemplate(req Request) string {
	switch req.Mode {
	case ModeAcknowledge:
		return acknowledgeErrorText
	case ModeFinal:
		return finalTemplate(req, true)
	default:
		return engageTemplate(req.History)
	}
}
