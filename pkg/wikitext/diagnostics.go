package wikitext

// Diagnostic records a problem found while processing a page. The
// collected diagnostics are reset when a new page starts.
type Diagnostic struct {
	// Message describes the problem.
	Message string
	// Title is the page being processed.
	Title string
	// Section and Subsection locate the problem within the page when
	// heading tracking is enabled.
	Section    string
	Subsection string
	// CalledFrom identifies the reporting site in the processor.
	CalledFrom string
	// Path is a copy of the expansion stack at the time of the report.
	Path []string
}

func (p *Processor) makeDiagnostic(msg, calledFrom string) Diagnostic {
	path := make([]string, len(p.expandStack))
	copy(path, p.expandStack)
	return Diagnostic{
		Message:    msg,
		Title:      p.Title,
		Section:    p.section,
		Subsection: p.subsection,
		CalledFrom: calledFrom,
		Path:       path,
	}
}

// Error records a fatal-severity diagnostic for the current page.
func (p *Processor) Error(msg, calledFrom string) {
	p.Errors = append(p.Errors, p.makeDiagnostic(msg, calledFrom))
}

// Warning records a warning diagnostic for the current page.
func (p *Processor) Warning(msg, calledFrom string) {
	p.Warnings = append(p.Warnings, p.makeDiagnostic(msg, calledFrom))
}

// Debug records a debug-level diagnostic for the current page.
func (p *Processor) Debug(msg, calledFrom string) {
	p.Debugs = append(p.Debugs, p.makeDiagnostic(msg, calledFrom))
}
