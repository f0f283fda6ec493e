package lsp

import "fmt"

// ProgressReporter sends work done progress for long-running commands.
type ProgressReporter struct {
	send func(msg jsonRPCMessage) error
	seq  int
}

func NewProgressReporter(send func(msg jsonRPCMessage) error) *ProgressReporter {
	return &ProgressReporter{send: send}
}

// Begin asks the client to create token and opens the report.
func (p *ProgressReporter) Begin(token, title string) error {
	p.seq++
	create := jsonRPCMessage{
		JSONRPC: "2.0",
		ID:      fmt.Sprintf("progress-create-%s-%d", token, p.seq),
		Method:  MethodWindowWorkDoneProgressCreate,
		Params:  mustMarshal(WorkDoneProgressCreateParams{Token: token}),
	}
	if err := p.send(create); err != nil {
		return err
	}
	return p.notify(token, WorkDoneProgressBegin{Kind: "begin", Title: title})
}

// Report sends done out of total as a percentage.
func (p *ProgressReporter) Report(token, message string, done, total int) error {
	pct := 0
	if total > 0 {
		pct = done * 100 / total
	}
	return p.notify(token, WorkDoneProgressReport{Kind: "report", Message: message, Percentage: pct})
}

func (p *ProgressReporter) End(token, message string) error {
	return p.notify(token, WorkDoneProgressEnd{Kind: "end", Message: message})
}

func (p *ProgressReporter) notify(token string, value interface{}) error {
	return p.send(jsonRPCMessage{
		JSONRPC: "2.0",
		Method:  MethodProgress,
		Params:  mustMarshal(ProgressParams{Token: token, Value: value}),
	})
}
