package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecTableName is the table that holds information about the program
// execution that produced a recording.
const ExecTableName = "exec_info"

type execInfo struct {
	Property string
	Value    string
}

// ExecRecorder records when and how the program that produced a recording
// was run.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []execInfo
}

// NewExecRecorder creates an ExecRecorder and the table it writes to.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	e := &ExecRecorder{
		recorder: recorder,
	}

	recorder.CreateTable(ExecTableName, execInfo{})

	return e
}

// Start logs the current execution.
func (e *ExecRecorder) Start() {
	startTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.entries = append(e.entries, execInfo{"Start Time", startTime})

	cmd := strings.Join(os.Args, " ")
	e.entries = append(e.entries, execInfo{"Command", cmd})

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.entries = append(e.entries, execInfo{"Working Directory", cwd})
}

// Property adds an extra property about the execution.
func (e *ExecRecorder) Property(name, value string) {
	e.entries = append(e.entries, execInfo{name, value})
}

// End writes the collected properties along with the exit time.
func (e *ExecRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(ExecTableName, entry)
	}

	endTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.recorder.InsertData(ExecTableName, execInfo{"End Time", endTime})

	e.entries = nil

	e.recorder.Flush()
}
