package client

import (
	"errors"

	"github.com/gartstein/directory/internal/directory/models"
)

// Status is the phase of the latest fetch.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Loader holds the outcome of the latest fetch. The three non-idle states
// are mutually exclusive; data is cleared while loading so stale records are
// never shown next to a loading indicator.
type Loader struct {
	status  Status
	data    []models.Company
	message string
}

// Begin marks a fetch as started.
func (l *Loader) Begin() {
	l.status = StatusLoading
	l.data = []models.Company{}
	l.message = ""
}

// Finish records the result of a fetch. Results are applied in arrival
// order: when two fetches overlap, the last response wins.
func (l *Loader) Finish(data []models.Company, err error) {
	if err != nil {
		l.status = StatusError
		l.data = []models.Company{}
		l.message = errorMessage(err)
		return
	}
	if data == nil {
		data = []models.Company{}
	}
	l.status = StatusSuccess
	l.data = data
	l.message = ""
}

func (l *Loader) Status() Status { return l.status }

// Data returns the loaded records, empty unless the last fetch succeeded.
func (l *Loader) Data() []models.Company {
	if l.data == nil {
		return []models.Company{}
	}
	return l.data
}

// Message returns the error message of a failed fetch.
func (l *Loader) Message() string { return l.message }

func errorMessage(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}
