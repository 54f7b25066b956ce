package logging

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/metrics"
)

// Operation records a start event on Begin and a success or failure event
// with elapsed duration on Done. Errors are logged, counted, and returned
// unchanged; nothing is swallowed here.
type Operation struct {
	log     log.FieldLogger
	name    string
	started time.Time
}

func Begin(logger log.FieldLogger, name string, fields log.Fields) *Operation {
	bound := logger.WithFields(fields).WithFields(log.Fields{
		"operation":    name,
		"operation_id": uuid.NewString(),
	})
	bound.Infof("starting operation: %s", name)

	return &Operation{
		log:     bound,
		name:    name,
		started: time.Now(),
	}
}

func (o *Operation) Done(err error) error {
	elapsed := time.Since(o.started)
	entry := o.log.WithField("duration_seconds", elapsed.Seconds())

	if err != nil {
		entry.WithField("status", metrics.StatusFailed).
			WithError(err).
			Errorf("failed operation: %s", o.name)
	} else {
		entry.WithField("status", metrics.StatusSuccess).
			Infof("completed operation: %s", o.name)
	}

	metrics.ObserveOperation(o.name, elapsed.Seconds(), err != nil)
	return err
}
