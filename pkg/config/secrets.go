package config

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
)

// Secrets is an in-memory store checked before falling back to environment
// variables. Values are never persisted and there is no secure erasure;
// Clear simply empties the map.
type Secrets struct {
	values map[string]string
	log    log.FieldLogger
}

func NewSecrets(logger log.FieldLogger) *Secrets {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Secrets{
		values: make(map[string]string),
		log:    logger,
	}
}

func (s *Secrets) Set(key, value string) {
	s.values[key] = value
	s.log.Debugf("set secret: %s", key)
}

// Get returns the secret for key, checking the in-memory store first and
// the derived environment variable second.
func (s *Secrets) Get(key string) (string, bool) {
	if value, ok := s.values[key]; ok {
		return value, true
	}
	return os.LookupEnv(envKey(key))
}

func (s *Secrets) Require(key string) (string, error) {
	value, ok := s.Get(key)
	if !ok {
		return "", errs.Errorf(errs.KindSecret, "secrets.require", "required secret not found: %s", key)
	}
	return value, nil
}

// Clear empties the in-memory store.
func (s *Secrets) Clear() {
	s.values = make(map[string]string)
	s.log.Info("cleared all secrets from memory")
}

func (s *Secrets) Len() int {
	return len(s.values)
}
