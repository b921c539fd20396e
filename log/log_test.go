package log_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/dudk/bzzt/log"
)

func TestLogger(t *testing.T) {
	var _ log.Logger = log.GetLogger()
	var _ log.Logger = log.Silent()

	l := log.GetLogger()
	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.WithUID(l, "pipeline", "abc").Info("started")
	assert.Contains(t, buf.String(), "pipeline=abc")
	assert.Contains(t, buf.String(), "started")
}
