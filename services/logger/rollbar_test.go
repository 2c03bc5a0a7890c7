package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sigenerus/sigenerus/core"
)

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "API : ", 0), &core.Config{Env: "TEST"})
	logger.Enable(false)

	logger.Error(
		"creating kegiatan",
		errors.New("boom"),
		map[string]interface{}{"kelompokId": "k1"},
		core.Actor{ID: "7", Kind: "user", Username: "admin"},
	)

	out := buf.String()
	assert.Contains(t, out, "API : [ERROR] creating kegiatan")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "map[kelompokId:k1]")
	assert.Contains(t, out, "actor: user 7 (admin)")
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := NewRollbarLogger(log.New(&bytes.Buffer{}, "", 0), &core.Config{Env: "TEST"})
	logger.Enable(false)

	err := errors.New("boom")
	args := logger.prepare("msg", []interface{}{
		err,
		core.Actor{ID: "1", Kind: "generus"},
		core.Actor{ID: "2", Kind: "generus"},
	})
	assert.Equal(t, []interface{}{"msg", err}, args)
}
